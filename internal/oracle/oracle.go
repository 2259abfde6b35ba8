package oracle

import (
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/crypto-payment-backend/internal/utils/config"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
)

const (
	defaultAPIURL   = "https://api.coingecko.com/api/v3"
	requestTimeout  = 10 * time.Second
	rateCacheExpiry = time.Minute
)

// coinIDs maps ticker symbols to coingecko coin ids.
var coinIDs = map[string]string{
	"btc": "bitcoin",
	"eth": "ethereum",
}

type cachedRate struct {
	rate      decimal.Decimal
	fetchedAt time.Time
}

type RateOracle struct {
	mux *sync.Mutex

	client    *resty.Client
	appConfig *config.AppConfig
	logger    *logger.Logger
	cache     map[string]cachedRate
}

func New(appConfig *config.AppConfig, logger *logger.Logger) IOracle {
	apiURL := appConfig.PriceFeed.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &RateOracle{
		mux:       &sync.Mutex{},
		client:    resty.New().SetBaseURL(apiURL).SetTimeout(requestTimeout),
		appConfig: appConfig,
		logger:    logger,
		cache:     map[string]cachedRate{},
	}
}

func (o *RateOracle) GetRate(symbol string, fiatCurrency string) (decimal.Decimal, error) {
	coinID := coinID(symbol)
	fiat := strings.ToLower(fiatCurrency)
	cacheKey := coinID + "/" + fiat

	o.mux.Lock()
	defer o.mux.Unlock()

	if cached, ok := o.cache[cacheKey]; ok && time.Since(cached.fetchedAt) < rateCacheExpiry {
		return cached.rate, nil
	}

	var result map[string]map[string]decimal.Decimal
	resp, err := o.client.R().
		SetQueryParams(map[string]string{
			"ids":           coinID,
			"vs_currencies": fiat,
		}).
		SetResult(&result).
		Get("/simple/price")
	if err != nil {
		o.logger.Error("[GetRate] price feed request failed", map[string]string{
			"coin":  coinID,
			"fiat":  fiat,
			"error": err.Error(),
		})
		return decimal.Zero, errors.Wrap(err, "failed to fetch rate")
	}
	if resp.IsError() {
		return decimal.Zero, errors.Errorf("price feed returned status %d", resp.StatusCode())
	}

	rate, ok := result[coinID][fiat]
	if !ok {
		return decimal.Zero, errors.Errorf("no rate for %s/%s in price feed response", coinID, fiat)
	}
	if rate.IsZero() {
		return decimal.Zero, errors.Errorf("price feed returned a zero rate for %s/%s", coinID, fiat)
	}

	o.cache[cacheKey] = cachedRate{rate: rate, fetchedAt: time.Now()}
	return rate, nil
}

func coinID(symbol string) string {
	if id, ok := coinIDs[strings.ToLower(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}
