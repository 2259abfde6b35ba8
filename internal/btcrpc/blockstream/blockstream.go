package blockstream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
)

type blockstream struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

func New(apiURL string, logger *logger.Logger) IBlockStream {
	return &blockstream{
		baseURL: apiURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

func (c *blockstream) GetAddressTxs(address string) ([]AddressTx, error) {
	url := fmt.Sprintf("%s/address/%s/txs", c.baseURL, address)

	body, err := c.get(url)
	if err != nil {
		c.logger.Error("[GetAddressTxs] request failed", map[string]string{
			"address": address,
			"error":   err.Error(),
		})
		return nil, err
	}

	var txs []AddressTx
	if err := json.Unmarshal(body, &txs); err != nil {
		return nil, errors.Wrap(err, "failed to decode address txs response")
	}

	return txs, nil
}

func (c *blockstream) GetTipHeight() (int64, error) {
	url := fmt.Sprintf("%s/blocks/tip/height", c.baseURL)

	body, err := c.get(url)
	if err != nil {
		c.logger.Error("[GetTipHeight] request failed", map[string]string{
			"error": err.Error(),
		})
		return 0, err
	}

	height, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "failed to parse tip height response")
	}

	return height, nil
}

func (c *blockstream) get(url string) ([]byte, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to request %s", url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("status code: %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
