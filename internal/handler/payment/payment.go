package payment

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dwarvesf/crypto-payment-backend/internal/chainrpc"
	"github.com/dwarvesf/crypto-payment-backend/internal/store"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/config"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
)

type Handler struct {
	appConfig *config.AppConfig
	logger    *logger.Logger
	db        *gorm.DB
	store     *store.Store
	registry  *chainrpc.Registry
}

func New(appConfig *config.AppConfig, logger *logger.Logger, db *gorm.DB, store *store.Store, registry *chainrpc.Registry) IHandler {
	return &Handler{
		appConfig: appConfig,
		logger:    logger,
		db:        db,
		store:     store,
		registry:  registry,
	}
}

// Detail godoc
// @Summary Get payment detail
// @Description Returns one payment with its address validity, payment URI and explorer link
// @Tags payment
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} DetailResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/payments/{id} [get]
func (h *Handler) Detail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid payment id"})
		return
	}

	payment, err := h.store.Payment.GetByID(h.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "payment not found"})
			return
		}
		h.logger.Error("[Detail] failed to load payment", map[string]string{
			"payment_id": id.String(),
			"error":      err.Error(),
		})
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to load payment"})
		return
	}

	cfg, err := h.appConfig.Backend(payment.Currency)
	if err != nil {
		h.logger.Error("[Detail] payment references an unconfigured backend", map[string]string{
			"payment_id": id.String(),
			"backend":    payment.Currency,
			"error":      err.Error(),
		})
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "payment not found"})
		return
	}

	// anonymous payments are hidden unless the backend allows them
	if payment.Anonymous() && !cfg.AllowAnonymousPayment {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "payment not found"})
		return
	}

	response := DetailResponse{
		ID:               payment.ID,
		Currency:         payment.Currency,
		Address:          payment.Address,
		CryptoAmount:     payment.CryptoAmount,
		PaidCryptoAmount: payment.PaidCryptoAmount,
		FiatAmount:       payment.FiatAmount,
		FiatCurrency:     payment.FiatCurrency,
		Status:           payment.Status,
		TxHash:           payment.TxHash,
		ChildPaymentID:   payment.ChildPaymentID,
		CreatedAt:        payment.CreatedAt,
		AddressValidity:  payment.CreatedAt.Add(time.Duration(cfg.CancelUnpaidPaymentHrs) * time.Hour),
		LogoURL:          cfg.CryptoLogoURL,
	}

	if rpc, err := h.registry.Get(payment.Currency); err == nil {
		response.PaymentURI = rpc.PaymentURI(payment.Address, payment.CryptoAmount)
	}

	if payment.TxHash != nil && cfg.ExplorerURL != "" {
		response.ExplorerURL = fmt.Sprintf(cfg.ExplorerURL, *payment.TxHash)
	}

	c.JSON(http.StatusOK, response)
}
