package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pgagates/gatesite/internal/quote"
)

// QuoteHandler serves POST /api/quote.
type QuoteHandler struct {
	quoteService *quote.Service
	logger       *slog.Logger
}

// NewQuoteHandler creates the quote handler.
func NewQuoteHandler(log *slog.Logger, quoteService *quote.Service) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
		logger:       log.With(slog.String("handler", "quote")),
	}
}

// Register mounts POST /api/quote on the Echo instance.
func (h *QuoteHandler) Register(e *echo.Echo) {
	e.POST("/api/quote", h.Submit)
}

type quoteRequest struct {
	Name           string `json:"name" form:"name"`
	Email          string `json:"email" form:"email"`
	Phone          string `json:"phone" form:"phone"`
	Address        string `json:"address" form:"address"`
	GateType       string `json:"type" form:"type"`
	Message        string `json:"message" form:"message"`
	RecaptchaToken string `json:"recaptchaToken" form:"g-recaptcha-response"`
	Company        string `json:"company" form:"company"`
}

// Submit validates and delivers one quote request. The response never
// distinguishes honeypot drops from real deliveries.
func (h *QuoteHandler) Submit(c echo.Context) error {
	if h.quoteService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "quote service not configured")
	}
	var req quoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.quoteService.Submit(c.Request().Context(), quote.Request{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		GateType:       req.GateType,
		Message:        req.Message,
		RecaptchaToken: req.RecaptchaToken,
		Company:        req.Company,
	}, c.RealIP())
	if err != nil {
		switch {
		case errors.Is(err, quote.ErrInvalid), errors.Is(err, quote.ErrCaptcha):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, quote.ErrRateLimited):
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, try again later")
		case errors.Is(err, quote.ErrDelivery):
			return echo.NewHTTPError(http.StatusBadGateway, "email delivery failed")
		default:
			h.logger.Error("quote failed", slog.Any("error", err))
			return echo.NewHTTPError(http.StatusInternalServerError, "server error")
		}
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
