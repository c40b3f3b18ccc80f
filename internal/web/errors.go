package web

import (
	"errors"
	"net/http"

	"marketplace-be/internal/cart"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/order"
	"marketplace-be/internal/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, cart.ErrCartEmpty),
		errors.Is(err, payment.ErrNoOrderInSession),
		errors.Is(err, payment.ErrCartStillPresent),
		errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, cart.ErrListingNotFound),
		errors.Is(err, cart.ErrUnknownChange),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrDeliveryCategoryNotFound),
		errors.Is(err, payment.ErrPaymentNotFound),
		errors.Is(err, payment.ErrUnknownCategory):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error. Unexpected errors are logged and their
// text is not sent to the client.
func fail(c *gin.Context, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		logger.FromCtx(c.Request.Context()).Error("request failed",
			zap.String("layer", "web"),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		msg = http.StatusText(code)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}
