package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	billingdomain "github.com/wifinitylabs/wifinity/internal/billing/domain"
	invoicedomain "github.com/wifinitylabs/wifinity/internal/invoice/domain"
	paymentdomain "github.com/wifinitylabs/wifinity/internal/payment/domain"
	plandomain "github.com/wifinitylabs/wifinity/internal/plan/domain"
	subscriptiondomain "github.com/wifinitylabs/wifinity/internal/subscription/domain"
	usagedomain "github.com/wifinitylabs/wifinity/internal/usage/domain"
)

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// AbortWithError maps domain sentinels to HTTP statuses. Anything unmapped
// is a 500 with an opaque message; the detail goes to the log, not the wire.
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound):
		status = http.StatusNotFound
		message = err.Error()

	case errors.Is(err, subscriptiondomain.ErrSubscriptionInactive),
		errors.Is(err, subscriptiondomain.ErrCursorConflict),
		errors.Is(err, invoicedomain.ErrAlreadyPaid),
		errors.Is(err, billingdomain.ErrSamePlan):
		status = http.StatusConflict
		message = err.Error()

	case errors.Is(err, billingdomain.ErrInvalidPlan),
		errors.Is(err, billingdomain.ErrInvalidSubscription),
		errors.Is(err, plandomain.ErrInvalidBillingKind),
		errors.Is(err, plandomain.ErrInvalidPrice),
		errors.Is(err, plandomain.ErrMissingDataRate),
		errors.Is(err, plandomain.ErrMissingTimeRate),
		errors.Is(err, usagedomain.ErrInvalidSubscription),
		errors.Is(err, usagedomain.ErrInvalidRecordedAt),
		errors.Is(err, usagedomain.ErrNegativeBytes),
		errors.Is(err, paymentdomain.ErrInvalidCallback):
		status = http.StatusBadRequest
		message = err.Error()

	case errors.Is(err, paymentdomain.ErrGatewayUnavailable):
		status = http.StatusBadGateway
		message = err.Error()
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
