package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wifinitylabs/wifinity/internal/payment/adapters/mpesa"
	paymentdomain "github.com/wifinitylabs/wifinity/internal/payment/domain"
)

// PaymentCallback receives the gateway's asynchronous result. The response
// shape is what Daraja expects back; anything else makes it retry.
func (s *Server) PaymentCallback(c *gin.Context) {
	invoiceID, err := parseID(c.Param("invoice_id"))
	if err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidCallback)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidCallback)
		return
	}

	event, err := mpesa.ParseCallback(body)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	event.InvoiceID = invoiceID

	if err := s.orchestrator.HandleCallback(c.Request.Context(), event); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}
