package mpesa

import (
	"encoding/json"
	"fmt"
	"time"

	paymentdomain "github.com/wifinitylabs/wifinity/internal/payment/domain"
)

// Daraja posts the STK result wrapped in Body.stkCallback. ResultCode 0 is
// success; the receipt and transaction time live in CallbackMetadata items.
type callbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string `json:"Name"`
					Value any    `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// ParseCallback translates a raw Daraja callback body into the neutral
// event the orchestrator understands. The invoice correlation comes from
// the callback URL, not the body.
func ParseCallback(data []byte) (paymentdomain.CallbackEvent, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return paymentdomain.CallbackEvent{}, paymentdomain.ErrInvalidCallback
	}

	cb := env.Body.StkCallback
	event := paymentdomain.CallbackEvent{
		Success:    cb.ResultCode == 0,
		OccurredAt: time.Now().UTC(),
	}

	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			if s, ok := item.Value.(string); ok {
				event.ReceiptRef = s
			}
		case "TransactionDate":
			// Comes over the wire as a number, e.g. 20240401100523.
			if ts, err := time.Parse(timestampLayout, fmt.Sprintf("%.0f", item.Value)); err == nil {
				event.OccurredAt = ts.UTC()
			}
		}
	}
	return event, nil
}
