package mpesa

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentdomain "github.com/wifinitylabs/wifinity/internal/payment/domain"
)

func TestParseCallbackSuccess(t *testing.T) {
	body := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 1500.00},
						{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
						{"Name": "TransactionDate", "Value": 20240401100523},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`)

	event, err := ParseCallback(body)
	require.NoError(t, err)
	assert.True(t, event.Success)
	assert.Equal(t, "NLJ7RT61SV", event.ReceiptRef)
	assert.Equal(t, time.Date(2024, 4, 1, 10, 5, 23, 0, time.UTC), event.OccurredAt)
}

func TestParseCallbackDeclined(t *testing.T) {
	body := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user."
			}
		}
	}`)

	event, err := ParseCallback(body)
	require.NoError(t, err)
	assert.False(t, event.Success)
	assert.Empty(t, event.ReceiptRef)
}

func TestParseCallbackRejectsGarbage(t *testing.T) {
	_, err := ParseCallback([]byte("not json"))
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidCallback)
}
