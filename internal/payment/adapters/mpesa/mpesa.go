// Package mpesa implements the payment gateway against Safaricom's Daraja
// API. An accepted STK push is only ever pending: confirmation arrives on
// the asynchronous callback.
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/wifinitylabs/wifinity/internal/config"
	paymentdomain "github.com/wifinitylabs/wifinity/internal/payment/domain"
)

const timestampLayout = "20060102150405"

type Gateway struct {
	cfg    config.MpesaConfig
	client *http.Client
	log    *zap.Logger
}

func New(cfg config.MpesaConfig, log *zap.Logger) *Gateway {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://sandbox.safaricom.co.ke"
	}
	cfg.BaseURL = base
	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 12 * time.Second},
		log:    log.Named("payment.mpesa"),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type stkPushResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
}

func (g *Gateway) RequestPayment(ctx context.Context, phone string, amount float64, invoiceID snowflake.ID) (paymentdomain.Result, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return paymentdomain.PaymentPending, err
	}

	now := time.Now().UTC().Format(timestampLayout)
	password := base64.StdEncoding.EncodeToString([]byte(g.cfg.ShortCode + g.cfg.Passkey + now))

	payload := map[string]any{
		"BusinessShortCode": g.cfg.ShortCode,
		"Password":          password,
		"Timestamp":         now,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            int64(amount),
		"PartyA":            phone,
		"PartyB":            g.cfg.ShortCode,
		"PhoneNumber":       phone,
		"CallBackURL":       g.callbackURL(invoiceID),
		"AccountReference":  "INV" + invoiceID.String(),
		"TransactionDesc":   "Internet subscription",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return paymentdomain.PaymentFailed, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return paymentdomain.PaymentFailed, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("stk push transport failure", zap.Error(err), zap.String("invoice_id", invoiceID.String()))
		return paymentdomain.PaymentPending, paymentdomain.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	var out stkPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return paymentdomain.PaymentPending, paymentdomain.ErrGatewayUnavailable
	}

	if resp.StatusCode >= http.StatusBadRequest || out.ResponseCode != "0" {
		g.log.Info("stk push rejected",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("response_code", out.ResponseCode),
			zap.String("description", out.ResponseDescription),
		)
		return paymentdomain.PaymentFailed, nil
	}

	g.log.Info("stk push accepted",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("checkout_request_id", out.CheckoutRequestID),
	)
	return paymentdomain.PaymentPending, nil
}

// callbackURL routes the asynchronous result back to the invoice it pays.
// Daraja's STK callback does not echo AccountReference, so the correlation
// rides in the URL itself.
func (g *Gateway) callbackURL(invoiceID snowflake.ID) string {
	return strings.TrimRight(g.cfg.CallbackURL, "/") + "/" + invoiceID.String()
}

func (g *Gateway) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(g.cfg.ConsumerKey, g.cfg.ConsumerSecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", paymentdomain.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", paymentdomain.ErrGatewayUnavailable
	}

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", paymentdomain.ErrGatewayUnavailable
	}
	if out.AccessToken == "" {
		return "", errors.New("mpesa_token_empty")
	}
	return out.AccessToken, nil
}
