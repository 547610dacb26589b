// Package mpesa is a client for the Daraja STK push API: it asks the provider
// to prompt the customer's phone for payment, and the outcome arrives later on
// the registered callback URL.
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jmwangi/zawadi-shop/internal/config"
)

type Client struct {
	cfg        config.MpesaConfig
	httpClient *http.Client
}

func NewClient(cfg config.MpesaConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// InitiateSTKPush asks the provider to prompt phone for amount. reference ties
// the later callback back to the order; the provider echoes it in the callback
// URL and the CheckoutRequestID correlates the request itself.
func (c *Client) InitiateSTKPush(ctx context.Context, phone string, amount float64, reference string) (*STKPushResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.PassKey + timestamp))

	payload := map[string]any{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		// The provider only accepts whole currency units.
		"Amount":           int(amount),
		"PartyA":           phone,
		"PartyB":           c.cfg.ShortCode,
		"PhoneNumber":      phone,
		"CallBackURL":      c.cfg.CallbackURL + "/" + reference,
		"AccountReference": "Order_" + reference,
		"TransactionDesc":  "Zawadi Shop Payment",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("mpesa: failed to marshal stk push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("mpesa: failed to build stk push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mpesa: stk push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("reference", reference).Msg("mpesa: stk push rejected")
		return nil, fmt.Errorf("mpesa: stk push returned status %d", resp.StatusCode)
	}

	var pushResp STKPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pushResp); err != nil {
		return nil, fmt.Errorf("mpesa: failed to decode stk push response: %w", err)
	}
	if pushResp.CheckoutRequestID == "" {
		return nil, fmt.Errorf("mpesa: stk push response missing CheckoutRequestID")
	}

	log.Info().
		Str("reference", reference).
		Str("checkout_request_id", pushResp.CheckoutRequestID).
		Msg("mpesa: stk push initiated")

	return &pushResp, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", fmt.Errorf("mpesa: failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mpesa: token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mpesa: token request returned status %d", resp.StatusCode)
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("mpesa: failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("mpesa: token response missing access_token")
	}

	return tokenResp.AccessToken, nil
}
