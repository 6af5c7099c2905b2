package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sablecart/payment-service/internal/domain"
)

// Client is the only component that talks to Paystack. One configured client
// per process, handed to usecases via their constructors.
type Client struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
}

func NewClient(baseURL, secretKey, webhookSecret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:       baseURL,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type chargeData struct {
	Reference       string         `json:"reference"`
	Status          string         `json:"status"`
	Channel         string         `json:"channel"`
	PaidAt          string         `json:"paid_at"`
	GatewayResponse string         `json:"gateway_response"`
	Authorization   *Authorization `json:"authorization"`
}

type Authorization struct {
	AuthorizationCode string `json:"authorization_code"`
	CardType          string `json:"card_type"`
	Last4             string `json:"last4"`
	ExpMonth          string `json:"exp_month"`
	ExpYear           string `json:"exp_year"`
	Bank              string `json:"bank"`
	Reusable          bool   `json:"reusable"`
}

func (c *Client) Initialize(ctx context.Context, req domain.InitializeRequest) (*domain.InitializeResult, error) {
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive integer in minor units", domain.ErrGatewayRejected)
	}

	body := map[string]interface{}{
		"email":     req.Email,
		"amount":    req.AmountMinor,
		"reference": req.Reference,
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	env, _, err := c.post(ctx, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	var data initializeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode initialize response: %w", err)
	}

	return &domain.InitializeResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (c *Client) Verify(ctx context.Context, reference string) (*domain.ChargeResult, error) {
	env, raw, err := c.get(ctx, "/transaction/verify/"+reference)
	if err != nil {
		return nil, err
	}

	var data chargeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}
	if data.Reference == "" {
		data.Reference = reference
	}

	return toChargeResult(&data, raw), nil
}

func (c *Client) ChargeAuthorization(ctx context.Context, req domain.ChargeAuthorizationRequest) (*domain.ChargeResult, error) {
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive integer in minor units", domain.ErrGatewayRejected)
	}

	body := map[string]interface{}{
		"email":              req.Email,
		"amount":             req.AmountMinor,
		"reference":          req.Reference,
		"authorization_code": req.AuthorizationCode,
	}

	env, raw, err := c.post(ctx, "/transaction/charge_authorization", body)
	if err != nil {
		return nil, err
	}

	var data chargeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}
	if data.Reference == "" {
		data.Reference = req.Reference
	}

	return toChargeResult(&data, raw), nil
}

// VerifyWebhookSignature computes HMAC-SHA512 over the raw request bytes.
// Constant-time compare, constant behavior regardless of payload shape.
func (c *Client) VerifyWebhookSignature(rawBody []byte, signatureHeader string) bool {
	if signatureHeader == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*envelope, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) (*envelope, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*envelope, []byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading response: %v", domain.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return nil, nil, fmt.Errorf("%w: gateway returned %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: malformed gateway response: %v", domain.ErrGatewayUnavailable, err)
	}

	// 4xx or an explicit status=false means the gateway refused the request
	// itself; retrying will not help.
	if resp.StatusCode >= 400 || !env.Status {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrGatewayRejected, env.Message)
	}

	return &env, raw, nil
}

func toChargeResult(data *chargeData, raw []byte) *domain.ChargeResult {
	result := &domain.ChargeResult{
		Reference:       data.Reference,
		Status:          mapGatewayStatus(data.Status),
		Channel:         data.Channel,
		GatewayResponse: data.GatewayResponse,
		Raw:             raw,
	}
	if data.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, data.PaidAt); err == nil {
			result.PaidAt = &t
		}
	}
	if data.Authorization != nil && data.Authorization.AuthorizationCode != "" {
		result.Authorization = &domain.CardAuthorization{
			AuthorizationCode: data.Authorization.AuthorizationCode,
			CardType:          data.Authorization.CardType,
			Last4:             data.Authorization.Last4,
			ExpMonth:          data.Authorization.ExpMonth,
			ExpYear:           data.Authorization.ExpYear,
			Bank:              data.Authorization.Bank,
			Reusable:          data.Authorization.Reusable,
		}
	}
	return result
}

// mapGatewayStatus translates Paystack's status vocabulary into the internal
// closed set. Anything unrecognized is treated as still pending, which keeps
// the poll loop harmless when the gateway adds statuses.
func mapGatewayStatus(s string) domain.GatewayStatus {
	switch s {
	case "success":
		return domain.GatewayStatusSuccess
	case "failed", "reversed":
		return domain.GatewayStatusFailed
	case "abandoned":
		return domain.GatewayStatusAbandoned
	default:
		return domain.GatewayStatusPending
	}
}
