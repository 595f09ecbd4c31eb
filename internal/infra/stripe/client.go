// Package stripe connects host payout accounts and charges tenants through
// Stripe Connect.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	stripego "github.com/stripe/stripe-go/v76"
	stripeclient "github.com/stripe/stripe-go/v76/client"

	"tinyhouse/internal/app/services/reservation"
	"tinyhouse/internal/app/services/wallet"
)

// ApplicationFeePercent is kept by the platform on every charge.
const ApplicationFeePercent = 5

var (
	ErrNoAccount     = errors.New("stripe: connect response has no account id")
	ErrChargeFailed  = errors.New("stripe: charge was not successful")
	ErrMissingSource = errors.New("stripe: payment source is required")
)

type Config struct {
	ClientID  string
	SecretKey string
	Currency  string

	// Overridable in tests. Empty URLs use the Stripe defaults.
	ConnectURL string
	APIURL     string
	HTTPClient *http.Client
}

type Client struct {
	config Config
	api    *stripeclient.API
}

func NewClient(config Config) *Client {
	if config.Currency == "" {
		config.Currency = "usd"
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	api := &stripeclient.API{}
	api.Init(config.SecretKey, &stripego.Backends{
		API:     backend(stripego.APIBackend, config.APIURL, config.HTTPClient),
		Connect: backend(stripego.ConnectBackend, config.ConnectURL, config.HTTPClient),
		Uploads: backend(stripego.UploadsBackend, "", config.HTTPClient),
	})
	return &Client{config: config, api: api}
}

// backend builds a Stripe backend with the library retries turned off.
func backend(kind stripego.SupportedBackend, url string, hc *http.Client) stripego.Backend {
	cfg := &stripego.BackendConfig{
		HTTPClient:        hc,
		MaxNetworkRetries: stripego.Int64(0),
	}
	if url != "" {
		cfg.URL = stripego.String(url)
	}
	return stripego.GetBackendWithConfig(kind, cfg)
}

// Connect exchanges a Connect authorization code for the host's account id.
func (c *Client) Connect(ctx context.Context, code string) (string, error) {
	params := &stripego.OAuthTokenParams{
		GrantType:    stripego.String("authorization_code"),
		Code:         stripego.String(code),
		ClientSecret: stripego.String(c.config.SecretKey),
	}
	params.Context = ctx
	token, err := c.api.OAuth.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe connect: %w", err)
	}
	if token.StripeUserID == "" {
		return "", ErrNoAccount
	}
	return token.StripeUserID, nil
}

// Disconnect revokes the platform's access to the account.
func (c *Client) Disconnect(ctx context.Context, walletID string) error {
	params := &stripego.DeauthorizeParams{
		ClientID:     stripego.String(c.config.ClientID),
		StripeUserID: stripego.String(walletID),
	}
	params.Context = ctx
	if _, err := c.api.OAuth.Del(params); err != nil {
		return fmt.Errorf("stripe disconnect: %w", err)
	}
	return nil
}

// Charge creates a direct charge on the host's account and returns its id.
func (c *Client) Charge(ctx context.Context, params reservation.ChargeParams) (string, error) {
	if strings.TrimSpace(params.Source) == "" {
		return "", ErrMissingSource
	}
	charge := &stripego.ChargeParams{
		Amount:               stripego.Int64(params.Amount),
		Currency:             stripego.String(c.config.Currency),
		ApplicationFeeAmount: stripego.Int64(ApplicationFee(params.Amount)),
	}
	if params.Description != "" {
		charge.Description = stripego.String(params.Description)
	}
	if err := charge.SetSource(params.Source); err != nil {
		return "", fmt.Errorf("stripe charge: %w", err)
	}
	charge.Context = ctx
	charge.SetStripeAccount(params.Destination)
	charge.SetIdempotencyKey(uuid.NewString())

	ch, err := c.api.Charges.New(charge)
	if err != nil {
		return "", fmt.Errorf("stripe charge: %w", err)
	}
	if ch.Status != stripego.ChargeStatusSucceeded {
		return "", fmt.Errorf("%w: status %q", ErrChargeFailed, ch.Status)
	}
	return ch.ID, nil
}

// ApplicationFee rounds the platform share to the nearest cent.
func ApplicationFee(amount int64) int64 {
	return (amount*ApplicationFeePercent + 50) / 100
}

var (
	_ reservation.PaymentGateway = (*Client)(nil)
	_ wallet.Provider            = (*Client)(nil)
)
