package stripe

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"tinyhouse/internal/app/services/reservation"
	"tinyhouse/internal/app/services/wallet"
)

// DevGateway accepts every code and charge. It backs local runs without
// Stripe credentials.
type DevGateway struct{}

func (DevGateway) Connect(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrNoAccount
	}
	return "acct_dev_" + strings.TrimSpace(code), nil
}

func (DevGateway) Disconnect(ctx context.Context, walletID string) error { return nil }

func (DevGateway) Charge(ctx context.Context, params reservation.ChargeParams) (string, error) {
	return "ch_dev_" + uuid.NewString(), nil
}

var (
	_ reservation.PaymentGateway = DevGateway{}
	_ wallet.Provider            = DevGateway{}
)
