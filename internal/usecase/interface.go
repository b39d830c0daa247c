package usecase

import (
	"context"

	"mortgage-ledger/internal/domain"
)

// PaymentSource defines the interface for fetching ledger payments.
// The processor depends on this interface, not on a concrete implementation.
//
//go:generate mockgen -destination=mocks/mock_source.go -source=interface.go PaymentSource
type PaymentSource interface {
	Payments(ctx context.Context, path string) ([]domain.Payment, error)
}
