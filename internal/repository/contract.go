package repository

import (
	"context"

	"github.com/alimikegami/nextrans-go/internal/domain"
)

type PaymentRepository interface {
	HandleTrx(ctx context.Context, fn func(ctx context.Context, repo PaymentRepository) error) error

	AddPayment(ctx context.Context, data domain.Payment) (id int64, err error)
	AddPaymentItems(ctx context.Context, data []domain.PaymentItem) (err error)
	GetPaymentByOrderID(ctx context.Context, orderID string) (data domain.Payment, err error)
	// UpdatePaymentStatus applies data only while the stored status is one of
	// from, and reports whether it did.
	UpdatePaymentStatus(ctx context.Context, data domain.Payment, from []string) (updated bool, err error)
	GetPendingPayments(ctx context.Context, createdBefore int64, limit int) (data []domain.Payment, err error)
}
