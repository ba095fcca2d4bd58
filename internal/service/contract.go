package service

import (
	"context"

	"github.com/alimikegami/nextrans-go/internal/dto"
	"github.com/alimikegami/nextrans-go/pkg/notification"
	"github.com/alimikegami/nextrans-go/pkg/snap"
	"github.com/alimikegami/nextrans-go/pkg/transaction"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, req dto.PaymentRequest) (resp dto.PaymentResponse, err error)
	GetPayment(ctx context.Context, orderID string, userID uint64) (resp dto.PaymentResponse, err error)
	NotificationHooks() notification.Hooks
	ReconcilePendingPayments()
}

// PaymentGateway is the part of the Snap client the service uses.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, req snap.Request) (snap.CreateTransactionResponse, error)
	TransactionStatus(ctx context.Context, transactionID string) (transaction.Notification, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, msg dto.KafkaMessage) error
}

// NotificationStore remembers notifications that were fully processed.
type NotificationStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key string) error
}
