package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alimikegami/nextrans-go/config"
	"github.com/alimikegami/nextrans-go/internal/domain"
	"github.com/alimikegami/nextrans-go/internal/dto"
	"github.com/alimikegami/nextrans-go/internal/repository"
	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/alimikegami/nextrans-go/pkg/notification"
	"github.com/alimikegami/nextrans-go/pkg/snap"
	"github.com/alimikegami/nextrans-go/pkg/transaction"
	"github.com/alimikegami/nextrans-go/pkg/utils"
	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const currencyIDR = "IDR"

type PaymentServiceImpl struct {
	repository    repository.PaymentRepository
	gateway       PaymentGateway
	publisher     EventPublisher
	notifications NotificationStore
	config        *config.Config
	now           func() time.Time
}

func CreatePaymentService(repository repository.PaymentRepository, gateway PaymentGateway, publisher EventPublisher, notifications NotificationStore, config *config.Config) PaymentService {
	return &PaymentServiceImpl{
		repository:    repository,
		gateway:       gateway,
		publisher:     publisher,
		notifications: notifications,
		config:        config,
		now:           time.Now,
	}
}

func (s *PaymentServiceImpl) CreatePayment(ctx context.Context, req dto.PaymentRequest) (resp dto.PaymentResponse, err error) {
	if err = transaction.Validate(req); err != nil {
		return
	}

	orderID, err := uuid.NewV7()
	if err != nil {
		return resp, fmt.Errorf("error generating order id: %w", err)
	}

	var grossAmount int64
	items := make([]midtrans.ItemDetails, len(req.Items))
	for i, item := range req.Items {
		items[i] = midtrans.ItemDetails{
			ID:    item.ID,
			Name:  item.Name,
			Price: item.Price,
			Qty:   item.Quantity,
		}
		grossAmount += item.Price * int64(item.Quantity)
	}

	builder := snap.NewTransactionBuilder().
		SetDetails(midtrans.TransactionDetails{
			OrderID:  orderID.String(),
			GrossAmt: grossAmount,
		}).
		SetAllItems(items).
		SetCustomer(midtrans.CustomerDetails{
			FName: req.Customer.FirstName,
			LName: req.Customer.LastName,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		}).
		AddEnabledPayments(req.EnabledPayments...)
	if s.config.NextransConfig.FinishURL != "" {
		builder.SetCallbacks(s.config.NextransConfig.FinishURL)
	}

	snapReq, err := builder.Build()
	if err != nil {
		return resp, fmt.Errorf("%w: %s", errs.ErrClient, err.Error())
	}

	created, err := s.gateway.CreateTransaction(ctx, snapReq)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "CreatePayment").Msg("")
		return
	}

	now := s.now().Unix()
	payment := domain.Payment{
		OrderID:     orderID.String(),
		UserID:      req.UserID,
		GrossAmount: decimal.NewFromInt(grossAmount),
		Currency:    currencyIDR,
		Status:      string(transaction.StatusPending),
		SnapToken:   created.Token,
		RedirectURL: created.RedirectURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repository.HandleTrx(ctx, func(ctx context.Context, repo repository.PaymentRepository) error {
		paymentID, err := repo.AddPayment(ctx, payment)
		if err != nil {
			return err
		}

		paymentItems := make([]domain.PaymentItem, len(req.Items))
		for i, item := range req.Items {
			paymentItems[i] = domain.PaymentItem{
				PaymentID: paymentID,
				ItemID:    item.ID,
				Name:      item.Name,
				Price:     item.Price,
				Quantity:  item.Quantity,
				CreatedAt: now,
				UpdatedAt: now,
			}
		}

		return repo.AddPaymentItems(ctx, paymentItems)
	})
	if err != nil {
		// The gateway already knows the order; its notifications for it will
		// be acknowledged and logged as unknown.
		log.Ctx(ctx).Error().Err(err).Str("component", "CreatePayment").Str("order_id", payment.OrderID).Msg("failed to store payment")
		return resp, errs.ErrInternalServer
	}

	return paymentResponse(payment), nil
}

func (s *PaymentServiceImpl) GetPayment(ctx context.Context, orderID string, userID uint64) (resp dto.PaymentResponse, err error) {
	payment, err := s.repository.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return
	}

	if payment.UserID != userID {
		return resp, errs.ErrNotFound
	}

	return paymentResponse(payment), nil
}

func paymentResponse(payment domain.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		OrderID:       payment.OrderID,
		TransactionID: payment.TransactionID,
		Status:        payment.Status,
		PaymentType:   payment.PaymentType,
		GrossAmount:   payment.GrossAmount.StringFixed(2),
		Currency:      payment.Currency,
		Token:         payment.SnapToken,
		RedirectURL:   payment.RedirectURL,
		PaidAt:        payment.PaidAt,
		CreatedAt:     payment.CreatedAt,
	}
}

func (s *PaymentServiceImpl) NotificationHooks() notification.Hooks {
	return notification.Hooks{
		OnInvalidBody:            s.onInvalidBody,
		OnInvalidSignature:       s.onInvalidSignature,
		BeforeTransactionRecheck: s.beforeTransactionRecheck,
		ProcessNotification:      s.processNotification,
		OnSuccess:                s.onSuccess,
	}
}

func notificationKey(n transaction.Notification) string {
	return fmt.Sprintf("notification:%s:%s:%s", n.TransactionID, n.TransactionStatus, n.StatusCode)
}

func (s *PaymentServiceImpl) onInvalidBody(r *http.Request, body []byte, cause error) (notification.Decision, error) {
	log.Ctx(r.Context()).Warn().Err(cause).
		Str("component", "PaymentNotification").
		Str("remote_addr", r.RemoteAddr).
		Int("body_size", len(body)).
		Msg("rejected notification body")

	return notification.Continue(), nil
}

func (s *PaymentServiceImpl) onInvalidSignature(ctx context.Context, n transaction.Notification, r *http.Request) (notification.Decision, error) {
	log.Ctx(ctx).Warn().
		Str("component", "PaymentNotification").
		Str("remote_addr", r.RemoteAddr).
		Str("order_id", n.OrderID).
		Msg("notification with an invalid signature")

	return notification.Continue(), nil
}

// beforeTransactionRecheck acknowledges notifications that were already
// processed without asking the gateway again.
func (s *PaymentServiceImpl) beforeTransactionRecheck(ctx context.Context, n transaction.Notification) (notification.Decision, error) {
	seen, err := s.notifications.Seen(ctx, notificationKey(n))
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("component", "PaymentNotification").Msg("failed to look up notification")
		return notification.Continue(), nil
	}

	if seen {
		log.Ctx(ctx).Info().
			Str("component", "PaymentNotification").
			Str("transaction_id", n.TransactionID).
			Str("transaction_status", string(n.TransactionStatus)).
			Msg("duplicate notification")
		return notification.Respond(notification.TextResponse(http.StatusOK, "")), nil
	}

	return notification.Continue(), nil
}

func (s *PaymentServiceImpl) processNotification(ctx context.Context, n, rechecked transaction.Notification) (notification.Decision, error) {
	if err := s.applyTransaction(ctx, rechecked, "notification"); err != nil {
		return notification.Continue(), err
	}

	return notification.Continue(), nil
}

func (s *PaymentServiceImpl) onSuccess(ctx context.Context, n, rechecked transaction.Notification) (notification.Decision, error) {
	if err := s.notifications.MarkProcessed(ctx, notificationKey(n)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("component", "PaymentNotification").Msg("failed to remember notification")
	}

	log.Ctx(ctx).Info().
		Str("component", "PaymentNotification").
		Str("order_id", rechecked.OrderID).
		Str("transaction_status", string(rechecked.TransactionStatus)).
		Msg("notification processed")

	return notification.Continue(), nil
}

// applyTransaction brings the stored payment in line with t, which must come
// from the gateway's status endpoint.
func (s *PaymentServiceImpl) applyTransaction(ctx context.Context, t transaction.Notification, source string) error {
	logger := log.Ctx(ctx).With().
		Str("component", "applyTransaction").
		Str("source", source).
		Str("order_id", t.OrderID).
		Logger()

	payment, err := s.repository.GetPaymentByOrderID(ctx, t.OrderID)
	if errors.Is(err, errs.ErrNotFound) {
		logger.Warn().Msg("transaction for an unknown order")
		return nil
	}
	if err != nil {
		return err
	}

	amount, err := t.GrossAmountDecimal()
	if err != nil || !amount.Equal(payment.GrossAmount) {
		logger.Error().
			Str("gross_amount", t.GrossAmount).
			Str("expected", payment.GrossAmount.StringFixed(2)).
			Msg("transaction amount does not match the payment")
		return nil
	}

	status := t.TransactionStatus
	if status.IsSuccess() && !t.FraudStatus.IsAccepted() {
		status = transaction.StatusDeny
	}

	update := domain.Payment{
		OrderID:       payment.OrderID,
		TransactionID: &t.TransactionID,
		PaymentType:   stringPtr(string(t.PaymentType)),
		Status:        string(status),
		FraudStatus:   stringPtr(string(t.FraudStatus)),
		UpdatedAt:     s.now().Unix(),
	}

	if status.IsSuccess() {
		paidAt := update.UpdatedAt
		if t.SettlementTime != "" {
			if ts, err := utils.ConvertDateTimeWibToUnixTimestamp(t.SettlementTime); err == nil {
				paidAt = ts
			}
		} else if ts, err := utils.ConvertDateTimeWibToUnixTimestamp(t.TransactionTime); err == nil {
			paidAt = ts
		}
		update.PaidAt = &paidAt
	}

	return s.transition(ctx, payment, update, source)
}

// transition moves payment to update.Status unless the stored status is
// already as recent, and publishes the change. Publishing shares the
// database transaction so a failed publish is retried with the next
// delivery.
func (s *PaymentServiceImpl) transition(ctx context.Context, payment, update domain.Payment, source string) error {
	status := transaction.Status(update.Status)
	if !domain.CanTransition(transaction.Status(payment.Status), status) {
		log.Ctx(ctx).Debug().
			Str("component", "transition").
			Str("order_id", payment.OrderID).
			Str("current", payment.Status).
			Str("received", update.Status).
			Msg("ignoring stale payment status")
		return nil
	}

	return s.repository.HandleTrx(ctx, func(ctx context.Context, repo repository.PaymentRepository) error {
		updated, err := repo.UpdatePaymentStatus(ctx, update, domain.StatusesBefore(status))
		if err != nil {
			return err
		}
		if !updated {
			return nil
		}

		return s.publisher.Publish(ctx, payment.OrderID, dto.KafkaMessage{
			EventType: dto.EventPaymentStatusChanged,
			Data: dto.PaymentStatusChanged{
				OrderID:        payment.OrderID,
				TransactionID:  stringValue(update.TransactionID),
				PreviousStatus: payment.Status,
				Status:         update.Status,
				FraudStatus:    stringValue(update.FraudStatus),
				PaymentType:    stringValue(update.PaymentType),
				GrossAmount:    payment.GrossAmount.StringFixed(2),
				Source:         source,
				OccurredAt:     update.UpdatedAt,
			},
		})
	})
}

// ReconcilePendingPayments asks the gateway about payments that stayed
// pending for too long, in case their notifications were lost.
func (s *PaymentServiceImpl) ReconcilePendingPayments() {
	conf := s.config.ReconcileConfig
	logger := log.With().Str("component", "ReconcilePendingPayments").Logger()

	ctx, cancel := context.WithTimeout(logger.WithContext(context.Background()), conf.Interval)
	defer cancel()

	now := s.now()
	payments, err := s.repository.GetPendingPayments(ctx, now.Add(-conf.PendingAge).Unix(), conf.BatchSize)
	if err != nil {
		logger.Error().Err(err).Msg("")
		return
	}

	for _, payment := range payments {
		t, err := s.gateway.TransactionStatus(ctx, payment.OrderID)
		switch {
		case err == nil:
			if err := s.applyTransaction(ctx, t, "reconcile"); err != nil {
				logger.Error().Err(err).Str("order_id", payment.OrderID).Msg("failed to apply transaction status")
			}
		case errors.Is(err, errs.ErrTransactionNotFound):
			// No payment method was chosen yet, so the gateway has no
			// transaction for the order.
			if payment.CreatedAt >= now.Add(-conf.ExpireAfter).Unix() {
				continue
			}
			if err := s.expire(ctx, payment); err != nil {
				logger.Error().Err(err).Str("order_id", payment.OrderID).Msg("failed to expire payment")
			}
		case errors.Is(err, errs.ErrGatewayFailure):
			logger.Warn().Err(err).Msg("gateway unavailable, stopping reconciliation")
			return
		default:
			// The record exists but could not be read, e.g. a payment type
			// this service does not know. The payment stays pending and is
			// retried on the next run.
			logger.Error().Err(err).Str("order_id", payment.OrderID).Msg("failed to read transaction status")
		}
	}
}

func (s *PaymentServiceImpl) expire(ctx context.Context, payment domain.Payment) error {
	return s.transition(ctx, payment, domain.Payment{
		OrderID:   payment.OrderID,
		Status:    string(transaction.StatusExpire),
		UpdatedAt: s.now().Unix(),
	}, "reconcile")
}

func stringPtr(s string) *string {
	return &s
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
