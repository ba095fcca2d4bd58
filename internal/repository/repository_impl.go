package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alimikegami/nextrans-go/internal/domain"
	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type PaymentRepositoryImpl struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

func CreatePaymentRepository(db *sqlx.DB) PaymentRepository {
	return &PaymentRepositoryImpl{
		db: db,
	}
}

type queryer interface {
	sqlx.ExtContext
	PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// conn is the transaction when running inside HandleTrx.
func (r *PaymentRepositoryImpl) conn() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *PaymentRepositoryImpl) AddPayment(ctx context.Context, data domain.Payment) (id int64, err error) {
	nstmt, err := r.conn().PrepareNamedContext(ctx, "INSERT INTO payments(order_id, user_id, gross_amount, currency, status, snap_token, redirect_url, created_at, updated_at) VALUES (:order_id, :user_id, :gross_amount, :currency, :status, :snap_token, :redirect_url, :created_at, :updated_at) returning id")
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddPayment").Msg("")
		return
	}
	defer nstmt.Close()

	err = nstmt.GetContext(ctx, &data.ID, data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddPayment").Msg("")
		return
	}

	return data.ID, nil
}

func (r *PaymentRepositoryImpl) AddPaymentItems(ctx context.Context, data []domain.PaymentItem) (err error) {
	if len(data) == 0 {
		return nil
	}

	_, err = r.conn().NamedExecContext(ctx, "INSERT INTO payment_items(payment_id, item_id, name, price, quantity, created_at, updated_at) VALUES (:payment_id, :item_id, :name, :price, :quantity, :created_at, :updated_at)", data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddPaymentItems").Msg("")
		return
	}

	return nil
}

func (r *PaymentRepositoryImpl) GetPaymentByOrderID(ctx context.Context, orderID string) (data domain.Payment, err error) {
	err = sqlx.GetContext(ctx, r.conn(), &data, "SELECT id, order_id, user_id, transaction_id, gross_amount, currency, payment_type, status, fraud_status, snap_token, redirect_url, paid_at, created_at, updated_at, deleted_at FROM payments WHERE order_id = $1 AND deleted_at IS NULL", orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return data, errs.ErrNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("component", "GetPaymentByOrderID").Msg("")
		return data, errs.ErrInternalServer
	}

	err = sqlx.SelectContext(ctx, r.conn(), &data.PaymentItems, "SELECT id, payment_id, item_id, name, price, quantity, created_at, updated_at FROM payment_items WHERE payment_id = $1 ORDER BY id", data.ID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetPaymentByOrderID").Msg("")
		return data, errs.ErrInternalServer
	}

	return
}

func (r *PaymentRepositoryImpl) UpdatePaymentStatus(ctx context.Context, data domain.Payment, from []string) (updated bool, err error) {
	result, err := r.conn().ExecContext(ctx,
		`UPDATE payments
		SET status = $1, transaction_id = COALESCE($2, transaction_id), payment_type = COALESCE($3, payment_type),
			fraud_status = COALESCE($4, fraud_status), paid_at = COALESCE($5, paid_at), updated_at = $6
		WHERE order_id = $7 AND deleted_at IS NULL AND status = ANY($8)`,
		data.Status, data.TransactionID, data.PaymentType, data.FraudStatus, data.PaidAt, data.UpdatedAt, data.OrderID, pq.Array(from))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "UpdatePaymentStatus").Msg("")
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "UpdatePaymentStatus").Msg("")
		return false, err
	}

	return affected > 0, nil
}

func (r *PaymentRepositoryImpl) GetPendingPayments(ctx context.Context, createdBefore int64, limit int) (data []domain.Payment, err error) {
	err = sqlx.SelectContext(ctx, r.conn(), &data, "SELECT id, order_id, user_id, transaction_id, gross_amount, currency, payment_type, status, fraud_status, snap_token, redirect_url, paid_at, created_at, updated_at, deleted_at FROM payments WHERE status = 'pending' AND created_at < $1 AND deleted_at IS NULL ORDER BY created_at LIMIT $2", createdBefore, limit)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetPendingPayments").Msg("")
		return nil, err
	}

	return
}

func (r *PaymentRepositoryImpl) HandleTrx(ctx context.Context, fn func(ctx context.Context, repo PaymentRepository) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	txRepo := &PaymentRepositoryImpl{
		db: r.db,
		tx: tx,
	}

	err = fn(ctx, txRepo)

	return err
}
