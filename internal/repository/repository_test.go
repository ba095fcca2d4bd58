package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alimikegami/nextrans-go/config"
	"github.com/alimikegami/nextrans-go/internal/domain"
	"github.com/alimikegami/nextrans-go/internal/infrastructure/database/postgres"
	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// RepositoryTestSuite runs against the database configured through DB_*.
type RepositoryTestSuite struct {
	suite.Suite
	db   *sqlx.DB
	repo PaymentRepository
}

func (s *RepositoryTestSuite) SetupSuite() {
	conf := config.CreateNewConfig()

	db, err := postgres.GetDBInstance(conf.PostgreSQLConfig)
	s.Require().NoError(err)
	s.Require().NoError(postgres.Migrate(context.Background(), db))

	s.db = db
	s.repo = CreatePaymentRepository(db)
}

func (s *RepositoryTestSuite) newPayment(createdAt int64) domain.Payment {
	ctx := context.Background()
	payment := domain.Payment{
		OrderID:     uuid.NewString(),
		UserID:      7,
		GrossAmount: decimal.RequireFromString("25000.50"),
		Currency:    "IDR",
		Status:      "pending",
		SnapToken:   "snap-token",
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v4/redirection/snap-token",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	err := s.repo.HandleTrx(ctx, func(ctx context.Context, repo PaymentRepository) error {
		id, err := repo.AddPayment(ctx, payment)
		if err != nil {
			return err
		}
		payment.ID = id
		return repo.AddPaymentItems(ctx, []domain.PaymentItem{
			{PaymentID: id, ItemID: "sku-1", Name: "Coffee", Price: 25000, Quantity: 1, CreatedAt: createdAt, UpdatedAt: createdAt},
		})
	})
	s.Require().NoError(err)

	return payment
}

func (s *RepositoryTestSuite) TestAddAndGetPayment() {
	payment := s.newPayment(time.Now().Unix())

	stored, err := s.repo.GetPaymentByOrderID(context.Background(), payment.OrderID)
	s.Require().NoError(err)
	s.True(stored.GrossAmount.Equal(payment.GrossAmount))
	s.Nil(stored.TransactionID)
	s.Len(stored.PaymentItems, 1)
}

func (s *RepositoryTestSuite) TestGetPaymentByOrderID_NotFound() {
	_, err := s.repo.GetPaymentByOrderID(context.Background(), uuid.NewString())
	s.ErrorIs(err, errs.ErrNotFound)
}

func (s *RepositoryTestSuite) TestUpdatePaymentStatus_OnlyFromOlderStatuses() {
	ctx := context.Background()
	payment := s.newPayment(time.Now().Unix())
	trxID := "trx-" + payment.OrderID

	updated, err := s.repo.UpdatePaymentStatus(ctx, domain.Payment{
		OrderID:       payment.OrderID,
		TransactionID: &trxID,
		Status:        "settlement",
		UpdatedAt:     time.Now().Unix(),
	}, domain.StatusesBefore("settlement"))
	s.Require().NoError(err)
	s.True(updated)

	updated, err = s.repo.UpdatePaymentStatus(ctx, domain.Payment{
		OrderID:   payment.OrderID,
		Status:    "pending",
		UpdatedAt: time.Now().Unix(),
	}, domain.StatusesBefore("pending"))
	s.Require().NoError(err)
	s.False(updated)

	stored, err := s.repo.GetPaymentByOrderID(ctx, payment.OrderID)
	s.Require().NoError(err)
	s.Equal("settlement", stored.Status)
	s.Equal(trxID, *stored.TransactionID)
}

func (s *RepositoryTestSuite) TestHandleTrx_RollsBack() {
	ctx := context.Background()
	payment := s.newPayment(time.Now().Unix())

	err := s.repo.HandleTrx(ctx, func(ctx context.Context, repo PaymentRepository) error {
		if _, err := repo.UpdatePaymentStatus(ctx, domain.Payment{OrderID: payment.OrderID, Status: "expire", UpdatedAt: time.Now().Unix()}, []string{"pending"}); err != nil {
			return err
		}
		return errs.ErrInternalServer
	})
	s.ErrorIs(err, errs.ErrInternalServer)

	stored, err := s.repo.GetPaymentByOrderID(ctx, payment.OrderID)
	s.Require().NoError(err)
	s.Equal("pending", stored.Status)
}

func (s *RepositoryTestSuite) TestGetPendingPayments() {
	old := s.newPayment(time.Now().Add(-time.Hour).Unix())
	s.newPayment(time.Now().Unix())

	payments, err := s.repo.GetPendingPayments(context.Background(), time.Now().Add(-30*time.Minute).Unix(), 1000)
	s.Require().NoError(err)

	var found bool
	for _, p := range payments {
		s.Less(p.CreatedAt, time.Now().Add(-30*time.Minute).Unix())
		found = found || p.OrderID == old.OrderID
	}
	s.True(found)
}

func TestRepositoryTestSuite(t *testing.T) {
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST is not set")
	}
	suite.Run(t, new(RepositoryTestSuite))
}
