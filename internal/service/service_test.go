package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alimikegami/nextrans-go/config"
	"github.com/alimikegami/nextrans-go/internal/domain"
	"github.com/alimikegami/nextrans-go/internal/dto"
	"github.com/alimikegami/nextrans-go/internal/repository"
	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/alimikegami/nextrans-go/pkg/snap"
	"github.com/alimikegami/nextrans-go/pkg/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) HandleTrx(ctx context.Context, fn func(ctx context.Context, repo repository.PaymentRepository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) AddPayment(ctx context.Context, data domain.Payment) (int64, error) {
	args := m.Called(ctx, data)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) AddPaymentItems(ctx context.Context, data []domain.PaymentItem) error {
	return m.Called(ctx, data).Error(0)
}

func (m *mockRepository) GetPaymentByOrderID(ctx context.Context, orderID string) (domain.Payment, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(domain.Payment), args.Error(1)
}

func (m *mockRepository) UpdatePaymentStatus(ctx context.Context, data domain.Payment, from []string) (bool, error) {
	args := m.Called(ctx, data, from)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) GetPendingPayments(ctx context.Context, createdBefore int64, limit int) ([]domain.Payment, error) {
	args := m.Called(ctx, createdBefore, limit)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateTransaction(ctx context.Context, req snap.Request) (snap.CreateTransactionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(snap.CreateTransactionResponse), args.Error(1)
}

func (m *mockGateway) TransactionStatus(ctx context.Context, transactionID string) (transaction.Notification, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).(transaction.Notification), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, key string, msg dto.KafkaMessage) error {
	return m.Called(ctx, key, msg).Error(0)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Seen(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) MarkProcessed(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type PaymentServiceTestSuite struct {
	suite.Suite
	repository *mockRepository
	gateway    *mockGateway
	publisher  *mockPublisher
	store      *mockStore
	service    *PaymentServiceImpl
}

func (s *PaymentServiceTestSuite) SetupTest() {
	s.repository = &mockRepository{}
	s.gateway = &mockGateway{}
	s.publisher = &mockPublisher{}
	s.store = &mockStore{}

	conf := &config.Config{
		NextransConfig: config.NextransConfig{FinishURL: "https://shop.example/finish"},
		ReconcileConfig: config.ReconcileConfig{
			Interval:    time.Minute,
			PendingAge:  15 * time.Minute,
			ExpireAfter: 24 * time.Hour,
			BatchSize:   10,
		},
	}

	s.service = CreatePaymentService(s.repository, s.gateway, s.publisher, s.store, conf).(*PaymentServiceImpl)
	s.service.now = func() time.Time { return now }
}

func (s *PaymentServiceTestSuite) TearDownTest() {
	s.repository.AssertExpectations(s.T())
	s.gateway.AssertExpectations(s.T())
	s.publisher.AssertExpectations(s.T())
	s.store.AssertExpectations(s.T())
}

func pendingPayment(orderID string) domain.Payment {
	return domain.Payment{
		ID:          1,
		OrderID:     orderID,
		UserID:      7,
		GrossAmount: decimal.NewFromInt(10000),
		Currency:    "IDR",
		Status:      string(transaction.StatusPending),
		CreatedAt:   now.Add(-time.Hour).Unix(),
	}
}

func gopayTransaction(orderID string, status transaction.Status) transaction.Notification {
	return transaction.Notification{
		Envelope: transaction.Envelope{
			TransactionTime:   "2024-03-01 18:55:00",
			TransactionStatus: status,
			TransactionID:     "trx-" + orderID,
			StatusMessage:     stringPtr("midtrans payment notification"),
			StatusCode:        "200",
			SignatureKey:      "signature",
			OrderID:           orderID,
			MerchantID:        "G141532850",
			GrossAmount:       "10000.00",
			FraudStatus:       transaction.FraudStatusAccept,
			Currency:          "IDR",
			SettlementTime:    "2024-03-01 19:00:00",
			PaymentType:       transaction.PaymentTypeGoPay,
		},
		Method: transaction.GoPay{},
	}
}

func (s *PaymentServiceTestSuite) TestCreatePayment() {
	req := dto.PaymentRequest{
		Items: []dto.PaymentItem{
			{ID: "sku-1", Name: "Coffee", Price: 10000, Quantity: 2},
			{ID: "sku-2", Name: "Bread", Price: 5000, Quantity: 2},
		},
		Customer: dto.Customer{FirstName: "Budi", Email: "budi@example.com"},
		UserID:   7,
	}

	s.gateway.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(r snap.Request) bool {
		return r.TransactionDetails.GrossAmt == 30000 &&
			len(r.Items) == 2 &&
			r.CustomerDetails.Email == "budi@example.com" &&
			r.Callbacks != nil && r.Callbacks.Finish == "https://shop.example/finish"
	})).Return(snap.CreateTransactionResponse{Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.com/snap/v4/redirection/snap-token"}, nil)

	s.repository.On("AddPayment", mock.Anything, mock.MatchedBy(func(p domain.Payment) bool {
		return p.OrderID != "" &&
			p.UserID == 7 &&
			p.GrossAmount.Equal(decimal.NewFromInt(30000)) &&
			p.Status == "pending" &&
			p.SnapToken == "snap-token"
	})).Return(int64(42), nil)
	s.repository.On("AddPaymentItems", mock.Anything, mock.MatchedBy(func(items []domain.PaymentItem) bool {
		return len(items) == 2 && items[0].PaymentID == 42 && items[1].ItemID == "sku-2"
	})).Return(nil)

	resp, err := s.service.CreatePayment(context.Background(), req)
	s.Require().NoError(err)
	s.NotEmpty(resp.OrderID)
	s.Equal("pending", resp.Status)
	s.Equal("30000.00", resp.GrossAmount)
	s.Equal("IDR", resp.Currency)
	s.Equal("snap-token", resp.Token)
	s.Equal(now.Unix(), resp.CreatedAt)
}

func (s *PaymentServiceTestSuite) TestCreatePayment_InvalidRequest() {
	_, err := s.service.CreatePayment(context.Background(), dto.PaymentRequest{
		Customer: dto.Customer{FirstName: "Budi", Email: "not-an-email"},
	})
	s.ErrorIs(err, errs.ErrValidation)
	s.gateway.AssertNotCalled(s.T(), "CreateTransaction", mock.Anything, mock.Anything)
}

func (s *PaymentServiceTestSuite) TestCreatePayment_GatewayFailure() {
	s.gateway.On("CreateTransaction", mock.Anything, mock.Anything).
		Return(snap.CreateTransactionResponse{}, fmt.Errorf("%w: connection refused", errs.ErrGatewayFailure))

	_, err := s.service.CreatePayment(context.Background(), dto.PaymentRequest{
		Items:    []dto.PaymentItem{{ID: "sku-1", Name: "Coffee", Price: 10000, Quantity: 1}},
		Customer: dto.Customer{FirstName: "Budi", Email: "budi@example.com"},
	})
	s.ErrorIs(err, errs.ErrGatewayFailure)
	s.repository.AssertNotCalled(s.T(), "AddPayment", mock.Anything, mock.Anything)
}

func (s *PaymentServiceTestSuite) TestGetPayment_OtherUser() {
	s.repository.On("GetPaymentByOrderID", mock.Anything, "order-1").Return(pendingPayment("order-1"), nil)

	_, err := s.service.GetPayment(context.Background(), "order-1", 8)
	s.ErrorIs(err, errs.ErrNotFound)

	resp, err := s.service.GetPayment(context.Background(), "order-1", 7)
	s.Require().NoError(err)
	s.Equal("10000.00", resp.GrossAmount)
}

func (s *PaymentServiceTestSuite) TestBeforeTransactionRecheck_Duplicate() {
	n := gopayTransaction("order-1", transaction.StatusSettlement)
	s.store.On("Seen", mock.Anything, "notification:trx-order-1:settlement:200").Return(true, nil)

	decision, err := s.service.NotificationHooks().BeforeTransactionRecheck(context.Background(), n)
	s.Require().NoError(err)

	resp, ok := decision.Response()
	s.Require().True(ok)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *PaymentServiceTestSuite) TestBeforeTransactionRecheck_StoreErrorContinues() {
	n := gopayTransaction("order-1", transaction.StatusSettlement)
	s.store.On("Seen", mock.Anything, mock.Anything).Return(false, errors.New("connection refused"))

	decision, err := s.service.NotificationHooks().BeforeTransactionRecheck(context.Background(), n)
	s.Require().NoError(err)

	_, ok := decision.Response()
	s.False(ok)
}

func (s *PaymentServiceTestSuite) TestProcessNotification_Settlement() {
	n := gopayTransaction("order-1", transaction.StatusSettlement)
	s.repository.On("GetPaymentByOrderID", mock.Anything, "order-1").Return(pendingPayment("order-1"), nil)
	s.repository.On("UpdatePaymentStatus", mock.Anything, mock.MatchedBy(func(p domain.Payment) bool {
		// 2024-03-01 19:00:00 WIB
		return p.Status == "settlement" && *p.TransactionID == "trx-order-1" && p.PaidAt != nil && *p.PaidAt == 1709294400
	}), mock.MatchedBy(func(from []string) bool {
		return contains(from, "pending") && !contains(from, "settlement")
	})).Return(true, nil)
	s.publisher.On("Publish", mock.Anything, "order-1", mock.MatchedBy(func(msg dto.KafkaMessage) bool {
		data, ok := msg.Data.(dto.PaymentStatusChanged)
		return ok && msg.EventType == dto.EventPaymentStatusChanged &&
			data.PreviousStatus == "pending" && data.Status == "settlement" && data.Source == "notification"
	})).Return(nil)

	_, err := s.service.NotificationHooks().ProcessNotification(context.Background(), n, n)
	s.NoError(err)
}

func (s *PaymentServiceTestSuite) TestProcessNotification_StaleStatusIgnored() {
	payment := pendingPayment("order-1")
	payment.Status = "settlement"
	s.repository.On("GetPaymentByOrderID", mock.Anything, "order-1").Return(payment, nil)

	n := gopayTransaction("order-1", transaction.StatusPending)
	_, err := s.service.NotificationHooks().ProcessNotification(context.Background(), n, n)
	s.NoError(err)
	s.repository.AssertNotCalled(s.T(), "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PaymentServiceTestSuite) TestProcessNotification_ConcurrentUpdateNotPublished() {
	s.repository.On("GetPaymentByOrderID", mock.Anything, "order-1").Return(pendingPayment("order-1"), nil)
	s.repository.On("UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	n := gopayTransaction("order-1", transaction.StatusSettlement)
	_, err := s.service.NotificationHooks().ProcessNotification(context.Background(), n, n)
	s.NoError(err)
	s.publisher.AssertNotCalled(s.T(), "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PaymentServiceTestSuite) TestProcessNotification_UnknownOrder() {
	s.repository.On("GetPaymentByOrderID", mock.Anything, "order-9").Return(domain.Payment{}, errs.ErrNotFound)

	n := gopayTransaction("order-9", transaction.StatusSettlement)
	_, err := s.service.NotificationHooks().ProcessNotification(context.Background(), n, n)
	s.NoError(err)
}

func (s *PaymentServiceTestSuite) TestProcessNotification_FraudIsDenied() {
	n := gopayTransaction("order-1", transaction.StatusCapture)
	n.FraudStatus = transaction.FraudStatusDeny

	s.repository.On("GetPaymentByOrderID", mock.Anything, "order-1").Return(pendingPayment("order-1"), nil)
	s.repository.On("UpdatePaymentStatus", mock.Anything, mock.MatchedBy(func(p domain.Payment) bool {
		return p.Status == "deny" && p.PaidAt == nil && *p.FraudStatus == "deny"
	}), mock.Anything).Return(true, nil)
	s.publisher.On("Publish", mock.Anything, "order-1", mock.Anything).Return(nil)

	_, err := s.service.NotificationHooks().ProcessNotification(context.Background(), n, n)
	s.NoError(err)
}

func (s *PaymentServiceTestSuite) TestProcessNotification_AmountMismatch() {
	n := gopayTransaction("order-1", transaction.StatusSettlement)
	n.GrossAmount = "1.00"

	s.repository.On("GetPaymentByOrderID", mock.Anything, "order-1").Return(pendingPayment("order-1"), nil)

	_, err := s.service.NotificationHooks().ProcessNotification(context.Background(), n, n)
	s.NoError(err)
	s.repository.AssertNotCalled(s.T(), "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PaymentServiceTestSuite) TestProcessNotification_PublishFailure() {
	s.repository.On("GetPaymentByOrderID", mock.Anything, "order-1").Return(pendingPayment("order-1"), nil)
	s.repository.On("UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	s.publisher.On("Publish", mock.Anything, "order-1", mock.Anything).Return(errors.New("leader not available"))

	n := gopayTransaction("order-1", transaction.StatusSettlement)
	_, err := s.service.NotificationHooks().ProcessNotification(context.Background(), n, n)
	s.ErrorContains(err, "leader not available")
}

func (s *PaymentServiceTestSuite) TestOnSuccess_MarksNotification() {
	n := gopayTransaction("order-1", transaction.StatusSettlement)
	s.store.On("MarkProcessed", mock.Anything, "notification:trx-order-1:settlement:200").Return(nil)

	_, err := s.service.NotificationHooks().OnSuccess(context.Background(), n, n)
	s.NoError(err)
}

func (s *PaymentServiceTestSuite) TestInvalidInputHooksContinue() {
	hooks := s.service.NotificationHooks()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/payments/notifications", nil)

	decision, err := hooks.OnInvalidBody(r, []byte("{"), errs.ErrMalformedBody)
	s.NoError(err)
	_, ok := decision.Response()
	s.False(ok)

	decision, err = hooks.OnInvalidSignature(context.Background(), gopayTransaction("order-1", transaction.StatusSettlement), r)
	s.NoError(err)
	_, ok = decision.Response()
	s.False(ok)
}

func (s *PaymentServiceTestSuite) TestReconcilePendingPayments() {
	abandoned := pendingPayment("order-2")
	abandoned.CreatedAt = now.Add(-48 * time.Hour).Unix()
	fresh := pendingPayment("order-3")

	s.repository.On("GetPendingPayments", mock.Anything, now.Add(-15*time.Minute).Unix(), 10).
		Return([]domain.Payment{pendingPayment("order-1"), abandoned, fresh}, nil)

	s.gateway.On("TransactionStatus", mock.Anything, "order-1").Return(gopayTransaction("order-1", transaction.StatusSettlement), nil)
	s.repository.On("GetPaymentByOrderID", mock.Anything, "order-1").Return(pendingPayment("order-1"), nil)
	s.repository.On("UpdatePaymentStatus", mock.Anything, mock.MatchedBy(func(p domain.Payment) bool {
		return p.OrderID == "order-1" && p.Status == "settlement"
	}), mock.Anything).Return(true, nil)
	s.publisher.On("Publish", mock.Anything, "order-1", mock.MatchedBy(func(msg dto.KafkaMessage) bool {
		return msg.Data.(dto.PaymentStatusChanged).Source == "reconcile"
	})).Return(nil)

	notFound := statusError(s.T(), []byte(`{"status_code":"404","status_message":"Transaction doesn't exist.","id":"b2e4b0b1"}`), nil)
	s.gateway.On("TransactionStatus", mock.Anything, "order-2").Return(transaction.Notification{}, notFound)
	s.repository.On("UpdatePaymentStatus", mock.Anything, mock.MatchedBy(func(p domain.Payment) bool {
		return p.OrderID == "order-2" && p.Status == "expire" && p.TransactionID == nil
	}), mock.Anything).Return(true, nil)
	s.publisher.On("Publish", mock.Anything, "order-2", mock.Anything).Return(nil)

	s.gateway.On("TransactionStatus", mock.Anything, "order-3").Return(transaction.Notification{}, notFound)

	s.service.ReconcilePendingPayments()
}

func (s *PaymentServiceTestSuite) TestReconcilePendingPayments_HTTPNotFoundExpires() {
	abandoned := pendingPayment("order-1")
	abandoned.CreatedAt = now.Add(-48 * time.Hour).Unix()

	s.repository.On("GetPendingPayments", mock.Anything, mock.Anything, 10).Return([]domain.Payment{abandoned}, nil)
	s.gateway.On("TransactionStatus", mock.Anything, "order-1").Return(transaction.Notification{},
		statusError(s.T(), nil, &errs.GatewayError{Method: http.MethodGet, StatusCode: http.StatusNotFound, Body: `{}`}))
	s.repository.On("UpdatePaymentStatus", mock.Anything, mock.MatchedBy(func(p domain.Payment) bool {
		return p.Status == "expire"
	}), mock.Anything).Return(true, nil)
	s.publisher.On("Publish", mock.Anything, "order-1", mock.Anything).Return(nil)

	s.service.ReconcilePendingPayments()
}

func (s *PaymentServiceTestSuite) TestReconcilePendingPayments_UnreadableStatusIsNotExpired() {
	abandoned := pendingPayment("order-1")
	abandoned.CreatedAt = now.Add(-48 * time.Hour).Unix()

	settled, err := json.Marshal(map[string]any{
		"transaction_time":   "2024-03-01 18:55:00",
		"transaction_status": "settlement",
		"transaction_id":     "trx-order-1",
		"status_message":     "Success, transaction is found",
		"status_code":        "200",
		"signature_key":      "signature",
		"order_id":           "order-1",
		"merchant_id":        "G141532850",
		"gross_amount":       "10000.00",
		"fraud_status":       "accept",
		"currency":           "IDR",
		"settlement_time":    "2024-03-01 19:00:00",
		"payment_type":       "dana",
	})
	s.Require().NoError(err)

	s.repository.On("GetPendingPayments", mock.Anything, mock.Anything, 10).Return([]domain.Payment{abandoned}, nil)
	s.gateway.On("TransactionStatus", mock.Anything, "order-1").Return(transaction.Notification{}, statusError(s.T(), settled, nil))

	s.service.ReconcilePendingPayments()
	s.repository.AssertNotCalled(s.T(), "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
	s.publisher.AssertNotCalled(s.T(), "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PaymentServiceTestSuite) TestReconcilePendingPayments_StopsWhenGatewayIsDown() {
	s.repository.On("GetPendingPayments", mock.Anything, mock.Anything, 10).
		Return([]domain.Payment{pendingPayment("order-1"), pendingPayment("order-2")}, nil)
	s.gateway.On("TransactionStatus", mock.Anything, "order-1").
		Return(transaction.Notification{}, fmt.Errorf("%w: circuit breaker is open", errs.ErrGatewayFailure))

	s.service.ReconcilePendingPayments()
	s.gateway.AssertNotCalled(s.T(), "TransactionStatus", mock.Anything, "order-2")
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}

// staticRequester answers every call with the same body or error.
type staticRequester struct {
	body []byte
	err  error
}

func (r staticRequester) Post(ctx context.Context, endpoint string, body any, headers map[string]string) ([]byte, error) {
	return r.body, r.err
}

func (r staticRequester) Get(ctx context.Context, endpoint string, params url.Values, headers map[string]string) ([]byte, error) {
	return r.body, r.err
}

// statusError returns the error the Snap client reports for a status
// request answered with body or failed with err.
func statusError(t *testing.T, body []byte, err error) error {
	t.Helper()

	requester := staticRequester{body: body, err: err}
	client, cerr := snap.New(requester, requester, "SB-Mid-server-key")
	if cerr != nil {
		t.Fatal(cerr)
	}

	_, serr := client.TransactionStatus(context.Background(), "order-1")
	if serr == nil {
		t.Fatal("status request unexpectedly succeeded")
	}
	return serr
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
