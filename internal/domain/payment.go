package domain

import (
	"github.com/alimikegami/nextrans-go/pkg/transaction"
	"github.com/shopspring/decimal"
)

type Payment struct {
	ID            int64           `db:"id"`
	OrderID       string          `db:"order_id"`
	UserID        uint64          `db:"user_id"`
	TransactionID *string         `db:"transaction_id"`
	GrossAmount   decimal.Decimal `db:"gross_amount"`
	Currency      string          `db:"currency"`
	PaymentType   *string         `db:"payment_type"`
	Status        string          `db:"status"`
	FraudStatus   *string         `db:"fraud_status"`
	SnapToken     string          `db:"snap_token"`
	RedirectURL   string          `db:"redirect_url"`
	PaidAt        *int64          `db:"paid_at"`
	CreatedAt     int64           `db:"created_at"`
	UpdatedAt     int64           `db:"updated_at"`
	DeletedAt     *int64          `db:"deleted_at"`
	PaymentItems  []PaymentItem
}

type PaymentItem struct {
	ID        int64  `db:"id"`
	PaymentID int64  `db:"payment_id"`
	ItemID    string `db:"item_id"`
	Name      string `db:"name"`
	Price     int64  `db:"price"`
	Quantity  int32  `db:"quantity"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

// statusRank orders payment statuses. A payment only moves to a status of a
// higher rank, so late or repeated notifications never undo a newer state.
// Statuses sharing a rank are alternative outcomes; the first one recorded
// wins.
var statusRank = map[transaction.Status]int{
	transaction.StatusPending:       1,
	transaction.StatusAuthorize:     2,
	transaction.StatusCapture:       3,
	transaction.StatusSettlement:    4,
	transaction.StatusDeny:          4,
	transaction.StatusCancel:        4,
	transaction.StatusExpire:        4,
	transaction.StatusFailure:       4,
	transaction.StatusPartialRefund: 5,
	transaction.StatusRefund:        6,
}

func StatusRank(s transaction.Status) int {
	return statusRank[s]
}

// CanTransition reports whether a payment in status from may move to to.
func CanTransition(from, to transaction.Status) bool {
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > statusRank[from]
}

// StatusesBefore lists the statuses a payment may be in for to to apply.
func StatusesBefore(to transaction.Status) []string {
	var statuses []string
	for s := range statusRank {
		if CanTransition(s, to) {
			statuses = append(statuses, string(s))
		}
	}
	return statuses
}
