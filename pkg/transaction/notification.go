package transaction

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Envelope holds the fields every notification and status response carries,
// whatever the payment method. Free-text fields are pointers: they must be
// present but may be empty.
type Envelope struct {
	TransactionTime   string      `json:"transaction_time" validate:"required"`
	TransactionStatus Status      `json:"transaction_status" validate:"required,oneof=capture settlement pending deny cancel expire failure refund partial_refund authorize"`
	TransactionID     string      `json:"transaction_id" validate:"required"`
	StatusMessage     *string     `json:"status_message" validate:"required"`
	StatusCode        string      `json:"status_code" validate:"required"`
	SignatureKey      string      `json:"signature_key" validate:"required"`
	OrderID           string      `json:"order_id" validate:"required"`
	MerchantID        string      `json:"merchant_id" validate:"required"`
	GrossAmount       string      `json:"gross_amount" validate:"required,decimal"`
	FraudStatus       FraudStatus `json:"fraud_status" validate:"required,oneof=accept deny"`
	Currency          string      `json:"currency" validate:"required"`
	SettlementTime    string      `json:"settlement_time,omitempty"`
	PaymentType       PaymentType `json:"payment_type" validate:"required"`
}

// GrossAmountDecimal returns gross_amount as an exact decimal.
func (e Envelope) GrossAmountDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(e.GrossAmount)
}

// Notification is a validated transaction record: either a pushed
// notification or the response of the status endpoint.
type Notification struct {
	Envelope

	// Method holds the fields specific to PaymentType.
	Method PaymentMethod

	// Raw is the payload as received, including fields this package does not
	// know about.
	Raw json.RawMessage
}

// Visit dispatches the payment method to the matching Visitor method.
func (n Notification) Visit(v Visitor) error {
	return n.Method.accept(v)
}
