package transaction

// Status is the gateway's transaction_status.
type Status string

const (
	// StatusCapture means the card balance was captured. It is safe to assume
	// the payment succeeded; the gateway moves it to settlement later.
	StatusCapture Status = "capture"
	// StatusSettlement means funds have been credited to the merchant.
	StatusSettlement Status = "settlement"
	// StatusPending means the transaction waits for the customer to pay, or for
	// a card holder to finish 3DS/OTP.
	StatusPending Status = "pending"
	// StatusDeny means the payment provider or the fraud detection system
	// rejected the credentials. See status_message for the reason.
	StatusDeny          Status = "deny"
	StatusCancel        Status = "cancel"
	StatusExpire        Status = "expire"
	StatusFailure       Status = "failure"
	StatusRefund        Status = "refund"
	StatusPartialRefund Status = "partial_refund"
	// StatusAuthorize is only reported for pre-authorized card transactions.
	StatusAuthorize Status = "authorize"
)

// IsSuccess reports whether the status represents a completed payment.
func (s Status) IsSuccess() bool {
	return s == StatusCapture || s == StatusSettlement
}

// IsFinal reports whether no further status change is expected apart from
// refunds.
func (s Status) IsFinal() bool {
	switch s {
	case StatusSettlement, StatusDeny, StatusCancel, StatusExpire, StatusFailure, StatusRefund:
		return true
	}
	return false
}

// FraudStatus is the gateway's fraud-detection verdict. Only accept should be
// treated as a legitimate payment.
type FraudStatus string

const (
	FraudStatusAccept FraudStatus = "accept"
	FraudStatusDeny   FraudStatus = "deny"
)

func (f FraudStatus) IsAccepted() bool {
	return f == FraudStatusAccept
}

type PaymentType string

const (
	PaymentTypeCreditCard   PaymentType = "credit_card"
	PaymentTypeBankTransfer PaymentType = "bank_transfer"
	PaymentTypeEChannel     PaymentType = "echannel"
	PaymentTypeCStore       PaymentType = "cstore"
	PaymentTypeQRIS         PaymentType = "qris"
	PaymentTypeGoPay        PaymentType = "gopay"
	PaymentTypeShopeePay    PaymentType = "shopeepay"
	PaymentTypeAkulaku      PaymentType = "akulaku"
)
