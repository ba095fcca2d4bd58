package transaction

// PaymentMethod is implemented only by the variants declared in this file.
type PaymentMethod interface {
	PaymentType() PaymentType
	accept(Visitor) error
}

// Visitor has one method per payment method. Adding a variant adds a method
// here, so every implementation has to handle it.
type Visitor interface {
	VisitCreditCard(CreditCard) error
	VisitBankTransfer(BankTransfer) error
	VisitEChannel(EChannel) error
	VisitConvenienceStore(ConvenienceStore) error
	VisitQRIS(QRIS) error
	VisitGoPay(GoPay) error
	VisitShopeePay(ShopeePay) error
	VisitAkulaku(Akulaku) error
}

type CreditCard struct {
	// MaskedCard is the first six and last four digits of the card number.
	MaskedCard string `json:"masked_card" validate:"required"`
	// ECI is the 3D secure ECI code.
	ECI                    string  `json:"eci" validate:"required"`
	ChannelResponseMessage *string `json:"channel_response_message" validate:"required"`
	ChannelResponseCode    string  `json:"channel_response_code" validate:"required"`
	CardType               string  `json:"card_type" validate:"required,oneof=Credit Debit credit debit"`
	Bank                   string  `json:"bank" validate:"required"`
	// ApprovalCode can be used to refund the transaction. It is absent on
	// transactions deemed as fraud.
	ApprovalCode   string `json:"approval_code,omitempty"`
	ThreeDSVersion string `json:"three_ds_version,omitempty"`
	// ChallengeCompletion is only present when a 3DS 2 challenge was prompted.
	ChallengeCompletion *bool `json:"challenge_completion,omitempty"`
}

func (CreditCard) PaymentType() PaymentType { return PaymentTypeCreditCard }

func (m CreditCard) accept(v Visitor) error { return v.VisitCreditCard(m) }

type VANumber struct {
	VANumber string `json:"va_number" validate:"required"`
	Bank     string `json:"bank" validate:"required,oneof=bca bni bri"`
}

type PaymentAmount struct {
	PaidAt string `json:"paid_at" validate:"required"`
	Amount string `json:"amount" validate:"required,decimal"`
}

// BankTransfer is either a Permata virtual account (PermataVANumber with Bank
// "permata") or a list of VANumbers for the other banks.
type BankTransfer struct {
	Bank            string          `json:"bank,omitempty"`
	PermataVANumber string          `json:"permata_va_number,omitempty"`
	VANumbers       []VANumber      `json:"va_numbers,omitempty" validate:"omitempty,dive"`
	PaymentAmounts  []PaymentAmount `json:"payment_amounts,omitempty" validate:"omitempty,dive"`
}

func (BankTransfer) PaymentType() PaymentType { return PaymentTypeBankTransfer }

func (m BankTransfer) accept(v Visitor) error { return v.VisitBankTransfer(m) }

// IsPermata reports which of the two bank transfer shapes this is.
func (m BankTransfer) IsPermata() bool {
	return m.PermataVANumber != ""
}

// EChannel is a Mandiri bill payment.
type EChannel struct {
	BillerCode string `json:"biller_code" validate:"required"`
	BillKey    string `json:"bill_key" validate:"required"`
}

func (EChannel) PaymentType() PaymentType { return PaymentTypeEChannel }

func (m EChannel) accept(v Visitor) error { return v.VisitEChannel(m) }

type ConvenienceStore struct {
	PaymentCode  string `json:"payment_code" validate:"required"`
	Store        string `json:"store" validate:"required,oneof=alfamart indomaret"`
	ApprovalCode string `json:"approval_code,omitempty" validate:"required_if=Store indomaret"`
}

func (ConvenienceStore) PaymentType() PaymentType { return PaymentTypeCStore }

func (m ConvenienceStore) accept(v Visitor) error { return v.VisitConvenienceStore(m) }

type QRIS struct {
	TransactionType string  `json:"transaction_type" validate:"required,oneof=on-us off-us"`
	Issuer          *string `json:"issuer" validate:"required"`
	// Acquirer is usually "airpay shopee" or "gopay", but other values are
	// accepted.
	Acquirer *string `json:"acquirer" validate:"required"`
}

func (QRIS) PaymentType() PaymentType { return PaymentTypeQRIS }

func (m QRIS) accept(v Visitor) error { return v.VisitQRIS(m) }

type GoPay struct{}

func (GoPay) PaymentType() PaymentType { return PaymentTypeGoPay }

func (m GoPay) accept(v Visitor) error { return v.VisitGoPay(m) }

type ShopeePay struct{}

func (ShopeePay) PaymentType() PaymentType { return PaymentTypeShopeePay }

func (m ShopeePay) accept(v Visitor) error { return v.VisitShopeePay(m) }

type Akulaku struct{}

func (Akulaku) PaymentType() PaymentType { return PaymentTypeAkulaku }

func (m Akulaku) accept(v Visitor) error { return v.VisitAkulaku(m) }
