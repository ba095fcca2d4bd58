package snap

import (
	"fmt"

	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/alimikegami/nextrans-go/pkg/transaction"
	"github.com/midtrans/midtrans-go"
)

// Bank names accepted by SetBankVA.
const (
	BankBCA     = "bca"
	BankBNI     = "bni"
	BankBRI     = "bri"
	BankPermata = "permata"
)

// TransactionBuilder assembles a Request. Setters can be chained; every
// problem is reported by Build.
type TransactionBuilder struct {
	details         *midtrans.TransactionDetails
	items           []midtrans.ItemDetails
	customer        *midtrans.CustomerDetails
	shipping        *midtrans.CustomerAddress
	billing         *midtrans.CustomerAddress
	enabledPayments []string

	creditCard *CreditCardOptions
	bcaVA      *BCAVAOptions
	bniVA      *VAOptions
	briVA      *VAOptions
	permataVA  *PermataVAOptions
	gopay      *GopayOptions
	shopeePay  *ShopeePayOptions
	callbacks  *Callbacks
	expiry     *Expiry
	custom     [3]string

	err error
}

func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{}
}

func (b *TransactionBuilder) SetDetails(details midtrans.TransactionDetails) *TransactionBuilder {
	b.details = &details
	return b
}

// SetAllItems replaces the items added so far.
func (b *TransactionBuilder) SetAllItems(items []midtrans.ItemDetails) *TransactionBuilder {
	b.items = append([]midtrans.ItemDetails(nil), items...)
	return b
}

func (b *TransactionBuilder) AddItem(item midtrans.ItemDetails) *TransactionBuilder {
	b.items = append(b.items, item)
	return b
}

func (b *TransactionBuilder) SetCustomer(customer midtrans.CustomerDetails) *TransactionBuilder {
	b.customer = &customer
	return b
}

func (b *TransactionBuilder) SetShippingAddress(address midtrans.CustomerAddress) *TransactionBuilder {
	b.shipping = &address
	return b
}

func (b *TransactionBuilder) SetBillingAddress(address midtrans.CustomerAddress) *TransactionBuilder {
	b.billing = &address
	return b
}

// AddEnabledPayments restricts the payment page to the given payment
// channels, e.g. "credit_card", "gopay" or "bca_va".
func (b *TransactionBuilder) AddEnabledPayments(payments ...string) *TransactionBuilder {
	b.enabledPayments = append(b.enabledPayments, payments...)
	return b
}

func (b *TransactionBuilder) SetCallbacks(finishURL string) *TransactionBuilder {
	b.callbacks = &Callbacks{Finish: finishURL}
	return b
}

func (b *TransactionBuilder) SetExpiry(expiry Expiry) *TransactionBuilder {
	b.expiry = &expiry
	return b
}

// SetCustomFields sets up to three free-form fields that the gateway echoes
// back in notifications.
func (b *TransactionBuilder) SetCustomFields(fields ...string) *TransactionBuilder {
	if len(fields) > len(b.custom) {
		b.fail(fmt.Sprintf("at most %d custom fields are supported, got %d", len(b.custom), len(fields)))
		return b
	}
	b.custom = [3]string{}
	copy(b.custom[:], fields)
	return b
}

func (b *TransactionBuilder) SetCreditCard(options CreditCardOptions) *TransactionBuilder {
	b.creditCard = &options
	return b
}

// SetBankVA configures the virtual account of one bank. Only VANumber is
// used for BNI and BRI, and RecipientName only for Permata.
func (b *TransactionBuilder) SetBankVA(bank string, options BankVAOptions) *TransactionBuilder {
	switch bank {
	case BankBCA:
		b.bcaVA = &BCAVAOptions{VANumber: options.VANumber, SubCompanyCode: options.SubCompanyCode, FreeText: options.FreeText}
	case BankBNI:
		b.bniVA = &VAOptions{VANumber: options.VANumber}
	case BankBRI:
		b.briVA = &VAOptions{VANumber: options.VANumber}
	case BankPermata:
		b.permataVA = &PermataVAOptions{VANumber: options.VANumber, RecipientName: options.RecipientName}
	default:
		b.fail(fmt.Sprintf("virtual account bank %q is not supported", bank))
	}
	return b
}

// BankVAOptions is the union of the per-bank virtual account settings.
type BankVAOptions struct {
	VANumber       string
	SubCompanyCode string
	FreeText       *BCAFreeTexts
	RecipientName  string
}

func (b *TransactionBuilder) SetGopay(options GopayOptions) *TransactionBuilder {
	b.gopay = &options
	return b
}

func (b *TransactionBuilder) SetShopeePay(options ShopeePayOptions) *TransactionBuilder {
	b.shopeePay = &options
	return b
}

func (b *TransactionBuilder) fail(message string) {
	if b.err == nil {
		b.err = errs.NewConfigurationError(message)
	}
}

func (b *TransactionBuilder) Build() (Request, error) {
	if b.err != nil {
		return Request{}, b.err
	}

	if b.details == nil {
		return Request{}, errs.NewConfigurationError("Transaction details are required.")
	}
	if b.details.OrderID == "" {
		return Request{}, errs.NewConfigurationError("order id is required")
	}
	if b.details.GrossAmt <= 0 {
		return Request{}, errs.NewConfigurationError("gross amount must be positive")
	}

	if b.customer == nil && (b.shipping != nil || b.billing != nil) {
		return Request{}, errs.NewConfigurationError("Customer details are required if shipping or billing address are set.")
	}

	if err := b.checkItems(); err != nil {
		return Request{}, err
	}

	if b.expiry != nil {
		if err := transaction.Validate(b.expiry); err != nil {
			return Request{}, errs.NewConfigurationError(err.Error())
		}
	}

	req := Request{
		TransactionDetails: *b.details,
		Items:              append([]midtrans.ItemDetails(nil), b.items...),
		EnabledPayments:    append([]string(nil), b.enabledPayments...),
		CreditCard:         b.creditCard,
		BCAVA:              b.bcaVA,
		BNIVA:              b.bniVA,
		BRIVA:              b.briVA,
		PermataVA:          b.permataVA,
		Gopay:              b.gopay,
		ShopeePay:          b.shopeePay,
		Callbacks:          b.callbacks,
		Expiry:             b.expiry,
		CustomField1:       b.custom[0],
		CustomField2:       b.custom[1],
		CustomField3:       b.custom[2],
	}

	if b.customer != nil {
		customer := *b.customer
		if b.shipping != nil {
			shipping := *b.shipping
			customer.ShipAddr = &shipping
		}
		if b.billing != nil {
			billing := *b.billing
			customer.BillAddr = &billing
		}
		req.CustomerDetails = &customer
	}

	return req, nil
}

// checkItems requires a name and a positive quantity on every item, and item
// totals that add up to the gross amount, which the gateway enforces too.
func (b *TransactionBuilder) checkItems() error {
	if len(b.items) == 0 {
		return nil
	}

	var total int64
	for i, item := range b.items {
		if item.Name == "" {
			return errs.NewConfigurationError(fmt.Sprintf("item %d has no name", i))
		}
		if item.Qty <= 0 {
			return errs.NewConfigurationError(fmt.Sprintf("item %d has quantity %d", i, item.Qty))
		}
		total += item.Price * int64(item.Qty)
	}

	if total != b.details.GrossAmt {
		return errs.NewConfigurationError(fmt.Sprintf("items add up to %d but gross amount is %d", total, b.details.GrossAmt))
	}

	return nil
}
