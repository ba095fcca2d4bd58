package snap

import "github.com/midtrans/midtrans-go"

// Request is the body of a Snap transaction creation call.
type Request struct {
	TransactionDetails midtrans.TransactionDetails `json:"transaction_details"`
	Items              []midtrans.ItemDetails      `json:"item_details,omitempty"`
	CustomerDetails    *midtrans.CustomerDetails   `json:"customer_details,omitempty"`
	EnabledPayments    []string                    `json:"enabled_payments,omitempty"`

	CreditCard *CreditCardOptions `json:"credit_card,omitempty"`
	BCAVA      *BCAVAOptions      `json:"bca_va,omitempty"`
	BNIVA      *VAOptions         `json:"bni_va,omitempty"`
	BRIVA      *VAOptions         `json:"bri_va,omitempty"`
	PermataVA  *PermataVAOptions  `json:"permata_va,omitempty"`
	Gopay      *GopayOptions      `json:"gopay,omitempty"`
	ShopeePay  *ShopeePayOptions  `json:"shopeepay,omitempty"`

	Callbacks *Callbacks `json:"callbacks,omitempty"`
	Expiry    *Expiry    `json:"expiry,omitempty"`

	CustomField1 string `json:"custom_field1,omitempty"`
	CustomField2 string `json:"custom_field2,omitempty"`
	CustomField3 string `json:"custom_field3,omitempty"`
}

type CreditCardOptions struct {
	Secure            bool                `json:"secure,omitempty"`
	Bank              string              `json:"bank,omitempty"`
	Channel           string              `json:"channel,omitempty"`
	Type              string              `json:"type,omitempty"`
	WhitelistBins     []string            `json:"whitelist_bins,omitempty"`
	Installment       *InstallmentOptions `json:"installment,omitempty"`
	DynamicDescriptor *DynamicDescriptor  `json:"dynamic_descriptor,omitempty"`
}

type InstallmentOptions struct {
	Required bool `json:"required"`
	// Terms maps an acquiring bank to the allowed tenors in months.
	Terms map[string][]int `json:"terms"`
}

type DynamicDescriptor struct {
	MerchantName string `json:"merchant_name"`
	CityName     string `json:"city_name"`
	CountryCode  string `json:"country_code"`
}

// VAOptions sets a custom virtual account number for BNI and BRI.
type VAOptions struct {
	VANumber string `json:"va_number,omitempty"`
}

type BCAVAOptions struct {
	VANumber       string        `json:"va_number,omitempty"`
	SubCompanyCode string        `json:"sub_company_code,omitempty"`
	FreeText       *BCAFreeTexts `json:"free_text,omitempty"`
}

type BCAFreeTexts struct {
	Inquiry []BCAFreeText `json:"inquiry,omitempty"`
	Payment []BCAFreeText `json:"payment,omitempty"`
}

type BCAFreeText struct {
	EN string `json:"en"`
	ID string `json:"id"`
}

type PermataVAOptions struct {
	VANumber      string `json:"va_number,omitempty"`
	RecipientName string `json:"recipient_name,omitempty"`
}

type GopayOptions struct {
	EnableCallback bool   `json:"enable_callback"`
	CallbackURL    string `json:"callback_url,omitempty"`
}

type ShopeePayOptions struct {
	CallbackURL string `json:"callback_url,omitempty"`
}

// Callbacks.Finish is where the customer is redirected once payment is done.
type Callbacks struct {
	Finish string `json:"finish"`
}

type Expiry struct {
	// StartTime uses the "2006-01-02 15:04:05 -0700" layout.
	StartTime string `json:"start_time,omitempty"`
	Unit      string `json:"unit" validate:"oneof=second minute minutes hour hours day days"`
	Duration  int    `json:"duration" validate:"gt=0"`
}

// CreateTransactionResponse holds the Snap token used by the payment page and
// the URL of the hosted payment page.
type CreateTransactionResponse struct {
	Token       string `json:"token" validate:"required"`
	RedirectURL string `json:"redirect_url" validate:"required"`
}
