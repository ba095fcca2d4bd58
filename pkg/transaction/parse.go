package transaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate      = newValidator()
	amountPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Monetary amounts travel as plain non-negative decimal strings and are
	// never converted to floating point.
	v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !amountPattern.MatchString(s) {
			return false
		}
		d, err := decimal.NewFromString(s)
		return err == nil && !d.IsNegative()
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		bt := sl.Current().Interface().(BankTransfer)
		if bt.IsPermata() {
			if bt.Bank != "permata" {
				sl.ReportError(bt.Bank, "bank", "Bank", "eq=permata", "")
			}
			return
		}
		if len(bt.VANumbers) == 0 {
			sl.ReportError(bt.VANumbers, "va_numbers", "VANumbers", "required", "")
		}
	}, BankTransfer{})

	return v
}

// Validate checks v against its validate struct tags and reports failures as
// an *errs.ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &errs.ValidationError{Cause: err}
	}

	fields := make([]errs.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, errs.FieldError{Field: fe.Field(), Tag: fe.Tag()})
	}

	return &errs.ValidationError{Fields: fields}
}

var decoders = map[PaymentType]func([]byte) (PaymentMethod, error){
	PaymentTypeCreditCard:   decode[CreditCard],
	PaymentTypeBankTransfer: decode[BankTransfer],
	PaymentTypeEChannel:     decode[EChannel],
	PaymentTypeCStore:       decode[ConvenienceStore],
	PaymentTypeQRIS:         decode[QRIS],
	PaymentTypeGoPay:        decode[GoPay],
	PaymentTypeShopeePay:    decode[ShopeePay],
	PaymentTypeAkulaku:      decode[Akulaku],
}

func decode[T PaymentMethod](raw []byte) (PaymentMethod, error) {
	var m T
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &errs.ValidationError{Reason: string(m.PaymentType()), Cause: err}
	}

	if err := Validate(m); err != nil {
		return nil, err
	}

	return m, nil
}

// Parse validates raw against the transaction schema: the common envelope
// first, then the fields of the variant named by payment_type. Fields this
// package does not know are ignored and kept in Notification.Raw.
func Parse(raw []byte) (Notification, error) {
	if !json.Valid(raw) {
		return Notification{}, &errs.ValidationError{Cause: errs.ErrMalformedBody}
	}

	var n Notification
	if err := json.Unmarshal(raw, &n.Envelope); err != nil {
		return Notification{}, &errs.ValidationError{Reason: "envelope", Cause: err}
	}

	if err := Validate(n.Envelope); err != nil {
		return Notification{}, err
	}

	decodeMethod, ok := decoders[n.PaymentType]
	if !ok {
		return Notification{}, &errs.ValidationError{
			Reason: fmt.Sprintf("payment_type %q", n.PaymentType),
			Cause:  errs.ErrUnknownPaymentType,
		}
	}

	method, err := decodeMethod(raw)
	if err != nil {
		return Notification{}, err
	}

	n.Method = method
	n.Raw = append(json.RawMessage(nil), raw...)

	return n, nil
}
