package dto

type PaymentItem struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required,max=50"`
	Price    int64  `json:"price" validate:"gt=0"`
	Quantity int32  `json:"quantity" validate:"gt=0"`
}

type Customer struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
}

type PaymentRequest struct {
	Items           []PaymentItem `json:"items" validate:"required,min=1,dive"`
	Customer        Customer      `json:"customer"`
	EnabledPayments []string      `json:"enabled_payments"`
	UserID          uint64        `json:"-"`
}
