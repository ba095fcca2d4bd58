package dto

type PaymentResponse struct {
	OrderID       string  `json:"order_id"`
	TransactionID *string `json:"transaction_id"`
	Status        string  `json:"status"`
	PaymentType   *string `json:"payment_type"`
	GrossAmount   string  `json:"gross_amount"`
	Currency      string  `json:"currency"`
	Token         string  `json:"token,omitempty"`
	RedirectURL   string  `json:"redirect_url,omitempty"`
	PaidAt        *int64  `json:"paid_at"`
	CreatedAt     int64   `json:"created_at"`
}
