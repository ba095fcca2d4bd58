package dto

const EventPaymentStatusChanged = "payment_status_changed"

type KafkaMessage struct {
	EventType string      `json:"event_type"`
	Data      interface{} `json:"data"`
}

type PaymentStatusChanged struct {
	OrderID        string `json:"order_id"`
	TransactionID  string `json:"transaction_id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
	FraudStatus    string `json:"fraud_status"`
	PaymentType    string `json:"payment_type"`
	GrossAmount    string `json:"gross_amount"`
	Source         string `json:"source"`
	OccurredAt     int64  `json:"occurred_at"`
}
