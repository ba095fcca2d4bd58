package signature

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/alimikegami/nextrans-go/pkg/transaction"
)

// Compute returns the lowercase hex SHA-512 of
// order_id + status_code + gross_amount + serverKey.
func Compute(orderID, statusCode, grossAmount, serverKey string) string {
	hash := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(hash[:])
}

// Verify reports whether the notification's signature_key was produced with
// serverKey. It is the only proof that a notification came from the gateway.
func Verify(n transaction.Notification, serverKey string) bool {
	expected := Compute(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	got := strings.ToLower(n.SignatureKey)

	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
