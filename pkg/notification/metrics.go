package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeInvalidBody      = "invalid_body"
	outcomeInvalidSignature = "invalid_signature"
	outcomeShortCircuited   = "short_circuited"
	outcomeRecheckFailed    = "recheck_failed"
	outcomeProcessed        = "processed"
	outcomeHookError        = "hook_error"
)

var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nextrans_notifications_total",
	Help: "Payment notifications handled, by outcome.",
}, []string{"outcome"})
