package httpclient

import (
	"context"
	"errors"

	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/sony/gobreaker/v2"
)

// NewCircuitBreaker trips once at least three requests were made and 60% of
// them failed transiently. Rejections caused by the request itself (4xx,
// bad keys) and caller cancellations do not count as failures.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	var st gobreaker.Settings
	st.Name = name
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	st.IsSuccessful = func(err error) bool {
		if err == nil || errors.Is(err, context.Canceled) {
			return true
		}
		return !errors.Is(err, errs.ErrGatewayFailure)
	}

	return gobreaker.NewCircuitBreaker[[]byte](st)
}
