package notification

import (
	"context"
	"net/http"

	"github.com/alimikegami/nextrans-go/pkg/transaction"
)

// Response is what the handler answers the gateway with.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// TextResponse returns a plain text response. An empty body is sent as is.
func TextResponse(statusCode int, body string) Response {
	resp := Response{StatusCode: statusCode}
	if body != "" {
		resp.Header = http.Header{"Content-Type": {"text/plain; charset=utf-8"}}
		resp.Body = []byte(body)
	}
	return resp
}

// Write copies the response to w.
func (resp Response) Write(w http.ResponseWriter) error {
	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(resp.Body) == 0 {
		return nil
	}
	_, err := w.Write(resp.Body)
	return err
}

// Decision is returned by every hook. The zero value continues the pipeline.
type Decision struct {
	response *Response
}

// Continue lets the pipeline go on to its next stage, or to its default
// response when the hook replaces one.
func Continue() Decision {
	return Decision{}
}

// Respond ends the pipeline and answers with resp.
func Respond(resp Response) Decision {
	return Decision{response: &resp}
}

// Response reports whether the decision short-circuits the pipeline.
func (d Decision) Response() (Response, bool) {
	if d.response == nil {
		return Response{}, false
	}
	return *d.response, true
}

// Hooks lets the host take part in processing. Only ProcessNotification is
// required. An error returned by any hook aborts the pipeline and is handed
// back to the caller of Handle.
type Hooks struct {
	// OnInvalidBody is called when the body is not JSON or does not match the
	// transaction schema. It replaces the default 400 response.
	OnInvalidBody func(r *http.Request, body []byte, cause error) (Decision, error)

	// OnInvalidSignature replaces the default 403 response.
	OnInvalidSignature func(ctx context.Context, n transaction.Notification, r *http.Request) (Decision, error)

	// BeforeTransactionRecheck runs once the notification is authenticated.
	// Responding here skips the status recheck and everything after it.
	BeforeTransactionRecheck func(ctx context.Context, n transaction.Notification) (Decision, error)

	// ProcessNotification receives the notification and the record fetched
	// back from the gateway. Business decisions must be made on rechecked.
	// Notifications can be delivered more than once and out of order, so the
	// implementation has to be idempotent per transaction id.
	ProcessNotification func(ctx context.Context, n, rechecked transaction.Notification) (Decision, error)

	OnSuccess func(ctx context.Context, n, rechecked transaction.Notification) (Decision, error)
}
