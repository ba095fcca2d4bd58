package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/alimikegami/nextrans-go/pkg/signature"
	"github.com/alimikegami/nextrans-go/pkg/transaction"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultRecheckTimeout = 10 * time.Second
	DefaultMaxBodyBytes   = 1 << 20
)

var ErrBodyTooLarge = errors.New("notification body is too large")

// Rechecker fetches the current state of a transaction from the gateway.
type Rechecker interface {
	GetTransactionStatus(ctx context.Context, transactionID string) ([]byte, error)
}

type Option func(*Handler)

// WithRecheckTimeout bounds the status recheck round-trip.
func WithRecheckTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.recheckTimeout = d
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		h.maxBodyBytes = n
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Handler) {
		h.tracer = tp.Tracer(tracerName)
	}
}

const tracerName = "github.com/alimikegami/nextrans-go/pkg/notification"

// Handler authenticates payment notifications and runs them through the
// host's hooks. It keeps no state between requests.
type Handler struct {
	rechecker      Rechecker
	serverKey      string
	hooks          Hooks
	recheckTimeout time.Duration
	maxBodyBytes   int64
	tracer         trace.Tracer
}

func NewHandler(rechecker Rechecker, serverKey string, hooks Hooks, opts ...Option) (*Handler, error) {
	if rechecker == nil {
		return nil, errs.NewConfigurationError("a transaction status rechecker is required")
	}
	if serverKey == "" {
		return nil, errs.NewConfigurationError("server key is empty")
	}
	if hooks.ProcessNotification == nil {
		return nil, errs.NewConfigurationError("the ProcessNotification hook is required")
	}

	h := &Handler{
		rechecker:      rechecker,
		serverKey:      serverKey,
		hooks:          hooks,
		recheckTimeout: DefaultRecheckTimeout,
		maxBodyBytes:   DefaultMaxBodyBytes,
		tracer:         otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.recheckTimeout <= 0 {
		return nil, errs.NewConfigurationError("recheck timeout must be positive")
	}
	if h.maxBodyBytes <= 0 {
		return nil, errs.NewConfigurationError("max body size must be positive")
	}

	return h, nil
}

// Handle processes one notification request. Failures of the pipeline itself
// are turned into the matching response; the returned error is only set when
// a hook fails, in which case the response must be ignored.
func (h *Handler) Handle(r *http.Request) (Response, error) {
	ctx, span := h.tracer.Start(r.Context(), "notification.Handle", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	p := &pipeline{
		handler: h,
		ctx:     ctx,
		req:     r.WithContext(ctx),
		state:   StateReceived,
		logger:  log.Ctx(ctx).With().Str("component", "notification").Logger(),
	}

	resp, err := p.run()
	reached := p.state
	p.state = StateResponded

	if err != nil {
		p.outcome = outcomeHookError
		span.RecordError(err)
		span.SetStatus(codes.Error, "notification hook failed")
	}
	span.SetAttributes(
		attribute.String("nextrans.notification.outcome", p.outcome),
		attribute.String("nextrans.notification.reached_state", reached.String()),
		attribute.Int("http.response.status_code", resp.StatusCode),
	)
	notificationsTotal.WithLabelValues(p.outcome).Inc()

	return resp, err
}

// ServeHTTP adapts the handler to net/http. Hook errors are logged and
// answered with a 500 so the gateway retries.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		TextResponse(http.StatusMethodNotAllowed, "Method not allowed").Write(w)
		return
	}

	resp, err := h.Handle(r)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("component", "notification").Msg("notification hook failed")
		resp = internalServerError()
	}

	if err := resp.Write(w); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Str("component", "notification").Msg("failed to write notification response")
	}
}

func internalServerError() Response {
	return TextResponse(http.StatusInternalServerError, "Internal server error")
}

type pipeline struct {
	handler *Handler
	ctx     context.Context
	req     *http.Request
	state   State
	outcome string
	logger  zerolog.Logger
}

func (p *pipeline) run() (Response, error) {
	h := p.handler

	body, err := p.readBody()
	if err != nil {
		return p.invalidBody(body, err, "Invalid JSON body")
	}

	n, err := transaction.Parse(body)
	if errors.Is(err, errs.ErrMalformedBody) {
		return p.invalidBody(body, err, "Invalid JSON body")
	}
	p.state = StateBodyParsed
	if err != nil {
		return p.invalidBody(body, err, "Invalid body")
	}
	p.state = StateSchemaValidated

	p.logger = p.logger.With().
		Str("transaction_id", n.TransactionID).
		Str("order_id", n.OrderID).
		Str("transaction_status", string(n.TransactionStatus)).
		Logger()

	if !signature.Verify(n, h.serverKey) {
		p.outcome = outcomeInvalidSignature
		p.logger.Warn().Msg("notification signature does not match")
		if h.hooks.OnInvalidSignature == nil {
			return TextResponse(http.StatusForbidden, "Invalid signature"), nil
		}
		decision, err := h.hooks.OnInvalidSignature(p.ctx, n, p.req)
		if err != nil {
			return Response{}, fmt.Errorf("OnInvalidSignature: %w", err)
		}
		if resp, ok := decision.Response(); ok {
			return p.hostResponse("OnInvalidSignature", resp), nil
		}
		return TextResponse(http.StatusForbidden, "Invalid signature"), nil
	}
	p.state = StateSignatureVerified

	if h.hooks.BeforeTransactionRecheck != nil {
		decision, err := h.hooks.BeforeTransactionRecheck(p.ctx, n)
		if err != nil {
			return Response{}, fmt.Errorf("BeforeTransactionRecheck: %w", err)
		}
		if resp, ok := decision.Response(); ok {
			p.outcome = outcomeShortCircuited
			return p.hostResponse("BeforeTransactionRecheck", resp), nil
		}
	}

	rechecked, err := p.recheck(n)
	if err != nil {
		p.outcome = outcomeRecheckFailed
		p.logger.Error().Err(err).Msg("failed to recheck transaction status")
		return internalServerError(), nil
	}
	p.state = StateRechecked

	decision, err := h.hooks.ProcessNotification(p.ctx, n, rechecked)
	if err != nil {
		return Response{}, fmt.Errorf("ProcessNotification: %w", err)
	}
	if resp, ok := decision.Response(); ok {
		p.outcome = outcomeShortCircuited
		return p.hostResponse("ProcessNotification", resp), nil
	}
	p.state = StateProcessed

	if h.hooks.OnSuccess != nil {
		decision, err := h.hooks.OnSuccess(p.ctx, n, rechecked)
		if err != nil {
			return Response{}, fmt.Errorf("OnSuccess: %w", err)
		}
		if resp, ok := decision.Response(); ok {
			p.outcome = outcomeProcessed
			return p.hostResponse("OnSuccess", resp), nil
		}
	}

	p.outcome = outcomeProcessed
	return TextResponse(http.StatusOK, ""), nil
}

func (p *pipeline) readBody() ([]byte, error) {
	if p.req.Body == nil {
		return nil, nil
	}

	limit := p.handler.maxBodyBytes
	body, err := io.ReadAll(io.LimitReader(p.req.Body, limit+1))
	if err != nil {
		return body, fmt.Errorf("failed to read notification body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, limit)
	}

	return body, nil
}

func (p *pipeline) invalidBody(body []byte, cause error, message string) (Response, error) {
	p.outcome = outcomeInvalidBody
	p.logger.Warn().Err(cause).Msg("rejected notification body")

	hook := p.handler.hooks.OnInvalidBody
	if hook == nil {
		return TextResponse(http.StatusBadRequest, message), nil
	}

	decision, err := hook(p.req, body, cause)
	if err != nil {
		return Response{}, fmt.Errorf("OnInvalidBody: %w", err)
	}
	if resp, ok := decision.Response(); ok {
		return p.hostResponse("OnInvalidBody", resp), nil
	}

	return TextResponse(http.StatusBadRequest, message), nil
}

// recheck fetches the transaction back from the gateway so that nothing but
// the authenticated gateway answer drives business decisions.
func (p *pipeline) recheck(n transaction.Notification) (transaction.Notification, error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.handler.recheckTimeout)
	defer cancel()

	raw, err := p.handler.rechecker.GetTransactionStatus(ctx, n.TransactionID)
	if err != nil {
		return transaction.Notification{}, err
	}

	rechecked, err := transaction.Parse(raw)
	if err != nil {
		return transaction.Notification{}, fmt.Errorf("status response: %w", err)
	}

	if rechecked.TransactionID != n.TransactionID {
		return transaction.Notification{}, fmt.Errorf("status response is for transaction %q, expected %q",
			rechecked.TransactionID, n.TransactionID)
	}

	return rechecked, nil
}

func (p *pipeline) hostResponse(hook string, resp Response) Response {
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther:
		// The gateway does not follow these; the endpoint has to be updated
		// in the merchant dashboard.
		p.logger.Warn().
			Str("hook", hook).
			Int("status", resp.StatusCode).
			Msg("notification answered with a redirect, the gateway will not follow it")
	}
	return resp
}
