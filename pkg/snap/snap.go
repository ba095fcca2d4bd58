package snap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/alimikegami/nextrans-go/pkg/httpclient"
	"github.com/alimikegami/nextrans-go/pkg/notification"
	"github.com/alimikegami/nextrans-go/pkg/transaction"
)

// Client calls the Snap API for transaction creation and the Core API for
// transaction status.
type Client struct {
	snapRequester httpclient.Requester
	coreRequester httpclient.Requester
	serverKey     string
}

func New(snapRequester, coreRequester httpclient.Requester, serverKey string) (*Client, error) {
	if snapRequester == nil || coreRequester == nil {
		return nil, errs.NewConfigurationError("snap and core requesters are required")
	}
	if serverKey == "" {
		return nil, errs.NewConfigurationError("server key is empty")
	}

	return &Client{
		snapRequester: snapRequester,
		coreRequester: coreRequester,
		serverKey:     serverKey,
	}, nil
}

// CreateTransaction registers req with the gateway and returns the token and
// URL of its payment page.
func (c *Client) CreateTransaction(ctx context.Context, req Request) (CreateTransactionResponse, error) {
	body, err := c.snapRequester.Post(ctx, "/snap/v1/transactions", req, nil)
	if err != nil {
		return CreateTransactionResponse{}, err
	}

	var resp CreateTransactionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return CreateTransactionResponse{}, &errs.ValidationError{Reason: "create transaction response", Cause: err}
	}
	if err := transaction.Validate(resp); err != nil {
		return CreateTransactionResponse{}, fmt.Errorf("create transaction response: %w", err)
	}

	return resp, nil
}

// GetTransactionStatus returns the raw status of a transaction. It makes
// Client usable as a notification.Rechecker.
func (c *Client) GetTransactionStatus(ctx context.Context, transactionID string) ([]byte, error) {
	return c.coreRequester.Get(ctx, "/v2/"+url.PathEscape(transactionID)+"/status", nil, nil)
}

// statusHeader is the part of a status response present even when the
// gateway reports an error inside a 200 answer.
type statusHeader struct {
	StatusCode    string `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// TransactionStatus fetches and validates the status of a transaction. An
// order id may be passed instead of a transaction id. Unknown transactions
// are reported as errs.ErrTransactionNotFound, whether the gateway answers
// with HTTP 404 or with status_code "404" in the body.
func (c *Client) TransactionStatus(ctx context.Context, transactionID string) (transaction.Notification, error) {
	raw, err := c.GetTransactionStatus(ctx, transactionID)
	var gerr *errs.GatewayError
	if errors.As(err, &gerr) && gerr.StatusCode == http.StatusNotFound {
		return transaction.Notification{}, fmt.Errorf("%w: %s: %w", errs.ErrTransactionNotFound, transactionID, err)
	}
	if err != nil {
		return transaction.Notification{}, err
	}

	var header statusHeader
	if err := json.Unmarshal(raw, &header); err == nil && header.StatusCode == "404" {
		return transaction.Notification{}, fmt.Errorf("%w: %s: %s", errs.ErrTransactionNotFound, transactionID, header.StatusMessage)
	}

	return transaction.Parse(raw)
}

// NotificationHandler returns a webhook handler that rechecks notifications
// against this client.
func (c *Client) NotificationHandler(hooks notification.Hooks, opts ...notification.Option) (*notification.Handler, error) {
	return notification.NewHandler(c, c.serverKey, hooks, opts...)
}
