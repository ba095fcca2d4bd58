// Package nextrans wires the gateway clients for one environment.
package nextrans

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/alimikegami/nextrans-go/pkg/httpclient"
	"github.com/alimikegami/nextrans-go/pkg/snap"
	"github.com/midtrans/midtrans-go"
)

const (
	SnapSandboxBaseURL    = "https://app.sandbox.midtrans.com"
	SnapProductionBaseURL = "https://app.midtrans.com"

	CoreSandboxBaseURL    = "https://api.sandbox.midtrans.com"
	CoreProductionBaseURL = "https://api.midtrans.com"
)

// AccessKeys identify a merchant. ClientKey is only needed to embed the
// payment page in a browser.
type AccessKeys struct {
	MerchantID string
	ServerKey  string
	ClientKey  string
}

type Options struct {
	// Environment defaults to midtrans.Sandbox.
	Environment midtrans.EnvironmentType

	Sandbox AccessKeys
	// Production is required when Environment is midtrans.Production.
	Production *AccessKeys

	// HTTPClient sends every gateway request. It is required.
	HTTPClient *http.Client

	// BaseURL overrides the Snap API base URL, CoreBaseURL the Core API one.
	BaseURL     string
	CoreBaseURL string

	// CircuitBreaker wraps requests to each API in a breaker when set.
	CircuitBreaker bool
}

type Client struct {
	environment midtrans.EnvironmentType
	accessKeys  AccessKeys
	snapBaseURL string

	Snap *snap.Client
}

func New(opts Options) (*Client, error) {
	environment := opts.Environment
	if environment == 0 {
		environment = midtrans.Sandbox
	}

	if opts.HTTPClient == nil {
		return nil, errs.NewConfigurationError("an HTTP client is required, set Options.HTTPClient")
	}

	var (
		keys        AccessKeys
		snapBaseURL string
		coreBaseURL string
	)

	switch environment {
	case midtrans.Sandbox:
		keys = opts.Sandbox
		snapBaseURL = SnapSandboxBaseURL
		coreBaseURL = CoreSandboxBaseURL
	case midtrans.Production:
		if opts.Production == nil {
			return nil, errs.NewConfigurationError("environment is production, yet production access keys are undefined.")
		}
		keys = *opts.Production
		snapBaseURL = SnapProductionBaseURL
		coreBaseURL = CoreProductionBaseURL
	default:
		return nil, errs.NewConfigurationError(fmt.Sprintf("unknown environment %d", environment))
	}

	if keys.ServerKey == "" {
		return nil, errs.NewConfigurationError("server key is empty")
	}

	if opts.BaseURL != "" {
		snapBaseURL = opts.BaseURL
	}
	if opts.CoreBaseURL != "" {
		coreBaseURL = opts.CoreBaseURL
	}

	snapRequester, err := newRequester("snap", snapBaseURL, keys.ServerKey, opts)
	if err != nil {
		return nil, err
	}
	coreRequester, err := newRequester("core", coreBaseURL, keys.ServerKey, opts)
	if err != nil {
		return nil, err
	}

	snapClient, err := snap.New(snapRequester, coreRequester, keys.ServerKey)
	if err != nil {
		return nil, err
	}

	return &Client{
		environment: environment,
		accessKeys:  keys,
		snapBaseURL: strings.TrimSuffix(snapBaseURL, "/"),
		Snap:        snapClient,
	}, nil
}

func newRequester(name, baseURL, serverKey string, opts Options) (*httpclient.Client, error) {
	var clientOpts []httpclient.Option
	if opts.CircuitBreaker {
		clientOpts = append(clientOpts, httpclient.WithCircuitBreaker(httpclient.NewCircuitBreaker("nextrans-"+name)))
	}
	return httpclient.NewClient(baseURL, serverKey, opts.HTTPClient, clientOpts...)
}

// ParseEnvironment maps "sandbox" and "production" to the gateway
// environment. An empty string selects the sandbox.
func ParseEnvironment(s string) (midtrans.EnvironmentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sandbox":
		return midtrans.Sandbox, nil
	case "production":
		return midtrans.Production, nil
	}
	return 0, errs.NewConfigurationError(fmt.Sprintf("unknown environment %q", s))
}

func (c *Client) Environment() midtrans.EnvironmentType {
	return c.environment
}

func (c *Client) MerchantID() string {
	return c.accessKeys.MerchantID
}

// ClientKey is safe to hand to browsers.
func (c *Client) ClientKey() string {
	return c.accessKeys.ClientKey
}

// SnapScriptURL is the script that opens the payment page from a Snap
// token. It has to be loaded with the client key in the
// data-client-key attribute.
func (c *Client) SnapScriptURL() string {
	return c.snapBaseURL + "/snap/snap.js"
}
