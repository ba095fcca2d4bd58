package paymentgateway

import (
	"net/http"

	"github.com/alimikegami/nextrans-go/config"
	"github.com/alimikegami/nextrans-go/pkg/nextrans"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func CreateNextransClient(config *config.Config) (*nextrans.Client, error) {
	conf := config.NextransConfig

	environment, err := nextrans.ParseEnvironment(conf.Environment)
	if err != nil {
		return nil, err
	}

	opts := nextrans.Options{
		Environment: environment,
		Sandbox: nextrans.AccessKeys{
			MerchantID: conf.MerchantID,
			ServerKey:  conf.ServerKey,
			ClientKey:  conf.ClientKey,
		},
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   conf.RequestTimeout,
		},
		BaseURL:        conf.BaseURL,
		CoreBaseURL:    conf.CoreBaseURL,
		CircuitBreaker: true,
	}

	if conf.ProductionServerKey != "" {
		opts.Production = &nextrans.AccessKeys{
			MerchantID: conf.ProductionMerchantID,
			ServerKey:  conf.ProductionServerKey,
			ClientKey:  conf.ProductionClientKey,
		}
	}

	return nextrans.New(opts)
}
