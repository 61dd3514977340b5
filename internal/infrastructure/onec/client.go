package onec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fieldcrm/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from the 1C web
// service (10MB)
const maxResponseSize = 10 * 1024 * 1024

// defaultNamespace is the service namespace 1C publishes web services
// under unless the configuration overrides it
const defaultNamespace = "http://wsdl.1c.ru/catalog"

var (
	// ErrServiceUnavailable indicates the endpoint could not be reached
	ErrServiceUnavailable = errors.New("onec: service unavailable")
	// ErrRequestFailed indicates the endpoint rejected the request
	ErrRequestFailed = errors.New("onec: request failed")
	// ErrMalformedEnvelope indicates a response that is not a usable
	// SOAP envelope
	ErrMalformedEnvelope = errors.New("onec: malformed response envelope")
)

// ClientConfig holds transport settings for the 1C web service client
type ClientConfig struct {
	// Namespace overrides the service namespace in request envelopes
	Namespace      string
	TimeoutSeconds int
}

// DefaultClientConfig returns the default transport settings
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Namespace:      defaultNamespace,
		TimeoutSeconds: 60,
	}
}

// Client fetches catalog records from a 1C enterprise web service over
// SOAP. It implements integration.RecordSource. Envelope oddities the
// remote side is known to produce are tolerated and logged; transport and
// authentication failures are returned to the caller.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a 1C web service client
func NewClient(config ClientConfig, logger *zap.Logger) *Client {
	if config.Namespace == "" {
		config.Namespace = defaultNamespace
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 60
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

// itemElementName returns the named item-array element for a sync kind
func itemElementName(kind integration.SyncKind) string {
	if kind == integration.SyncKindClients {
		return "ClientItem"
	}
	return "ProductItem"
}

// Fetch invokes the integration's remote procedure for the given kind and
// unwraps the response into a flat ordered record list
func (c *Client) Fetch(ctx context.Context, integ *integration.Integration, kind integration.SyncKind) ([]integration.ExternalRecord, error) {
	method, err := integ.MethodFor(kind)
	if err != nil {
		return nil, err
	}

	log := c.logger.With(
		zap.String("integration", integ.Name),
		zap.String("method", method),
	)

	raw, err := c.call(ctx, integ, method)
	if err != nil {
		return nil, err
	}

	response, err := parseResponseEnvelope(raw)
	if err != nil {
		var fault *soapFault
		if errors.As(err, &fault) {
			return nil, fmt.Errorf("%w: %v", ErrRequestFailed, fault)
		}
		return nil, err
	}

	items, count, err := unwrapResult(response, itemElementName(kind))
	if err != nil {
		// The envelope parsed but the payload shape is unknown; treat as
		// empty rather than failing the run over a cosmetic schema drift
		log.Warn("Unrecognized result shape, treating as empty", zap.Error(err))
		return nil, nil
	}
	if count >= 0 {
		log.Info("Remote reported count without items", zap.Int("reported_count", count))
		return nil, nil
	}

	records := make([]integration.ExternalRecord, 0, len(items))
	for _, item := range items {
		records = append(records, recordFromNode(item))
	}
	log.Debug("Fetched records", zap.Int("count", len(records)))
	return records, nil
}

// call performs one SOAP request against the integration's endpoint
func (c *Client) call(ctx context.Context, integ *integration.Integration, method string) ([]byte, error) {
	envelope, err := buildRequestEnvelope(method, c.config.Namespace)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, integ.EndpointURL, bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("onec: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", c.config.Namespace+"#"+method)
	if integ.Username != "" {
		req.SetBasicAuth(integ.Username, integ.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("onec: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}
	return body, nil
}

// recordFromNode flattens a record element's scalar children into an
// ordered attribute list
func recordFromNode(node *xmlNode) integration.ExternalRecord {
	var rec integration.ExternalRecord
	for i := range node.Children {
		child := &node.Children[i]
		rec.Set(child.local(), child.text())
	}
	return rec
}
