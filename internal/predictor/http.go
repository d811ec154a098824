package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultTimeout bounds one predictor round trip when no timeout is
// configured.
const DefaultTimeout = 120 * time.Second

// maxResponseBytes caps how much of a backend response is read; prediction
// payloads are small and a misbehaving backend should not exhaust memory.
const maxResponseBytes = 1 << 20

// HTTPOptions configures an HTTPPredictor. Endpoint and Model are required.
type HTTPOptions struct {
	Endpoint string
	Model    string
	// APIKey, when set, is sent as a bearer token. Local backends usually
	// leave it empty.
	APIKey  string
	Timeout time.Duration
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// HTTPPredictor performs one POST round trip per prediction against a
// JSON prediction endpoint.
type HTTPPredictor struct {
	endpoint string
	model    string
	apiKey   string
	timeout  time.Duration
	client   *http.Client
}

// NewHTTPPredictor validates the options and builds a predictor. A missing
// endpoint or model is a construction error: no run is meaningful without a
// reachable backend identity.
func NewHTTPPredictor(opts HTTPOptions) (*HTTPPredictor, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, errors.New("predictor endpoint is required")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("predictor model is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}

	return &HTTPPredictor{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		model:    opts.Model,
		apiKey:   opts.APIKey,
		timeout:  timeout,
		client:   client,
	}, nil
}

func (p *HTTPPredictor) Model() string    { return p.model }
func (p *HTTPPredictor) Endpoint() string { return p.endpoint }

// Predict posts the request and parses the response. All failures come back
// inside the Prediction: connection problems wrap ErrConnection, deadline
// overruns wrap ErrTimeout, and unparseable bodies yield a
// MalformedResponseError carrying the raw text.
func (p *HTTPPredictor) Predict(ctx context.Context, req Request) Prediction {
	start := time.Now()
	fail := func(err error) Prediction {
		return Prediction{Err: err, DurationMs: time.Since(start).Milliseconds()}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fail(fmt.Errorf("encoding request: %w", err))
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Errorf("building request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fail(classifyTransportError(err))
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(classifyTransportError(err))
	}

	if resp.StatusCode != http.StatusOK {
		return fail(&MalformedResponseError{
			Reason: fmt.Sprintf("unexpected status %s", resp.Status),
			Raw:    string(raw),
		})
	}

	parsed, err := parseResponse(raw)
	if err != nil {
		return fail(err)
	}

	return Prediction{Response: parsed, DurationMs: time.Since(start).Milliseconds()}
}

// parseResponse decodes and schema-checks a response body, yielding either
// a well-formed prediction or a MalformedResponseError with the raw text.
// Validation happens before any accuracy comparison, so a bad shape can
// never masquerade as a wrong-but-valid answer.
func parseResponse(raw []byte) (*Response, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &MalformedResponseError{
			Reason: fmt.Sprintf("invalid JSON: %v", err),
			Raw:    string(raw),
		}
	}

	if violations := validateResponseDoc(doc); len(violations) > 0 {
		return nil, &MalformedResponseError{
			Reason: strings.Join(violations, "; "),
			Raw:    string(raw),
		}
	}

	var parsed Response
	if err := mapstructure.Decode(doc, &parsed); err != nil {
		return nil, &MalformedResponseError{
			Reason: fmt.Sprintf("decoding response: %v", err),
			Raw:    string(raw),
		}
	}

	if _, ok := parsed.Level(); !ok {
		// Unreachable after schema validation, kept as a guard for schema
		// drift.
		return nil, &MalformedResponseError{
			Reason: fmt.Sprintf("invalid classification %q", parsed.Classification),
			Raw:    string(raw),
		}
	}

	return &parsed, nil
}

// classifyTransportError maps an HTTP client error onto the failure
// taxonomy.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}
