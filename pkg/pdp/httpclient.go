package pdp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

// HTTPClient is a concrete Client implementation that evaluates requests
// against a remote PDP over HTTP, POSTing the wire request body and
// decoding the wire response body per spec §6.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying *http.Client (e.g. for custom
// transports in tests).
func WithHTTPClient(c *http.Client) HTTPClientOption {
	return func(h *HTTPClient) { h.httpClient = c }
}

// WithRateLimit shapes outbound evaluate calls to at most ratePerSecond per
// second (0 disables shaping). The core does not retry failed calls (§7);
// this only sheds load before issuing a call that would likely time out
// under backpressure.
func WithRateLimit(ratePerSecond float64) HTTPClientOption {
	return func(h *HTTPClient) {
		if ratePerSecond > 0 {
			h.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
		}
	}
}

// WithLogger overrides the client's structured logger.
func WithLogger(logger *slog.Logger) HTTPClientOption {
	return func(h *HTTPClient) { h.logger = logger }
}

// NewHTTPClient builds an HTTPClient against endpoint with the given
// timeout for each call.
func NewHTTPClient(endpoint string, timeout time.Duration, opts ...HTTPClientOption) *HTTPClient {
	h := &HTTPClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "pdp.http_client"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Evaluate implements Client.
func (h *HTTPClient) Evaluate(ctx context.Context, req *EvaluationRequest) (*EvaluationResponse, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, NewError(ErrCodeServiceUnavailable, "rate limiter wait failed", err)
		}
	}

	// The subject's tenant id travels in subject.properties, never promoted
	// to the tenant context here — that rule belongs to the enforcer
	// (pkg/pep), not the transport. If a bearer token is present and the
	// subject type was never set explicitly, fill it in from the token's
	// claims as a best-effort default; an unparseable token leaves the
	// subject type untouched rather than failing the call, since the PDP
	// (not this transport) is authoritative over subject validity.
	if req.Subject.SubjectType == "" && req.Context.BearerToken != "" {
		if claims, err := unverifiedClaims(req.Context.BearerToken); err == nil {
			if st, ok := claims["subject_type"].(string); ok {
				req.Subject.SubjectType = st
			}
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, NewError(ErrCodeInternal, "marshal evaluation request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(ErrCodeInternal, "build evaluation request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Context.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Context.BearerToken)
	}

	httpResp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return nil, NewError(ErrCodeServiceUnavailable, "evaluate request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewError(ErrCodeInternal, "read evaluation response", err)
	}

	switch httpResp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized:
		return nil, NewError(ErrCodeUnauthorized, "pdp rejected credentials", nil)
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusBadGateway:
		return nil, NewError(ErrCodeServiceUnavailable, "pdp unavailable", nil)
	case http.StatusNotFound:
		return nil, NewError(ErrCodeNoPluginAvailable, "no pdp plugin for resource type", nil)
	default:
		return nil, NewError(ErrCodeInternal, fmt.Sprintf("pdp returned status %d", httpResp.StatusCode), nil)
	}

	var resp EvaluationResponse
	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return nil, NewError(ErrCodeInternal, "decode evaluation response", err)
	}
	resp.EvaluatedAt = time.Now()

	if hash, err := ComputeDecisionHash(&resp); err == nil {
		resp.DecisionHash = hash
		h.logger.DebugContext(ctx, "pdp evaluation completed",
			"decision", resp.Decision,
			"decision_hash", hash,
			"resource_type", req.Resource.ResourceType,
			"action", req.Action.Name,
		)
	}

	return &resp, nil
}

// unverifiedClaims extracts the claims map from a bearer token without
// verifying its signature. This is only ever used to fill in a logging/
// routing default (subject type); it MUST NOT be used for any
// authorization decision — signature verification and policy evaluation
// both remain the PDP's responsibility.
func unverifiedClaims(token string) (jwt.MapClaims, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	_, _, err := parser.ParseUnverified(token, claims)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
