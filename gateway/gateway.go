package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/jrsteele09/go-schooltracker-client/credentials"
	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
)

const (
	RequestIDHeader = "X-Request-ID"
	jsonContentType = "application/json"
)

// TokenSource supplies the access token at call time.
type TokenSource interface {
	ReadAccess() string
}

// Refresher recovers from an expired access token. staleAccess is the token
// the rejected request carried.
type Refresher interface {
	Refresh(ctx context.Context, staleAccess string) (credentials.TokenPair, error)
}

// Request describes one outbound call. Body is kept as bytes so the call can
// be replayed after a refresh.
type Request struct {
	Method      string
	Path        string // relative to the base URL, or absolute
	Query       url.Values
	Body        []byte
	ContentType string
	Header      http.Header
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into v. An empty body leaves v untouched.
func (r *Response) DecodeJSON(v any) error {
	if v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidResponse, err)
	}
	return nil
}

// Gateway attaches credentials to every outbound call and retries a call once
// after a 401 when the refresher can supply a new token.
type Gateway struct {
	baseURL   string
	client    *http.Client
	tokens    TokenSource
	refresher Refresher
	limiter   *rate.Limiter
	tracer    trace.Tracer
}

type Option func(*Gateway)

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.client = client
	}
}

// WithRateLimit caps outbound calls at rpm per minute with the given burst.
// rpm <= 0 disables limiting.
func WithRateLimit(rpm, burst int) Option {
	return func(g *Gateway) {
		if rpm <= 0 {
			g.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
	}
}

func New(baseURL string, tokens TokenSource, refresher Refresher, options ...Option) *Gateway {
	g := &Gateway{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		tokens:    tokens,
		refresher: refresher,
		tracer:    otel.Tracer("github.com/jrsteele09/go-schooltracker-client/gateway"),
	}
	for _, opt := range options {
		opt(g)
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: 15 * time.Second}
	}
	return g
}

// Send performs req. A 401 on an authenticated call triggers exactly one
// refresh-and-retry; any other non-2xx status is returned as *HTTPError.
func (g *Gateway) Send(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.Send", trace.WithAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.path", req.Path),
	))
	defer span.End()

	requestID := uuid.New().String()
	sentToken := g.tokens.ReadAccess()

	resp, err := g.do(ctx, req, requestID, sentToken)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// A 401 on a call that carried no token cannot be fixed by refreshing.
	retried := false
	if resp.StatusCode == http.StatusUnauthorized && g.refresher != nil && sentToken != "" {
		retried = true
		log.Debug().Str("request_id", requestID).Str("path", req.Path).Msg("access token rejected, refreshing")

		pair, err := g.refresher.Refresh(ctx, sentToken)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		span.AddEvent("token refreshed")

		resp, err = g.do(ctx, req, requestID, pair.Access)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode), attribute.Bool("retried", retried))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{Status: resp.StatusCode, Body: resp.Body}
		span.SetStatus(codes.Error, httpErr.Error())
		return nil, httpErr
	}
	return resp, nil
}

func (g *Gateway) do(ctx context.Context, req *Request, requestID, accessToken string) (*Response, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrTransport, err)
		}
	}

	target, err := g.resolve(req)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", jsonContentType)
	httpReq.Header.Set(RequestIDHeader, requestID)
	if req.Body != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = jsonContentType
		}
		httpReq.Header.Set("Content-Type", contentType)
	}
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken}).SetAuthHeader(httpReq)
	}

	started := time.Now()
	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		log.Warn().Err(err).Str("request_id", requestID).Str("method", req.Method).Str("path", req.Path).Msg("request failed")
		return nil, fmt.Errorf("%w: %s %s: %w", errors.ErrTransport, req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", errors.ErrTransport, err)
	}

	log.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("request")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func (g *Gateway) resolve(req *Request) (string, error) {
	target := req.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		if !strings.HasPrefix(target, "/") {
			target = "/" + target
		}
		target = g.baseURL + target
	}
	if len(req.Query) == 0 {
		return target, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("gateway: parse %q: %w", target, err)
	}
	q := u.Query()
	for k, values := range req.Query {
		for _, v := range values {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (g *Gateway) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := g.Send(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return err
	}
	return resp.DecodeJSON(out)
}

func (g *Gateway) PostJSON(ctx context.Context, path string, in, out any) error {
	return g.sendJSON(ctx, http.MethodPost, path, in, out)
}

func (g *Gateway) PatchJSON(ctx context.Context, path string, in, out any) error {
	return g.sendJSON(ctx, http.MethodPatch, path, in, out)
}

func (g *Gateway) Delete(ctx context.Context, path string) error {
	_, err := g.Send(ctx, &Request{Method: http.MethodDelete, Path: path})
	return err
}

// PostMultipart uploads fields and files as multipart/form-data.
func (g *Gateway) PostMultipart(ctx context.Context, path string, fields map[string]string, files []FormFile, out any) error {
	body, contentType, err := EncodeMultipart(fields, files...)
	if err != nil {
		return fmt.Errorf("gateway: encode multipart: %w", err)
	}
	resp, err := g.Send(ctx, &Request{Method: http.MethodPost, Path: path, Body: body, ContentType: contentType})
	if err != nil {
		return err
	}
	return resp.DecodeJSON(out)
}

func (g *Gateway) sendJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("gateway: encode body: %w", err)
	}
	resp, err := g.Send(ctx, &Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	return resp.DecodeJSON(out)
}
