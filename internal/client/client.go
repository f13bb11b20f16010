package client

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

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	tracerName     = "storefront.client"

	headerUserID         = "UserId"
	headerIdempotencyKey = "Idempotency-Key"

	maxErrorBody = 64 << 10
)

// APIMetrics получает результат каждого запроса к backend.
type APIMetrics interface {
	ObserveAPIRequest(operation string, duration time.Duration, err error)
}

// Auth — данные сессии, которые customer- и admin-запросы передают в заголовках.
type Auth struct {
	Token  string
	UserID string
}

// Options задаёт параметры Client.
type Options struct {
	HTTPClient     *http.Client
	TracerProvider trace.TracerProvider
	Metrics        APIMetrics
	Logger         *log.Entry
}

// Option настраивает Client.
type Option func(*Options)

// WithHTTPClient задаёт http.Client (таймауты, transport).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(opts *Options) {
		opts.HTTPClient = httpClient
	}
}

// WithTracerProvider задаёт провайдер трассировки вместо глобального.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(opts *Options) {
		opts.TracerProvider = provider
	}
}

// WithMetrics задаёт получателя метрик запросов.
func WithMetrics(metrics APIMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = metrics
	}
}

// WithLogger задаёт logger клиента.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// Client — HTTP клиент storefront backend. Повторов нет: каждая операция выполняет один запрос.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tracer  trace.Tracer
	metrics APIMetrics
	logger  *log.Entry
}

// New создаёт клиент для backend по адресу baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	var opts Options
	for _, option := range options {
		option(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "storefront-client")
	}

	return &Client{
		baseURL: parsed,
		http:    opts.HTTPClient,
		tracer:  opts.TracerProvider.Tracer(tracerName),
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}, nil
}

type request struct {
	operation string
	method    string
	path      string
	query     url.Values
	auth      *Auth
	headers   map[string]string
	body      any
}

// do выполняет запрос и декодирует JSON ответа в out (если out != nil).
func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, tracerName+"/"+req.operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.method),
			attribute.String("http.route", req.path),
		),
	)
	started := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, Describe(err))
		}
		span.End()
		if c.metrics != nil {
			c.metrics.ObserveAPIRequest(req.operation, time.Since(started), err)
		}
	}()

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return err
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WithError(err).WithField("operation", req.operation).Warn("backend request failed")
		return fmt.Errorf("%s: %w: %v", req.operation, domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := decodeAPIError(resp.StatusCode, body)
		c.logger.WithFields(log.Fields{
			"operation": req.operation,
			"status":    resp.StatusCode,
		}).Debug("backend returned error")
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", req.operation, err)
	}
	return nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req request) (*http.Request, error) {
	target := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", req.operation, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", req.operation, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.auth != nil {
		if req.auth.Token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+req.auth.Token)
		}
		if req.auth.UserID != "" {
			httpReq.Header.Set(headerUserID, req.auth.UserID)
		}
	}
	for name, value := range req.headers {
		httpReq.Header.Set(name, value)
	}
	return httpReq, nil
}
