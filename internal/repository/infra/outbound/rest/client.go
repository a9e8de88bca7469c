package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/shared/platform/query"
	"github.com/davicafu/hexaquery/shared/platform/querystring"
	sharedUtils "github.com/davicafu/hexaquery/shared/utils"
)

// Client habla con un API estilo PostgREST. Un mismo Client sirve como
// Backend y como base de los repositorios de cada recurso.
type Client struct {
	baseURL    string
	http       *http.Client
	names      querystring.NameMapper
	pageSize   int
	attempts   int
	retryDelay time.Duration
	log        *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithNames fija la conversión entre nombres de campo y parámetros.
func WithNames(n querystring.NameMapper) Option {
	return func(cl *Client) {
		if n != nil {
			cl.names = n
		}
	}
}

// WithDefaultPageSize limita las lecturas que no fijan limit. 0 lo desactiva.
func WithDefaultPageSize(n int) Option {
	return func(cl *Client) { cl.pageSize = n }
}

// WithRetries reintenta lecturas (GET y HEAD) ante errores de red o 5xx.
func WithRetries(attempts int, delay time.Duration) Option {
	return func(cl *Client) {
		if attempts > 0 {
			cl.attempts = attempts
		}
		cl.retryDelay = delay
	}
}

func NewClient(baseURL string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		names:    querystring.SnakeNames,
		attempts: 1,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ---------------- Errores ----------------

// ResponseError es una respuesta HTTP con estado de error.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Unwrap permite errors.Is(err, domain.ErrUnknownResource) ante un 404.
func (e *ResponseError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrUnknownResource
	}
	return nil
}

func retryable(err error) bool {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// ---------------- Peticiones ----------------

type request struct {
	method   string
	resource string
	query    query.Query
	body     query.Record
	prefer   string
	token    string
}

type response struct {
	header http.Header
	body   []byte
}

func (c *Client) url(resource string, q query.Query) string {
	u := c.baseURL + "/" + resource
	if encoded := querystring.Encode(q, querystring.WithNames(c.names)); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// do ejecuta la petición. GET y HEAD se reintentan; las escrituras no,
// porque no son idempotentes.
func (c *Client) do(ctx context.Context, req request) (response, error) {
	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(querystring.ConvertKeys(req.body, c.names.ToWire))
		if err != nil {
			return response{}, fmt.Errorf("failed to encode body: %w", err)
		}
	}

	var resp response
	send := func() error {
		var err error
		resp, err = c.send(ctx, req, payload)
		return err
	}

	if req.method != http.MethodGet && req.method != http.MethodHead {
		err := send()
		return resp, err
	}

	err := sharedUtils.Retry(ctx, c.attempts, c.retryDelay, retryable, func(attempt int) error {
		err := send()
		if err != nil && attempt < c.attempts && retryable(err) {
			c.log.Warn("Request failed, retrying",
				zap.String("method", req.method),
				zap.String("resource", req.resource),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return err
	})
	return resp, err
}

func (c *Client) send(ctx context.Context, req request, payload []byte) (response, error) {
	target := c.url(req.resource, req.query)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return response{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.prefer != "" {
		httpReq.Header.Set("Prefer", req.prefer)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return response{}, fmt.Errorf("http error: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{}, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode >= http.StatusBadRequest {
		return response{}, &ResponseError{
			Method:     req.method,
			URL:        target,
			StatusCode: httpResp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	return response{header: httpResp.Header, body: data}, nil
}

// records decodifica un array JSON y devuelve las claves a nombres de campo.
func (c *Client) records(data []byte) ([]query.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []query.Record{}, nil
	}
	raw, err := query.UnmarshalRecords(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	out := make([]query.Record, len(raw))
	for i, r := range raw {
		out[i] = querystring.ConvertKeys(r, c.names.FromWire)
	}
	return out, nil
}

// ContentRange es una cabecera Content-Range ya interpretada.
type ContentRange struct {
	// Length es el número de registros del rango ("0-9" son 10, "*" son 0).
	Length int
	// Total es el total sin paginar; -1 si el servidor responde "*".
	Total int
}

// ParseContentRange interpreta "desde-hasta/total", "*/total" y
// "desde-hasta/*".
func ParseContentRange(header string) (ContentRange, error) {
	span, total, found := strings.Cut(strings.TrimSpace(header), "/")
	if !found {
		return ContentRange{}, fmt.Errorf("invalid content-range %q", header)
	}

	cr := ContentRange{Total: -1}
	if total != "*" {
		n, err := strconv.Atoi(total)
		if err != nil || n < 0 {
			return ContentRange{}, fmt.Errorf("invalid content-range %q", header)
		}
		cr.Total = n
	}
	if span == "*" {
		return cr, nil
	}

	from, to, found := strings.Cut(span, "-")
	if !found {
		return ContentRange{}, fmt.Errorf("invalid content-range %q", header)
	}
	start, err := strconv.Atoi(from)
	if err != nil {
		return ContentRange{}, fmt.Errorf("invalid content-range %q: %w", header, err)
	}
	end, err := strconv.Atoi(to)
	if err != nil || end < start {
		return ContentRange{}, fmt.Errorf("invalid content-range %q", header)
	}
	cr.Length = end - start + 1
	return cr, nil
}

// Count devuelve cuántos registros devolvería q. Con total conocido se
// calcula a partir de él, porque el servidor puede recortar la página; sin
// total solo queda la longitud del rango.
func (cr ContentRange) Count(q query.Query) int {
	if cr.Total < 0 {
		return cr.Length
	}
	offset, _ := q.Offset()
	n := cr.Total - offset
	if n < 0 {
		n = 0
	}
	if limit, ok := q.Limit(); ok && limit < n {
		n = limit
	}
	return n
}
