// Package upstream is the single gateway to the REST backend that owns all
// business logic: authentication, catalog, pricing, OTP payments, receipts.
// Every request carries the caller's bearer token when one is present, and
// every failure is normalized into the typed error union before it reaches
// a service.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/yannickabena/mboa-storefront/pkg/config"
	pkgerrors "github.com/yannickabena/mboa-storefront/pkg/errors"
	"github.com/yannickabena/mboa-storefront/pkg/logger"
)

// Caller is the surface services depend on.
type Caller interface {
	Do(ctx context.Context, method, path string, body, out any) error
	DoForm(ctx context.Context, method, path string, fields map[string]string, file *FileUpload, out any) error
	Download(ctx context.Context, path string) (io.ReadCloser, string, error)
}

// FileUpload describes one file part of a multipart request.
type FileUpload struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Client talks to the upstream API over JSON with bearer auth.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

type tokenCtxKey struct{}

// WithToken stamps the bearer token onto the context for the duration of a
// request chain. The session layer is the only writer.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

func tokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if token, ok := ctx.Value(tokenCtxKey{}).(string); ok {
		return token
	}
	return ""
}

// NewClient validates the configuration and builds the upstream gateway.
func NewClient(cfg config.UpstreamConfig, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("upstream base url is required")
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logg,
	}, nil
}

// Do sends a JSON request and decodes the JSON response into out (out may
// be nil when the body is irrelevant).
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(ctx, req, out)
}

// DoForm sends a multipart form-data request, used by the product and menu
// creation endpoints that accept an image.
func (c *Client) DoForm(ctx context.Context, method, path string, fields map[string]string, file *FileUpload, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing form field")
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating form file")
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "copying form file")
		}
	}
	if err := writer.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "closing multipart writer")
	}

	req, err := c.newRequest(ctx, method, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(ctx, req, out)
}

// Download streams a document (the order receipt) from the upstream. The
// caller owns the returned reader.
func (c *Client) Download(ctx context.Context, path string) (io.ReadCloser, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "calling upstream")
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, "", c.errorFromResponse(ctx, resp)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if token := tokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(ctx context.Context, req *http.Request, out any) error {
	if c.logger != nil {
		ctx = c.logger.WithFields(ctx, map[string]any{
			"upstream_method": req.Method,
			"upstream_path":   req.URL.Path,
		})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn(ctx, "upstream unreachable")
		}
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "calling upstream")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(ctx, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decoding upstream response")
	}
	return nil
}

// errorBody is the error shape the upstream emits: a message under either
// key, and a field→messages map on validation failures.
type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func (b errorBody) bestMessage(fallback string) string {
	if b.Message != "" {
		return b.Message
	}
	if b.Error != "" {
		return b.Error
	}
	return fallback
}

func (c *Client) errorFromResponse(ctx context.Context, resp *http.Response) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(raw, &body)

	if c.logger != nil {
		ctx = c.logger.WithField(ctx, "upstream_status", resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, body.bestMessage("authentication required"))
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, body.bestMessage("resource not found"))
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return pkgerrors.New(pkgerrors.CodeValidation, body.bestMessage("validation failed")).
			WithDetails(flattenFieldErrors(body.Errors))
	case resp.StatusCode >= 500:
		if c.logger != nil {
			c.logger.Warn(ctx, "upstream server error")
		}
		return pkgerrors.New(pkgerrors.CodeUpstream, body.bestMessage("the service is temporarily unavailable"))
	default:
		return pkgerrors.New(pkgerrors.CodeUpstream, body.bestMessage(fmt.Sprintf("upstream returned status %d", resp.StatusCode)))
	}
}

// flattenFieldErrors keeps the first message per field, which is what the
// forms surface inline.
func flattenFieldErrors(raw map[string][]string) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	flat := make(map[string]string, len(raw))
	for field, messages := range raw {
		if len(messages) > 0 {
			flat[field] = messages[0]
		}
	}
	return flat
}
