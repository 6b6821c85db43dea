// Package client talks to the student records API. Every call returns a
// Result; callers branch on Result.Err.Kind instead of inspecting
// transport details.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/query"
)

const maxErrorBody = 64 << 10

// Client is a thin wrapper over the HTTP API rooted at BaseURL
// (e.g. http://localhost:8080/api).
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client. No request timeout is set beyond what ctx carries.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "api_client").Logger()
	return c
}

// List fetches every record, normalized.
func (c *Client) List(ctx context.Context) Result[[]model.Student] {
	body, apiErr := c.do(ctx, http.MethodGet, "/students", nil)
	if apiErr != nil {
		return failure[[]model.Student](apiErr)
	}
	students, err := NormalizeList(body)
	if err != nil {
		return failure[[]model.Student](&Error{Kind: KindConnectivity, Message: "unexpected response from server", cause: err})
	}
	return success(students)
}

// Create inserts a full record and returns the server's acknowledgement.
// A missing ID is generated before the request is sent.
func (c *Client) Create(ctx context.Context, req model.StudentRequest) Result[string] {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return c.ack(ctx, http.MethodPost, "/students", req)
}

// Replace overwrites the record with id. The server answers success even
// when id does not exist.
func (c *Client) Replace(ctx context.Context, id string, req model.StudentRequest) Result[string] {
	return c.ack(ctx, http.MethodPut, "/students/"+url.PathEscape(id), req)
}

// Delete removes the record with id; a missing id is still a success.
func (c *Client) Delete(ctx context.Context, id string) Result[string] {
	return c.ack(ctx, http.MethodDelete, "/students/"+url.PathEscape(id), nil)
}

// Reset removes every record.
func (c *Client) Reset(ctx context.Context) Result[string] {
	return c.ack(ctx, http.MethodPost, "/reset", nil)
}

// ExportCSV downloads the filtered, sorted list as CSV.
func (c *Client) ExportCSV(ctx context.Context, state query.ViewState) Result[[]byte] {
	v := url.Values{}
	if state.Filter != "" {
		v.Set("filter", state.Filter)
	}
	if state.SortKey != "" {
		v.Set("sort", state.SortKey)
	}
	v.Set("dir", string(state.SortDir))

	body, apiErr := c.do(ctx, http.MethodGet, "/students/export.csv?"+v.Encode(), nil)
	if apiErr != nil {
		return failure[[]byte](apiErr)
	}
	return success(body)
}

// BulkDeleteReport says which deletes went through. Failed keeps the error
// per id so callers can show it and re-fetch.
type BulkDeleteReport struct {
	Succeeded []string
	Failed    map[string]*Error
}

// Complete reports whether every delete succeeded.
func (r BulkDeleteReport) Complete() bool { return len(r.Failed) == 0 }

// BulkDelete deletes ids one at a time, in order, waiting for each before
// the next. A failure does not stop the remaining deletes. A cancelled ctx
// fails every id not yet attempted.
func (c *Client) BulkDelete(ctx context.Context, ids []string) BulkDeleteReport {
	report := BulkDeleteReport{
		Succeeded: make([]string, 0, len(ids)),
		Failed:    make(map[string]*Error),
	}
	for _, id := range ids {
		res := c.Delete(ctx, id)
		if res.OK() {
			report.Succeeded = append(report.Succeeded, id)
			continue
		}
		c.log.Warn().Str("student_id", id).Err(res.Err).Msg("bulk delete step failed")
		report.Failed[id] = res.Err
	}
	return report
}

func (c *Client) ack(ctx context.Context, method, path string, payload interface{}) Result[string] {
	body, apiErr := c.do(ctx, method, path, payload)
	if apiErr != nil {
		return failure[string](apiErr)
	}
	var ack struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		return failure[string](&Error{Kind: KindConnectivity, Message: "unexpected response from server", cause: err})
	}
	return success(ack.Message)
}

// do sends one request and returns the body of a 2xx answer. Every other
// outcome becomes an *Error.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, *Error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Message: "payload cannot be encoded", cause: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &Error{Kind: KindConnectivity, Message: "invalid API address", cause: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, &Error{Kind: KindConnectivity, Message: "cannot reach the server", cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindConnectivity, Status: resp.StatusCode, Message: "connection dropped while reading the response", cause: err}
	}

	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("request done")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, errorFromResponse(resp.StatusCode, body)
}

// apiError mirrors the server's error body.
type apiError struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Fields    map[string]string `json:"fields"`
	RequestID string            `json:"request_id"`
}

func errorFromResponse(status int, body []byte) *Error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}

	var ae apiError
	if err := json.Unmarshal(body, &ae); err != nil || ae.Error == "" {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &Error{Kind: kindForStatus(status, ""), Status: status, Message: msg}
	}

	return &Error{
		Kind:      kindForStatus(status, ae.Code),
		Status:    status,
		Message:   ae.Error,
		Fields:    ae.Fields,
		RequestID: ae.RequestID,
	}
}

func kindForStatus(status int, code string) ErrorKind {
	switch {
	case code == "CONFLICT" || status == http.StatusConflict:
		return KindConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		return KindConnectivity
	default:
		return KindServer
	}
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Describe renders a one-line message for terminal output.
func Describe(e *Error) string {
	if e == nil {
		return ""
	}
	if len(e.Fields) == 0 {
		return e.Message
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}
