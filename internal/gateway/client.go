package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"wastewatch/web/internal/config"
	"wastewatch/web/internal/models"
)

// Messages surfaced to users for the two failure classes the backend cannot
// describe itself.
const (
	MsgNetworkError   = "Network error. Please check your connection."
	MsgAuthRequired   = "Authentication required. Please sign in again."
	msgRequestFailed  = "Request failed"
	msgMalformedReply = "Unexpected response from server"
)

// Error is the uniform failure shape every client call returns. Status is the
// HTTP status when the backend answered, 0 for transport failures.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Client is the sole module issuing HTTP calls to the waste-reports backend.
// Calls are fire-once: no retries, no queuing, no deduplication.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	// onAuthFailure runs before any 401 is returned to the caller, so session
	// state is already evicted when the page sees the error.
	onAuthFailure func(ctx context.Context)
}

func New(cfg config.BackendConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		log:     log,
	}
}

// SetAuthFailureHook registers the session-eviction callback invoked on any
// 401 response. Wired once at startup; the hook must not call back into the
// client.
func (c *Client) SetAuthFailureHook(fn func(ctx context.Context)) {
	c.onAuthFailure = fn
}

type AuthPayload struct {
	Message string           `json:"message"`
	User    models.User      `json:"user"`
	Tokens  models.TokenPair `json:"tokens"`
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthPayload, error) {
	var payload AuthPayload
	err := c.doJSON(ctx, http.MethodPost, "/auth/login/", "", map[string]string{
		"email":    email,
		"password": password,
	}, &payload)
	return payload, err
}

func (c *Client) Register(ctx context.Context, name, email, password string) (AuthPayload, error) {
	var payload AuthPayload
	err := c.doJSON(ctx, http.MethodPost, "/auth/register/", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &payload)
	return payload, err
}

// ListQuery narrows a report listing. Zero values mean "not set".
type ListQuery struct {
	Status   models.ReportStatus
	UserOnly bool
	Limit    int
	Skip     int
}

type reportsEnvelope struct {
	Reports []models.Report `json:"reports"`
	Count   int             `json:"count"`
}

func (c *Client) ListReports(ctx context.Context, token string, q ListQuery) ([]models.Report, error) {
	params := url.Values{}
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}
	if q.UserOnly {
		params.Set("user_only", "true")
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip > 0 {
		params.Set("skip", strconv.Itoa(q.Skip))
	}

	endpoint := "/reports/"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var envelope reportsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, endpoint, token, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Reports, nil
}

func (c *Client) GetReport(ctx context.Context, token, reportID string) (models.Report, error) {
	var report models.Report
	err := c.doJSON(ctx, http.MethodGet, "/reports/"+url.PathEscape(reportID)+"/", token, nil, &report)
	return report, err
}

type CreateReportInput struct {
	Description string
	Latitude    float64
	Longitude   float64
	Image       io.Reader
	ImageName   string
}

// CreateReport submits the multipart creation form. The content type is left
// to the multipart writer so the boundary is set correctly.
func (c *Client) CreateReport(ctx context.Context, token string, in CreateReportInput) (models.Report, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"description": in.Description,
		"latitude":    strconv.FormatFloat(in.Latitude, 'f', 6, 64),
		"longitude":   strconv.FormatFloat(in.Longitude, 'f', 6, 64),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return models.Report{}, &Error{Message: msgRequestFailed}
		}
	}

	if in.Image != nil {
		part, err := writer.CreateFormFile("image", in.ImageName)
		if err != nil {
			return models.Report{}, &Error{Message: msgRequestFailed}
		}
		if _, err := io.Copy(part, in.Image); err != nil {
			return models.Report{}, &Error{Message: msgRequestFailed}
		}
	}

	if err := writer.Close(); err != nil {
		return models.Report{}, &Error{Message: msgRequestFailed}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reports/create/", body)
	if err != nil {
		return models.Report{}, &Error{Message: msgRequestFailed}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var report models.Report
	if err := c.execute(ctx, req, &report); err != nil {
		return models.Report{}, err
	}
	return report, nil
}

func (c *Client) UpdateReport(ctx context.Context, token, reportID string, status models.ReportStatus, adminRemarks string) (models.Report, error) {
	var report models.Report
	err := c.doJSON(ctx, http.MethodPut, "/reports/"+url.PathEscape(reportID)+"/update/", token, map[string]string{
		"status":        string(status),
		"admin_remarks": adminRemarks,
	}, &report)
	return report, err
}

func (c *Client) ReportsNear(ctx context.Context, token string, lat, lng float64, distanceMeters int) ([]models.Report, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("distance", strconv.Itoa(distanceMeters))

	var envelope reportsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/reports/near/?"+params.Encode(), token, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Reports, nil
}

func (c *Client) SearchReports(ctx context.Context, token, query string, limit int) ([]models.Report, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var envelope reportsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/reports/search/?"+params.Encode(), token, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Reports, nil
}

func (c *Client) DashboardStats(ctx context.Context, token string) (models.Stats, error) {
	var stats models.Stats
	err := c.doJSON(ctx, http.MethodGet, "/dashboard/stats/", token, nil, &stats)
	return stats, err
}

// Health probes backend liveness. With a token it doubles as token
// revalidation: a 401 means the stored token is no longer trusted.
func (c *Client) Health(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodGet, "/health/", token, nil, nil)
}

func (c *Client) BanUser(ctx context.Context, token, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID)+"/ban/", token, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint, token string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: msgRequestFailed}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return &Error{Message: msgRequestFailed}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.execute(ctx, req, out)
}

// execute runs one request and maps every outcome to the uniform error shape.
// Transport failures never escape as raw errors.
func (c *Client) execute(ctx context.Context, req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("backend unreachable")
		return &Error{Message: MsgNetworkError}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: MsgNetworkError}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onAuthFailure != nil {
			c.onAuthFailure(ctx)
		}
		return &Error{Status: resp.StatusCode, Message: MsgAuthRequired}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Error().Err(err).Str("url", req.URL.String()).Msg("malformed backend response")
		return &Error{Status: resp.StatusCode, Message: msgMalformedReply}
	}
	return nil
}

// errorMessage pulls the backend's own description out of a failure body,
// falling back to a generic message when none is present.
func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return msgRequestFailed
}

// Describe formats an error for inline page banners. Non-gateway errors are
// collapsed to the generic failure message so internals never leak into HTML.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Message
	}
	return msgRequestFailed
}

// IsAuthFailure reports whether an error came from a 401 response.
func IsAuthFailure(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Status == http.StatusUnauthorized
}
