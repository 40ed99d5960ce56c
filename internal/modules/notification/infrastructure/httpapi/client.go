// Package httpapi is the HTTP client for the notification Query API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
)

// Client talks to the Query API. Its methods take 1-indexed pages and
// translate to the server's 0-indexed convention.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.QueryAPI = (*Client)(nil)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status %d)", e.Body, e.StatusCode)
}

type CreateRequest struct {
	UserID           uuid.UUID `json:"userId"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	NotificationType string    `json:"notificationType"`
	SourceService    string    `json:"sourceService,omitempty"`
}

type countResponse struct {
	Count int `json:"count"`
}

func (c *Client) ListAll(ctx context.Context, userID uuid.UUID, page, size int) (domain.Page, error) {
	return c.getPage(ctx, "/api/notifications/user/"+userID.String(), page, size, nil)
}

func (c *Client) ListUnread(ctx context.Context, userID uuid.UUID, page, size int) (domain.Page, error) {
	return c.getPage(ctx, "/api/notifications/user/"+userID.String()+"/unread", page, size, nil)
}

func (c *Client) ListByType(ctx context.Context, userID uuid.UUID, notificationType string, page, size int) (domain.Page, error) {
	path := "/api/notifications/user/" + userID.String() + "/type/" + url.PathEscape(notificationType)
	return c.getPage(ctx, path, page, size, nil)
}

func (c *Client) Search(ctx context.Context, userID uuid.UUID, term string, page, size int) (domain.Page, error) {
	return c.getPage(ctx, "/api/notifications/user/"+userID.String()+"/search", page, size, url.Values{"term": {term}})
}

func (c *Client) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var out countResponse
	if err := c.do(ctx, http.MethodGet, "/api/notifications/user/"+userID.String()+"/unread/count", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) ListTypes(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/api/notifications/types", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AcknowledgeRead returns domain.ErrNotificationNotFound on a 404.
func (c *Client) AcknowledgeRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	q := url.Values{"userId": {userID.String()}}
	return c.do(ctx, http.MethodPatch, "/api/notifications/"+notificationID.String()+"/read", q, nil, nil)
}

func (c *Client) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return c.do(ctx, http.MethodPatch, "/api/notifications/user/"+userID.String()+"/read-all", nil, nil, nil)
}

func (c *Client) Create(ctx context.Context, req CreateRequest) (*domain.Notification, error) {
	var out domain.Notification
	if err := c.do(ctx, http.MethodPost, "/api/notifications", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getPage(ctx context.Context, path string, page, size int, q url.Values) (domain.Page, error) {
	if page < 1 {
		return domain.Page{}, domain.ErrInvalidPage
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("page", strconv.Itoa(page-1))
	q.Set("size", strconv.Itoa(size))

	var out domain.Page
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return domain.Page{}, err
	}
	for _, n := range out.Content {
		if err := n.Validate(); err != nil {
			return domain.Page{}, err
		}
	}
	if out.Content == nil {
		out.Content = []domain.Notification{}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && method == http.MethodPatch {
		return domain.ErrNotificationNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
