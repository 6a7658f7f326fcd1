package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"plancraft/internal/history"
	"plancraft/internal/wizard"
	"plancraft/pkg/logging"
)

// DefaultTimeout applies when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response ends up in APIError.
const maxErrorBody = 512

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration

	// Token is a static bearer token.
	Token string
	// TokenURL, ClientID and ClientSecret enable the client-credentials grant
	// and take precedence over Token.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	// HTTPClient is the transport used for API and token requests.
	HTTPClient *http.Client
	UserAgent  string
}

// Client is an execution-service API client.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("execution service returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("execution service returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// New builds a client. The context only scopes token acquisition for the
// client-credentials grant.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	transport := opts.HTTPClient
	if transport == nil {
		transport = &http.Client{Timeout: timeout}
	}

	httpClient := transport
	switch {
	case opts.TokenURL != "" && opts.ClientID != "":
		cc := clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
			Scopes:       opts.Scopes,
		}
		httpClient = cc.Client(context.WithValue(ctx, oauth2.HTTPClient, transport))
		httpClient.Timeout = timeout
		logging.Debug("Client", "Using client-credentials grant against %s", opts.TokenURL)
	case opts.Token != "":
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, transport), src)
		httpClient.Timeout = timeout
		logging.Debug("Client", "Using static bearer token")
	default:
		logging.Debug("Client", "No API credentials configured")
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "plancraft"
	}
	return &Client{base: base, http: httpClient, userAgent: ua}, nil
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(parts ...string) string {
	elems := []string{"api", "v1"}
	for _, p := range parts {
		elems = append(elems, url.PathEscape(p))
	}
	return c.base.JoinPath(elems...).String()
}

// do sends body (if any) as JSON and decodes a 2xx response into out.
func (c *Client) do(ctx context.Context, method, target string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	logging.Debug("Client", "%s %s -> %d (%s)", method, target, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// errorMessage pulls "message" or "error" out of a JSON error body and falls
// back to the raw text.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	text := strings.TrimSpace(string(data))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}

// Reference is one selectable item from a reference list.
type Reference struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// ID is an entity identifier the service may send as a number or a string.
type ID string

// UnmarshalJSON accepts both JSON strings and numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*id = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("id must be a string or number, got %s", data)
		}
		*id = ID(data)
	}
	return nil
}

// FetchReferenceList lists the items of kind. The service may answer with a
// bare array or an object wrapping it in "items".
func (c *Client) FetchReferenceList(ctx context.Context, kind string) ([]Reference, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.endpoint(kind), nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Reference](raw)
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to parse list: %w", err)
		}
		return items, nil
	}
	var wrapped struct {
		Items []T `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse list: %w", err)
	}
	if wrapped.Items == nil {
		return []T{}, nil
	}
	return wrapped.Items, nil
}

// ServerEntity is what the service returns from a create or update.
type ServerEntity struct {
	ID  ID
	Raw json.RawMessage
}

// SubmitEntity creates (POST) or updates (PUT) an entity of kind.
func (c *Client) SubmitEntity(ctx context.Context, kind string, payload interface{}, mode wizard.Mode, id string) (*ServerEntity, error) {
	method, target := http.MethodPost, c.endpoint(kind)
	switch mode {
	case wizard.ModeCreate:
	case wizard.ModeUpdate:
		if id == "" {
			return nil, errors.New("update requires an entity id")
		}
		method, target = http.MethodPut, c.endpoint(kind, id)
	default:
		return nil, fmt.Errorf("unknown submit mode %q", mode)
	}

	var raw json.RawMessage
	if err := c.do(ctx, method, target, payload, &raw); err != nil {
		return nil, err
	}

	entity := &ServerEntity{Raw: raw, ID: ID(id)}
	var head struct {
		ID ID `json:"id"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &head) == nil && head.ID != "" {
		entity.ID = head.ID
	}
	logging.Info("Client", "Submitted %s %s (%s)", kind, entity.ID, mode)
	return entity, nil
}

// Submit implements wizard.Submitter.
func (c *Client) Submit(ctx context.Context, req wizard.SubmitRequest) (wizard.SubmitResult, error) {
	entity, err := c.SubmitEntity(ctx, req.Kind, req.Payload, req.Mode, req.ID)
	if err != nil {
		return wizard.SubmitResult{}, err
	}
	return wizard.SubmitResult{ID: string(entity.ID)}, nil
}

// GetEntity decodes entity id of kind into out.
func (c *Client) GetEntity(ctx context.Context, kind, id string, out interface{}) error {
	return c.do(ctx, http.MethodGet, c.endpoint(kind, id), nil, out)
}

// ListRuns returns the run history of a test plan.
func (c *Client) ListRuns(ctx context.Context, planID string) ([]history.Run, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.endpoint("test-plans", planID, "runs"), nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[history.Run](raw)
}
