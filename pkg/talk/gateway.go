// Copyright 2024-2026 Aiku AI

package talk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// OCS endpoints, relative to the remote host.
const (
	roomEndpoint                 = "/ocs/v2.php/apps/spreed/api/v4/room"
	notificationsEndpoint        = "/ocs/v2.php/apps/notifications/api/v2/notifications"
	federationInvitationEndpoint = "/ocs/v2.php/apps/spreed/api/v4/federation/invitation"
)

// requestTimeout bounds every remote call. There are no retries; a timeout
// surfaces as a transport error on the operation that hit it.
const requestTimeout = 30 * time.Second

// Error message prefixes. Transport and protocol failures must stay
// distinguishable in logs and tests.
const (
	errPrefixTransport = "talk request failed"
	errPrefixProtocol  = "talk response invalid"
)

// Method is the closed set of HTTP methods a notification action may
// declare. Anything else parses to MethodPost.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodDelete Method = http.MethodDelete
)

// ParseMethod maps an action's declared method string onto the closed
// Method set.
func ParseMethod(s string) Method {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case http.MethodGet:
		return MethodGet
	case http.MethodDelete:
		return MethodDelete
	default:
		return MethodPost
	}
}

// Gateway is the remote API surface the resolver depends on. Client is the
// production implementation; tests swap in an in-memory mock.
type Gateway interface {
	FetchRooms(ctx context.Context) ([]Room, error)
	JoinRoom(ctx context.Context, token string) error
	FetchNotifications(ctx context.Context) ([]Notification, error)
	ExecuteAction(ctx context.Context, link string, method Method) (json.RawMessage, error)
	AcceptFederationInvitation(ctx context.Context, inviteID string) error
}

// Client performs OCS API calls against the remote server. Credentials are
// read from the source fresh on every call, so a settings change takes
// effect without rebuilding the client.
type Client struct {
	creds CredentialSource
	http  *http.Client
	log   zerolog.Logger
}

var _ Gateway = (*Client)(nil)

// NewClient creates a gateway client reading credentials from creds.
func NewClient(creds CredentialSource, log zerolog.Logger) *Client {
	return &Client{
		creds: creds,
		http:  &http.Client{Timeout: requestTimeout},
		log:   log.With().Str("component", "ocs_client").Logger(),
	}
}

type ocsMeta struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statuscode"`
	Message    string `json:"message,omitempty"`
}

// ocsEnvelope is the {ocs:{meta,data}} wrapper every OCS response uses.
type ocsEnvelope[T any] struct {
	OCS struct {
		Meta ocsMeta `json:"meta"`
		Data T       `json:"data"`
	} `json:"ocs"`
}

func decodeEnvelope[T any](op string, body []byte) (*ocsEnvelope[T], error) {
	var env ocsEnvelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", errPrefixProtocol, op, err)
	}
	return &env, nil
}

func (c *Client) apiURL(endpoint string) string {
	return normalizeHost(c.creds.GetRemoteHost()) + endpoint
}

// do performs a single request with the fixed OCS headers and Basic auth.
// The returned error covers transport failures only; HTTP status handling
// is up to the caller.
func (c *Client) do(ctx context.Context, method Method, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, string(method), url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", errPrefixTransport, err)
	}
	req.SetBasicAuth(c.creds.GetUsername(), c.creds.GetPassword())
	req.Header.Set("OCS-APIRequest", "true")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", errPrefixTransport, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%s: %w", errPrefixTransport, err)
	}
	c.log.Debug().
		Str("method", string(method)).
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("OCS request")
	return resp.StatusCode, body, nil
}

// FetchRooms lists all rooms the configured user participates in. The
// room order of the response is preserved.
func (c *Client) FetchRooms(ctx context.Context) ([]Room, error) {
	status, body, err := c.do(ctx, MethodGet, c.apiURL(roomEndpoint))
	if err != nil {
		return nil, fmt.Errorf("room list: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%s: room list: HTTP %d", errPrefixTransport, status)
	}
	env, err := decodeEnvelope[[]Room]("room list", body)
	if err != nil {
		return nil, err
	}
	if env.OCS.Meta.Status != "ok" {
		return nil, fmt.Errorf("%s: room list: status %q (%s)",
			errPrefixProtocol, env.OCS.Meta.Status, env.OCS.Meta.Message)
	}
	return env.OCS.Data, nil
}

// JoinRoom registers the configured user as an active participant of the
// room. Success requires envelope status "ok".
func (c *Client) JoinRoom(ctx context.Context, token string) error {
	url := c.apiURL(roomEndpoint + "/" + token + "/participants/active")
	status, body, err := c.do(ctx, MethodPost, url)
	if err != nil {
		return fmt.Errorf("join room: %w", err)
	}
	env, envErr := decodeEnvelope[json.RawMessage]("join room", body)
	if envErr != nil {
		if status < 200 || status >= 300 {
			return fmt.Errorf("%s: join room: HTTP %d", errPrefixTransport, status)
		}
		return envErr
	}
	if env.OCS.Meta.Status == "ok" {
		return nil
	}
	message := env.OCS.Meta.Message
	if message == "" {
		message = fmt.Sprintf("join rejected with status %q", env.OCS.Meta.Status)
	}
	return fmt.Errorf("join room failed: %s", message)
}

// FetchNotifications lists the user's pending notifications. A null data
// payload yields an empty list, not an error.
func (c *Client) FetchNotifications(ctx context.Context) ([]Notification, error) {
	status, body, err := c.do(ctx, MethodGet, c.apiURL(notificationsEndpoint))
	if err != nil {
		return nil, fmt.Errorf("notification list: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%s: notification list: HTTP %d", errPrefixTransport, status)
	}
	env, err := decodeEnvelope[[]Notification]("notification list", body)
	if err != nil {
		return nil, err
	}
	if env.OCS.Meta.Status != "ok" {
		return nil, fmt.Errorf("%s: notification list: status %q (%s)",
			errPrefixProtocol, env.OCS.Meta.Status, env.OCS.Meta.Message)
	}
	return env.OCS.Data, nil
}

// ExecuteAction performs a notification action. Relative links are resolved
// against the remote host. Any 2xx response counts as success; the body is
// returned when it is valid JSON.
func (c *Client) ExecuteAction(ctx context.Context, link string, method Method) (json.RawMessage, error) {
	url := link
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		if !strings.HasPrefix(url, "/") {
			url = "/" + url
		}
		url = normalizeHost(c.creds.GetRemoteHost()) + url
	}
	status, body, err := c.do(ctx, method, url)
	if err != nil {
		return nil, fmt.Errorf("action %s %s: %w", method, link, err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%s: action %s %s: HTTP %d", errPrefixTransport, method, link, status)
	}
	if len(body) == 0 || !json.Valid(body) {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

// AcceptFederationInvitation accepts a pending federation invite directly
// by its ID. Success requires envelope status "ok".
func (c *Client) AcceptFederationInvitation(ctx context.Context, inviteID string) error {
	url := c.apiURL(federationInvitationEndpoint + "/" + inviteID)
	status, body, err := c.do(ctx, MethodPost, url)
	if err != nil {
		return fmt.Errorf("federation accept: %w", err)
	}
	env, envErr := decodeEnvelope[json.RawMessage]("federation accept", body)
	if envErr != nil {
		if status < 200 || status >= 300 {
			return fmt.Errorf("%s: federation accept: HTTP %d", errPrefixTransport, status)
		}
		return envErr
	}
	if env.OCS.Meta.Status == "ok" {
		return nil
	}
	message := env.OCS.Meta.Message
	if message == "" {
		message = fmt.Sprintf("federation accept rejected with status %q", env.OCS.Meta.Status)
	}
	return fmt.Errorf("federation accept failed: %s", message)
}
