// Copyright 2024-2026 Aiku AI

package talk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// testCreds is an in-memory CredentialSource.
type testCreds struct {
	remoteHost string
	username   string
	password   string
	targetHost string
}

func (t *testCreds) GetRemoteHost() string { return t.remoteHost }
func (t *testCreds) GetUsername() string   { return t.username }
func (t *testCreds) GetPassword() string   { return t.password }
func (t *testCreds) GetTargetHost() string { return t.targetHost }
func (t *testCreds) IsConfigured() bool {
	return t.remoteHost != "" && t.username != "" && t.password != "" && t.targetHost != ""
}

func configuredCreds(remoteHost string) *testCreds {
	return &testCreds{
		remoteHost: remoteHost,
		username:   "admin",
		password:   "app-password",
		targetHost: "https://target.example.com",
	}
}

// endpointCall records one request the fake server received.
type endpointCall struct {
	Method string
	Path   string
	Header http.Header
}

// fakeTalk wraps an httptest.Server simulating the OCS API of a Nextcloud
// server. It records calls and serves canned envelope responses.
type fakeTalk struct {
	Server *httptest.Server

	mu    sync.Mutex
	calls []endpointCall

	// Rooms served by the room listing endpoint, in order.
	Rooms []Room
	// Notifications served by the notifications listing endpoint.
	Notifications []Notification
	// JoinStatus is the envelope status returned for join calls ("ok" when
	// empty). JoinMessage is the meta message sent along with it.
	JoinStatus  string
	JoinMessage string
	// FederationStatus is the envelope status for federation accepts.
	FederationStatus string
	// FailEndpoints causes paths containing a key to return HTTP 500.
	FailEndpoints map[string]bool
	// RawResponses maps path substrings to literal response bodies, for
	// malformed payload tests.
	RawResponses map[string]string
}

func newFakeTalk() *fakeTalk {
	f := &fakeTalk{
		FailEndpoints: make(map[string]bool),
		RawResponses:  make(map[string]string),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handler))
	return f
}

func (f *fakeTalk) Close() {
	f.Server.Close()
}

func (f *fakeTalk) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, endpointCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
	})
}

func (f *fakeTalk) Calls() []endpointCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]endpointCall, len(f.calls))
	copy(cp, f.calls)
	return cp
}

func (f *fakeTalk) CalledPath(path string) bool {
	for _, c := range f.Calls() {
		if strings.Contains(c.Path, path) {
			return true
		}
	}
	return false
}

func writeEnvelope(w http.ResponseWriter, status string, statusCode int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ocs": map[string]any{
			"meta": map[string]any{
				"status":     status,
				"statuscode": statusCode,
				"message":    message,
			},
			"data": data,
		},
	})
}

func (f *fakeTalk) handler(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.record(r)
	path := r.URL.Path

	for prefix := range f.FailEndpoints {
		if strings.Contains(path, prefix) {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "fake error"})
			return
		}
	}
	for substr, body := range f.RawResponses {
		if strings.Contains(path, substr) {
			_, _ = w.Write([]byte(body))
			return
		}
	}

	switch {
	case r.Method == http.MethodGet && path == roomEndpoint:
		rooms := f.Rooms
		if rooms == nil {
			rooms = []Room{}
		}
		writeEnvelope(w, "ok", 200, "", rooms)

	case r.Method == http.MethodPost && strings.HasPrefix(path, roomEndpoint+"/") && strings.HasSuffix(path, "/participants/active"):
		status := f.JoinStatus
		if status == "" {
			status = "ok"
		}
		writeEnvelope(w, status, 200, f.JoinMessage, map[string]any{})

	case r.Method == http.MethodGet && path == notificationsEndpoint:
		writeEnvelope(w, "ok", 200, "", f.Notifications)

	case r.Method == http.MethodPost && strings.HasPrefix(path, federationInvitationEndpoint+"/"):
		status := f.FederationStatus
		if status == "" {
			status = "ok"
		}
		writeEnvelope(w, status, 200, "", map[string]any{})

	default:
		// Arbitrary notification action links land here.
		writeEnvelope(w, "ok", 200, "", map[string]any{})
	}
}

// newTestClient creates a gateway client pointed at the fake server.
func newTestClient(f *fakeTalk) *Client {
	return NewClient(configuredCreds(f.Server.URL), zerolog.Nop())
}

// executedAction records one ExecuteAction call on the mock gateway.
type executedAction struct {
	Link   string
	Method Method
}

// mockGateway implements Gateway in memory and counts calls, so resolver
// tests can assert exactly which remote operations ran.
type mockGateway struct {
	mu sync.Mutex

	rooms            []Room
	roomsErr         error
	notifications    []Notification
	notificationsErr error
	joinErr          error
	federationErr    error
	// actionErrs maps action links to the error ExecuteAction returns for
	// them; links without an entry succeed.
	actionErrs map[string]error

	fetchRoomsCalls         int
	fetchNotificationsCalls int
	joinedTokens            []string
	actions                 []executedAction
	federationAccepts       []string
}

var _ Gateway = (*mockGateway)(nil)

func (m *mockGateway) FetchRooms(_ context.Context) ([]Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchRoomsCalls++
	if m.roomsErr != nil {
		return nil, m.roomsErr
	}
	return m.rooms, nil
}

func (m *mockGateway) JoinRoom(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joinedTokens = append(m.joinedTokens, token)
	return m.joinErr
}

func (m *mockGateway) FetchNotifications(_ context.Context) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchNotificationsCalls++
	if m.notificationsErr != nil {
		return nil, m.notificationsErr
	}
	return m.notifications, nil
}

func (m *mockGateway) ExecuteAction(_ context.Context, link string, method Method) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, executedAction{Link: link, Method: method})
	if err, ok := m.actionErrs[link]; ok {
		return nil, err
	}
	return nil, nil
}

func (m *mockGateway) AcceptFederationInvitation(_ context.Context, inviteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.federationAccepts = append(m.federationAccepts, inviteID)
	return m.federationErr
}

func (m *mockGateway) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchRoomsCalls + m.fetchNotificationsCalls +
		len(m.joinedTokens) + len(m.actions) + len(m.federationAccepts)
}

// newTestResolver creates a resolver over a mock gateway with configured
// in-memory credentials.
func newTestResolver(gw Gateway) *Resolver {
	return NewResolver(configuredCreds("https://cloud.example.com"), gw, zerolog.Nop())
}
