// Copyright 2024-2026 Aiku AI

package talk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Local precondition failures. They are detected before any network call
// and returned as structured results, never raised.
var (
	ErrNotConfigured   = errors.New("connection is not configured")
	ErrEmptyIdentifier = errors.New("room identifier is required")
)

// RoomNotFoundError reports a failed match and carries the fetched room
// snapshot so callers can show what was actually available.
type RoomNotFoundError struct {
	Identifier     string
	AvailableRooms []RoomSummary
}

func (e *RoomNotFoundError) Error() string {
	return fmt.Sprintf("room %q not found", e.Identifier)
}

// Resolver is the link resolution engine. It is stateless: every call
// reads credentials and the remote room list fresh, so concurrent use is
// safe without coordination.
type Resolver struct {
	creds   CredentialSource
	gateway Gateway
	log     zerolog.Logger
}

// NewResolver creates a resolver reading credentials from creds and
// talking to the remote server through gateway.
func NewResolver(creds CredentialSource, gateway Gateway, log zerolog.Logger) *Resolver {
	return &Resolver{
		creds:   creds,
		gateway: gateway,
		log:     log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve maps a human-supplied identifier to a call link on the target
// host. The result is always structured; no gateway error escapes.
//
// The invitation check runs first and is best-effort: a pending federation
// invitation has to be accepted before the room shows up in the listing,
// but any failure there is recorded on the result rather than aborting the
// resolution. A room list fetch failure is fatal. A join failure is not:
// the link is generated anyway with Joined set to false.
func (r *Resolver) Resolve(ctx context.Context, identifier string, searchBy SearchField) *LinkResult {
	identifier = strings.TrimSpace(identifier)
	if !r.creds.IsConfigured() {
		return &LinkResult{Error: ErrNotConfigured.Error()}
	}
	if identifier == "" {
		return &LinkResult{Error: ErrEmptyIdentifier.Error()}
	}

	invitation := r.CheckAndAcceptInvitation(ctx, identifier)

	rooms, err := r.gateway.FetchRooms(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("Room list fetch failed")
		return &LinkResult{Error: err.Error(), Invitation: invitation}
	}

	room := FindRoom(rooms, identifier, searchBy)
	if room == nil {
		summaries := make([]RoomSummary, len(rooms))
		for i, rm := range rooms {
			summaries[i] = rm.Summary()
		}
		notFound := &RoomNotFoundError{Identifier: identifier, AvailableRooms: summaries}
		r.log.Info().
			Str("identifier", identifier).
			Str("search_by", string(searchBy)).
			Int("room_count", len(rooms)).
			Msg("No room matched")
		return &LinkResult{
			Error:          notFound.Error(),
			AvailableRooms: summaries,
			Invitation:     invitation,
		}
	}
	if room.Token == "" {
		// Data-integrity condition, distinct from not-found.
		return &LinkResult{
			Error:      fmt.Sprintf("room %q has no token", identifier),
			Invitation: invitation,
		}
	}

	joined := true
	if err := r.gateway.JoinRoom(ctx, room.Token); err != nil {
		r.log.Warn().Err(err).Str("token", room.Token).Msg("Join failed, generating link anyway")
		joined = false
	}

	link := strings.TrimRight(r.creds.GetTargetHost(), "/") + "/call/" + room.Token
	r.log.Info().
		Str("identifier", identifier).
		Str("token", room.Token).
		Bool("joined", joined).
		Msg("Resolved room link")
	return &LinkResult{
		Success:            true,
		Link:               link,
		Token:              room.Token,
		Joined:             joined,
		InvitationAccepted: invitation != nil && invitation.Accepted,
		RoomInfo:           room.Info(),
		Invitation:         invitation,
	}
}

// Search fetches the room list and filters it by term. An empty term
// returns every room. The fetch is always fresh; nothing is cached
// between calls.
func (r *Resolver) Search(ctx context.Context, term string) ([]Room, error) {
	if !r.creds.IsConfigured() {
		return nil, ErrNotConfigured
	}
	rooms, err := r.gateway.FetchRooms(ctx)
	if err != nil {
		return nil, err
	}
	return FilterRooms(rooms, term), nil
}

// TestConnection verifies the configured credentials by fetching the room
// list and reporting how many rooms are visible.
func (r *Resolver) TestConnection(ctx context.Context) *TestResult {
	if !r.creds.IsConfigured() {
		return &TestResult{Error: ErrNotConfigured.Error()}
	}
	rooms, err := r.gateway.FetchRooms(ctx)
	if err != nil {
		return &TestResult{Error: err.Error()}
	}
	return &TestResult{Success: true, RoomCount: len(rooms)}
}
