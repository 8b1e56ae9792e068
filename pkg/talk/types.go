// Copyright 2024-2026 Aiku AI

package talk

// Room is one entry from the remote room listing. Token is the only field
// guaranteed to be present; everything else may be empty.
type Room struct {
	Token           string `json:"token"`
	Name            string `json:"name,omitempty"`
	DisplayName     string `json:"displayName,omitempty"`
	Description     string `json:"description,omitempty"`
	Type            int    `json:"type,omitempty"`
	ObjectType      string `json:"objectType,omitempty"`
	ObjectID        string `json:"objectId,omitempty"`
	ParticipantType int    `json:"participantType,omitempty"`
}

// RoomSummary is the projection used for the not-found room snapshot and
// for search listings.
type RoomSummary struct {
	Token       string `json:"token"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	ObjectID    string `json:"objectId,omitempty"`
}

// Summary projects the room onto its summary fields.
func (r Room) Summary() RoomSummary {
	return RoomSummary{
		Token:       r.Token,
		Name:        r.Name,
		DisplayName: r.DisplayName,
		ObjectID:    r.ObjectID,
	}
}

// RoomInfo is the subset of room fields passed through on a successful
// resolution.
type RoomInfo struct {
	Name            string `json:"name,omitempty"`
	DisplayName     string `json:"displayName,omitempty"`
	Description     string `json:"description,omitempty"`
	Type            int    `json:"type,omitempty"`
	ObjectType      string `json:"objectType,omitempty"`
	ObjectID        string `json:"objectId,omitempty"`
	ParticipantType int    `json:"participantType,omitempty"`
}

// Info projects the room onto the fields a LinkResult carries.
func (r Room) Info() *RoomInfo {
	return &RoomInfo{
		Name:            r.Name,
		DisplayName:     r.DisplayName,
		Description:     r.Description,
		Type:            r.Type,
		ObjectType:      r.ObjectType,
		ObjectID:        r.ObjectID,
		ParticipantType: r.ParticipantType,
	}
}

// RichParameter is one named object inside a notification's rich subject
// or message parameters.
type RichParameter struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// NotificationAction is one action offered by a notification, e.g. the
// accept/decline pair on a federation invitation.
type NotificationAction struct {
	Label  string `json:"label"`
	Type   string `json:"type,omitempty"`
	Link   string `json:"link,omitempty"`
	Method string `json:"method,omitempty"`
}

// Notification is one entry from the notifications app listing.
type Notification struct {
	ID                int64                    `json:"notification_id"`
	App               string                   `json:"app"`
	ObjectType        string                   `json:"object_type,omitempty"`
	ObjectID          string                   `json:"object_id,omitempty"`
	Subject           string                   `json:"subject,omitempty"`
	Message           string                   `json:"message,omitempty"`
	SubjectParameters map[string]RichParameter `json:"subjectRichParameters,omitempty"`
	MessageParameters map[string]RichParameter `json:"messageRichParameters,omitempty"`
	Actions           []NotificationAction     `json:"actions,omitempty"`
}

// InvitationResult is the outcome of the invitation check that runs before
// room resolution. Success false means the check itself failed; Accepted
// reports whether an invitation was actually accepted.
type InvitationResult struct {
	Success           bool          `json:"success"`
	Accepted          bool          `json:"accepted"`
	Message           string        `json:"message,omitempty"`
	Error             string        `json:"error,omitempty"`
	Notification      *Notification `json:"notification,omitempty"`
	NotificationCount int           `json:"notification_count,omitempty"`
}

// LinkResult is the structured outcome of a resolution. Exactly one of the
// success and failure field sets is populated.
type LinkResult struct {
	Success bool `json:"success"`

	Link               string    `json:"link,omitempty"`
	Token              string    `json:"token,omitempty"`
	Joined             bool      `json:"joined"`
	InvitationAccepted bool      `json:"invitation_accepted"`
	RoomInfo           *RoomInfo `json:"room_info,omitempty"`

	Error          string        `json:"error,omitempty"`
	AvailableRooms []RoomSummary `json:"available_rooms,omitempty"`

	// Invitation carries the sub-result of the pre-resolution invitation
	// check regardless of the overall outcome.
	Invitation *InvitationResult `json:"invitation,omitempty"`
}

// TestResult is the outcome of a connection test.
type TestResult struct {
	Success   bool   `json:"success"`
	RoomCount int    `json:"room_count,omitempty"`
	Error     string `json:"error,omitempty"`
}
