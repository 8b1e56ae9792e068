// Copyright 2024-2026 Aiku AI

package talk

import (
	"context"
	"errors"
	"strings"
)

// Notification app identifiers that belong to the chat app. Talk registers
// as "spreed"; some deployments emit "talk".
const (
	appSpreed = "spreed"
	appTalk   = "talk"
)

// CheckAndAcceptInvitation scans pending notifications for one that looks
// like an invitation to the identified room and tries to accept it. The
// result is always structured; internal failures are folded into it and
// never propagate to the caller.
//
// A failed acceptance attempt does not stop the scan: a later matching
// notification may still succeed.
func (r *Resolver) CheckAndAcceptInvitation(ctx context.Context, identifier string) *InvitationResult {
	notifications, err := r.gateway.FetchNotifications(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("Notification fetch failed")
		return &InvitationResult{Error: err.Error()}
	}
	if len(notifications) == 0 {
		return &InvitationResult{Success: true}
	}

	for i := range notifications {
		notification := &notifications[i]
		if notification.App != appSpreed && notification.App != appTalk {
			continue
		}
		if !notificationMatches(notification, identifier) {
			continue
		}
		r.log.Debug().
			Int64("notification_id", notification.ID).
			Str("object_id", notification.ObjectID).
			Str("subject", notification.Subject).
			Msg("Found candidate invitation")
		if err := r.acceptNotification(ctx, notification); err != nil {
			r.log.Warn().Err(err).
				Int64("notification_id", notification.ID).
				Msg("Invitation acceptance failed, continuing scan")
			continue
		}
		r.log.Info().
			Int64("notification_id", notification.ID).
			Str("object_id", notification.ObjectID).
			Msg("Accepted invitation")
		return &InvitationResult{
			Success:      true,
			Accepted:     true,
			Notification: notification,
		}
	}

	return &InvitationResult{
		Success:           true,
		Message:           "No matching invitation found",
		NotificationCount: len(notifications),
	}
}

// notificationMatches reports whether a chat notification plausibly refers
// to the identified room. Explicit matches (object id, subject, message,
// rich parameter names) are tried first. The trailing heuristic is
// deliberately permissive and can select an unrelated invitation when
// nothing matches explicitly; it preserves the historical behavior of the
// settings this tool replaces. See DESIGN.md before tightening it.
func notificationMatches(n *Notification, identifier string) bool {
	needle := strings.ToLower(identifier)
	for _, hay := range []string{n.ObjectID, n.Subject, n.Message} {
		if hay != "" && strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	for _, params := range []map[string]RichParameter{n.SubjectParameters, n.MessageParameters} {
		for _, param := range params {
			if param.Name != "" && strings.Contains(strings.ToLower(param.Name), needle) {
				return true
			}
		}
	}
	return n.ObjectType == "invitation" || n.ObjectType == "room" ||
		strings.Contains(strings.ToLower(n.Subject), "invitation")
}

// acceptNotification executes the first usable accept action of the
// notification. Usable means the action reads like an accept (label
// contains "accept", type is "accept", or label is exactly "yes") and
// carries a non-empty link. When no action is usable but the notification
// names an object, the federation invite is accepted directly by that ID.
func (r *Resolver) acceptNotification(ctx context.Context, n *Notification) error {
	for _, action := range n.Actions {
		label := strings.ToLower(action.Label)
		if !strings.Contains(label, "accept") && action.Type != "accept" && label != "yes" {
			continue
		}
		if action.Link == "" {
			continue
		}
		_, err := r.gateway.ExecuteAction(ctx, action.Link, ParseMethod(action.Method))
		return err
	}
	if n.ObjectID != "" {
		return r.gateway.AcceptFederationInvitation(ctx, n.ObjectID)
	}
	return errors.New("no accept action found")
}
