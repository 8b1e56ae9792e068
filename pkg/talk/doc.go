// Copyright 2024-2026 Aiku AI

// Package talk resolves Nextcloud Talk rooms to shareable call links.
//
// The package is a thin integration layer over two OCS APIs of a remote
// Nextcloud server: the Talk room API (spreed) and the notifications API.
// Given a loosely specified room identifier, the resolver best-effort
// accepts a pending federation invitation, fetches the room list, runs a
// prioritized matcher to pick exactly one room, joins it, and builds a
// /call/{token} link on the configured target host.
//
// # Core Types
//
// [Resolver] is the link resolution engine. Its Resolve, Search and
// TestConnection methods always return structured results; no gateway
// error escapes as a raw failure.
//
// [Client] implements [Gateway], the remote API surface: room listing,
// join, notification listing, notification action execution and federation
// invitation acceptance. Every call is a single blocking HTTP request with
// a fixed 30 second timeout and no retries.
//
// [Config] supplies the four connection values (remote host, username,
// password, target host) and implements [CredentialSource], so the engine
// can be tested against an in-memory credential fake.
//
// # Matching
//
// When no explicit search field is given, FindRoom evaluates six tiers in
// order: exact token, exact objectId, exact name, exact displayName,
// case-insensitive displayName, case-insensitive name. Each tier scans the
// full room list before the next one runs, and the first hit within a tier
// wins.
//
// The invitation matcher is intentionally permissive: when a chat
// notification matches neither the identifier nor any rich parameter name,
// it is still treated as a candidate if it looks like an invitation. See
// the notificationMatches doc comment.
package talk
