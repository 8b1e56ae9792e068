// Copyright 2024-2026 Aiku AI

package talk

import (
	"fmt"
	"strings"
)

// SearchField selects which room attribute an explicit search compares
// against. The zero value means auto: try all fields in priority order.
type SearchField string

const (
	FieldAuto        SearchField = ""
	FieldToken       SearchField = "token"
	FieldObjectID    SearchField = "objectId"
	FieldName        SearchField = "name"
	FieldDisplayName SearchField = "displayName"
)

// ParseSearchField validates a caller-supplied field name. The empty
// string parses to FieldAuto.
func ParseSearchField(s string) (SearchField, error) {
	field := SearchField(strings.TrimSpace(s))
	switch field {
	case FieldAuto, FieldToken, FieldObjectID, FieldName, FieldDisplayName:
		return field, nil
	default:
		return FieldAuto, fmt.Errorf("unknown search field %q", s)
	}
}

func (f SearchField) roomValue(room *Room) string {
	switch f {
	case FieldToken:
		return room.Token
	case FieldObjectID:
		return room.ObjectID
	case FieldName:
		return room.Name
	case FieldDisplayName:
		return room.DisplayName
	}
	return ""
}

// autoTiers is the priority order used when no explicit field is given.
// Each tier is exhausted over the full room list before the next one runs.
var autoTiers = []struct {
	field    SearchField
	caseFold bool
}{
	{FieldToken, false},
	{FieldObjectID, false},
	{FieldName, false},
	{FieldDisplayName, false},
	{FieldDisplayName, true},
	{FieldName, true},
}

// FindRoom maps an identifier to exactly one room, or nil when nothing
// matches. Pure function; ties within a tier are broken by list order.
// An empty field value on a room never matches.
func FindRoom(rooms []Room, identifier string, searchBy SearchField) *Room {
	if identifier == "" {
		return nil
	}
	if searchBy != FieldAuto {
		// Explicit field: single case-sensitive pass, no fallback.
		for i := range rooms {
			if value := searchBy.roomValue(&rooms[i]); value != "" && value == identifier {
				return &rooms[i]
			}
		}
		return nil
	}
	for _, tier := range autoTiers {
		for i := range rooms {
			value := tier.field.roomValue(&rooms[i])
			if value == "" {
				continue
			}
			if value == identifier || (tier.caseFold && strings.EqualFold(value, identifier)) {
				return &rooms[i]
			}
		}
	}
	return nil
}

// FilterRooms returns the rooms whose name, display name, token, object id
// or description contains term, case-insensitively. An empty term returns
// the full list.
func FilterRooms(rooms []Room, term string) []Room {
	term = strings.TrimSpace(term)
	if term == "" {
		return rooms
	}
	needle := strings.ToLower(term)
	var matched []Room
	for _, room := range rooms {
		haystacks := []string{room.Name, room.DisplayName, room.Token, room.ObjectID, room.Description}
		for _, hay := range haystacks {
			if hay != "" && strings.Contains(strings.ToLower(hay), needle) {
				matched = append(matched, room)
				break
			}
		}
	}
	return matched
}
