package types

import "encoding/json"

// ItemSnapshot is the denormalized display copy of a library item that a
// shop item embeds. Players browse snapshots only; they never read the
// DM's private library.
type ItemSnapshot struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Source      string          `json:"source"`
	Description *string         `json:"description,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
}
