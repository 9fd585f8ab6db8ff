// Package dataset loads and synthesizes chat event files for the
// moderation loop and the comparison harness.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPersona is assumed when an event does not carry one.
const DefaultPersona = "firm_professional"

// #region types

// Meta is the per-event user metadata. Follower, viewer, and topic are
// optional channel context; when present the loop applies them to the
// ledger before deciding.
type Meta struct {
	User           string `json:"user"`
	AccountAgeDays int    `json:"account_age_days"`
	Strikes        int    `json:"strikes"`
	FollowerCount  *int   `json:"follower_count,omitempty"`
	ViewerCount    *int   `json:"viewer_count,omitempty"`
	Topic          string `json:"topic,omitempty"`
}

// Event is one chat comment with its metadata and the moderation
// persona it was authored under.
type Event struct {
	Comment string `json:"comment"`
	Meta    Meta   `json:"meta"`
	Persona string `json:"persona"`
}

// #endregion types

// #region io

// Load reads a JSON event file and normalizes each row: persona and
// user fall back to defaults, an empty comment is an error.
func Load(path string) ([]Event, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var events []Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	for i := range events {
		if strings.TrimSpace(events[i].Comment) == "" {
			return nil, fmt.Errorf("dataset %s: event %d has an empty comment", path, i)
		}
		if events[i].Persona == "" {
			events[i].Persona = DefaultPersona
		}
		if events[i].Meta.User == "" {
			events[i].Meta.User = "unknown"
		}
	}
	return events, nil
}

// Save writes events as indented JSON, creating parent directories.
func Save(path string, events []Event) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dataset dir: %w", err)
		}
	}
	raw, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

// #endregion io
