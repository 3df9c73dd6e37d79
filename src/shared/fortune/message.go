package fortune

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// codecVersion is bumped whenever the stored message shape changes in a
// way old readers cannot handle.
const codecVersion = 1

// Section is one titled aspect of a slip together with its reading.
type Section struct {
	Kind SectionKind `json:"kind"`
	Text string      `json:"text"`
}

// Message is the full content of an omikuji slip. It is what gets
// serialized into the slips table and rendered back to readers. Enums
// travel as their wire tokens, so reordering the Go constants does not
// invalidate stored rows.
type Message struct {
	Class       Class     `json:"class"`
	Description string    `json:"description"`
	Sections    []Section `json:"sections"`
	Photo       *string   `json:"photo,omitempty"`
}

// Complete reports whether the message has everything a committed slip
// needs: a grade, a description and at least one section with text.
func (m *Message) Complete() error {
	if m.Class == ClassUnset {
		return errors.New("omikuji message has no class")
	}
	if m.Description == "" {
		return errors.New("omikuji message has no description")
	}
	if len(m.Sections) == 0 {
		return errors.New("omikuji message has no sections")
	}
	for _, s := range m.Sections {
		if s.Text == "" {
			return fmt.Errorf("omikuji section %s has no text", s.Kind)
		}
	}
	return nil
}

// Encode serializes the message for storage. Only complete messages can
// be encoded.
func (m *Message) Encode() (string, error) {
	if err := m.Complete(); err != nil {
		return "", err
	}
	raw, err := json.Marshal(struct {
		Version int `json:"v"`
		*Message
	}{codecVersion, m})
	if err != nil {
		return "", fmt.Errorf("encode omikuji message: %w", err)
	}
	return string(raw), nil
}

// DecodeMessage parses a stored message blob. Blobs written before the
// codec carried a version marker decode as version 1; blobs from a newer
// codec are refused instead of being misread.
func DecodeMessage(raw string) (*Message, error) {
	var probe struct {
		Version *int `json:"v"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("decode omikuji message: %w", err)
	}
	if probe.Version != nil && *probe.Version > codecVersion {
		return nil, fmt.Errorf("omikuji message codec v%d not supported", *probe.Version)
	}
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode omikuji message: %w", err)
	}
	if err := m.Complete(); err != nil {
		return nil, fmt.Errorf("decode omikuji message: %w", err)
	}
	return &m, nil
}

// Render formats the message for chat delivery. Unset fields are
// skipped, so it also renders half-finished drafts for status replies.
func (m *Message) Render() string {
	var b strings.Builder
	if m.Class != ClassUnset {
		fmt.Fprintf(&b, "**%s**\n", m.Class)
	}
	if m.Description != "" {
		b.WriteString(m.Description)
		b.WriteString("\n")
	}
	for _, s := range m.Sections {
		fmt.Fprintf(&b, "\n**%s**: %s", s.Kind, s.Text)
	}
	return b.String()
}
