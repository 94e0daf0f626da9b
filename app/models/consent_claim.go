package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ConsentClaim is the untrusted body of POST /api/pdpa/consent.
type ConsentClaim struct {
	ConsentSessionID string   `json:"consent_session_id" validate:"required,max=128"`
	ConsentVersion   string   `json:"consent_version" validate:"required,max=64"`
	AcceptedAt       string   `json:"accepted_at" validate:"required"`
	ExpiresAt        Text     `json:"expires_at"`
	WpUserID         OpaqueID `json:"wp_user_id"`
	LineUserID       OpaqueID `json:"line_user_id"`
	RequiredConsent  Flag     `json:"required_consent"`
	MarketingConsent Flag     `json:"marketing_consent"`
	SourceChannel    Text     `json:"source_channel"`
	PagePath         Text     `json:"page_path"`
}

// Text is an optional free-form field. Any JSON value decodes: strings as-is,
// null as "", anything else as its compact literal text.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*t = Text(buf.String())
	return nil
}

// OpaqueID is an external identity reference. Clients send WordPress ids as
// numbers and LINE ids as strings, so both are kept as their literal text.
type OpaqueID struct {
	Value string
	Valid bool
}

func (id *OpaqueID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = OpaqueID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = OpaqueID{Value: s, Valid: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	*id = OpaqueID{Value: n.String(), Valid: true}
	return nil
}

// Ptr returns nil for an absent id so it is stored as NULL.
func (id OpaqueID) Ptr() *string {
	if !id.Valid {
		return nil
	}
	v := id.Value
	return &v
}

// Flag is a boolean-like 0/1 consent switch. Set reports whether the client
// sent a non-null value.
type Flag struct {
	Value uint8
	Set   bool
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		*f = Flag{}
		return nil
	case "true":
		*f = Flag{Value: 1, Set: true}
		return nil
	case "false":
		*f = Flag{Value: 0, Set: true}
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		switch strings.ToLower(raw) {
		case "", "false":
			*f = Flag{Value: 0, Set: true}
			return nil
		case "true":
			*f = Flag{Value: 1, Set: true}
			return nil
		}
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("consent flag must be 0 or 1, got %s", data)
	}
	*f = Flag{Value: 0, Set: true}
	if n != 0 {
		f.Value = 1
	}
	return nil
}

// Or returns the flag value, or def when the client did not send one.
func (f Flag) Or(def uint8) uint8 {
	if !f.Set {
		return def
	}
	return f.Value
}
