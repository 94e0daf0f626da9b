package consent

import (
	"strings"
	"time"

	"github.com/doctornoo/pdpa-consent/app/models"
)

// Column limits of dn_pdpa_consent. Lengths count characters, matching
// MySQL VARCHAR semantics under utf8mb4.
const (
	MaxIPAddressLength = 45
	MaxPagePathLength  = 255
	MaxUserAgentLength = 500
)

const (
	DefaultPagePath         = "/condition.html"
	DefaultRequiredConsent  = 1
	DefaultMarketingConsent = 0
)

// DatetimeLayout is the MySQL DATETIME text form every stored timestamp uses.
const DatetimeLayout = "2006-01-02 15:04:05"

// layouts carrying their own offset.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	time.RFC1123,
	time.RFC1123Z,
}

// layouts without an offset are read as local civil time.
var localLayouts = []string{
	DatetimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Truncate cuts s to at most limit characters without splitting a rune.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// NormalizeChannel maps the client channel onto LIFF or WEB. Only the exact
// string "LIFF" counts as LIFF.
func NormalizeChannel(channel string) string {
	if channel == models.SOURCE_CHANNEL_LIFF {
		return models.SOURCE_CHANNEL_LIFF
	}
	return models.SOURCE_CHANNEL_WEB
}

// NormalizePagePath applies the default path and the column limit.
func NormalizePagePath(path string) string {
	if path == "" {
		path = DefaultPagePath
	}
	return Truncate(path, MaxPagePathLength)
}

// ParseTimestamp reads ISO-8601 style input. Offset-less date-times are taken
// in loc; a bare date is midnight UTC.
func ParseTimestamp(input string, loc *time.Location) (time.Time, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.DateOnly, input); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// CanonicalTimestamp renders input as DatetimeLayout in loc. The second result
// is false when input cannot be parsed. Canonical input maps to itself.
func CanonicalTimestamp(input string, loc *time.Location) (string, bool) {
	t, ok := ParseTimestamp(input, loc)
	if !ok {
		return "", false
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DatetimeLayout), true
}

func timestampPtr(input string, loc *time.Location) *string {
	v, ok := CanonicalTimestamp(input, loc)
	if !ok {
		return nil
	}
	return &v
}

// Normalize builds the record to persist from a validated claim and the audit
// context observed by the server.
func Normalize(claim models.ConsentClaim, audit AuditContext, loc *time.Location) *models.PdpaConsent {
	record := &models.PdpaConsent{
		WpUserID:         claim.WpUserID.Ptr(),
		LineUserID:       claim.LineUserID.Ptr(),
		ConsentSessionID: claim.ConsentSessionID,
		ConsentVersion:   claim.ConsentVersion,
		RequiredConsent:  claim.RequiredConsent.Or(DefaultRequiredConsent),
		MarketingConsent: claim.MarketingConsent.Or(DefaultMarketingConsent),
		AcceptedAt:       timestampPtr(claim.AcceptedAt, loc),
		SourceChannel:    NormalizeChannel(string(claim.SourceChannel)),
		PagePath:         NormalizePagePath(string(claim.PagePath)),
		IPAddress:        audit.IPAddress,
		UserAgent:        audit.UserAgent,
	}
	if claim.ExpiresAt != "" {
		record.ExpiresAt = timestampPtr(string(claim.ExpiresAt), loc)
	}
	return record
}
