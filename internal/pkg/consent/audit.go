package consent

import "strings"

// Transport carries the request metadata the audit trail is derived from.
type Transport struct {
	ForwardedFor string // raw X-Forwarded-For
	PeerAddr     string // transport-level remote address
	UserAgent    string
}

// AuditContext is server-observed metadata attached to every record.
type AuditContext struct {
	IPAddress *string
	UserAgent string
}

// DeriveAuditContext picks the leftmost X-Forwarded-For entry, falling back to
// the peer address. It never fails; missing data yields nil or "".
func DeriveAuditContext(t Transport) AuditContext {
	ip, _, _ := strings.Cut(t.ForwardedFor, ",")
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = strings.TrimSpace(t.PeerAddr)
	}

	audit := AuditContext{UserAgent: Truncate(t.UserAgent, MaxUserAgentLength)}
	if ip != "" {
		ip = Truncate(ip, MaxIPAddressLength)
		audit.IPAddress = &ip
	}
	return audit
}
