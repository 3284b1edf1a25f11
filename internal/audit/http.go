package audit

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"decline-cloud/internal/auth"
)

// RequestEntry builds the audit entry for an operator action on the decline
// API. The caller comes from the authenticated identity; anonymous requests
// (auth disabled) are recorded with an empty actor. A token's well scope is
// kept in the metadata under "token_wells".
func RequestEntry(r *http.Request, action, resourceType, resourceID string, meta map[string]any) Entry {
	entry := Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IP:           clientIP(r),
		UserAgent:    r.UserAgent(),
	}
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		entry.Actor = id.Subject
		entry.Role = string(id.Role)
		if len(id.Wells) > 0 {
			if meta == nil {
				meta = make(map[string]any, 1)
			}
			meta["token_wells"] = id.Wells
		}
	}
	if meta != nil {
		if payload, err := json.Marshal(meta); err == nil {
			entry.Metadata = payload
			entry.PayloadDigest = DigestJSON(payload)
		}
	}
	return entry
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
