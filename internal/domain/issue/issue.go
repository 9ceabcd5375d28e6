package issue

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Type identifies the kind of work item in the tracker
type Type string

const (
	TypeEpic  Type = "Epic"
	TypeStory Type = "Story"
)

// Ref identifies an issue already known to the tracker, either pre-existing
// or just created. Immutable once obtained.
type Ref struct {
	ID      string // tracker-internal numeric ID
	Key     string // human-facing key, e.g. "PROJ-42"
	Summary string
	Type    Type
}

// NormalizeSummary produces the canonical form of a summary used for
// duplicate matching: leading/trailing whitespace trimmed, NFC-normalized.
// Matching stays case-sensitive.
func NormalizeSummary(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
