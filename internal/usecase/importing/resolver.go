package importing

import (
	"context"
	"strings"

	"github.com/YoshitsuguKoike/epicimport/internal/domain/issue"
)

// DuplicateResolver decides whether a candidate item already exists in the
// tracker. It only reads; it never creates anything.
type DuplicateResolver struct {
	Backend issue.Backend
}

// FindExisting returns the ref of an existing issue whose summary exactly
// matches the candidate (trimmed, NFC-normalized, case-sensitive), or nil
// when no match exists.
//
// For epics the scope is the whole project. For stories parentKey narrows
// the scope to children of that epic, so two epics may each own a story
// with the same summary without one shadowing the other.
//
// The backend's text search is fuzzy, so results are re-checked for exact
// equality here. When several issues match, the first returned wins (the
// backend orders by creation, so that is the oldest); the rest are treated
// as pre-existing duplicates and ignored.
func (r *DuplicateResolver) FindExisting(ctx context.Context, typ issue.Type, summary, parentKey string) (*issue.Ref, error) {
	refs, err := r.Backend.Search(ctx, issue.SearchQuery{
		Type:      typ,
		Summary:   strings.TrimSpace(summary),
		ParentKey: parentKey,
	})
	if err != nil {
		return nil, err
	}

	want := issue.NormalizeSummary(summary)
	for _, ref := range refs {
		if issue.NormalizeSummary(ref.Summary) == want {
			found := ref
			return &found, nil
		}
	}
	return nil, nil
}
