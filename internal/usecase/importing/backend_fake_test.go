package importing

import (
	"context"
	"fmt"
	"strings"

	"github.com/YoshitsuguKoike/epicimport/internal/domain/issue"
)

// fakeBackend is an in-memory tracker double. It mimics the real thing's
// fuzzy text search (contains-match) and creation-ordered results, so
// resolver tests exercise the exact-match re-check.
type fakeBackend struct {
	issues  []issue.Ref
	parents map[string]string // issue key -> parent epic key

	nextID      int
	searchCalls int
	createCalls int

	failSearch     map[string]error // summary -> error to return
	failCreate     map[string]error
	failCreateOnce map[string]error // consumed on first use
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		parents:        make(map[string]string),
		failSearch:     make(map[string]error),
		failCreate:     make(map[string]error),
		failCreateOnce: make(map[string]error),
	}
}

func (f *fakeBackend) Search(ctx context.Context, q issue.SearchQuery) ([]issue.Ref, error) {
	f.searchCalls++
	if err := f.failSearch[q.Summary]; err != nil {
		return nil, err
	}
	var refs []issue.Ref
	for _, ref := range f.issues {
		if ref.Type != q.Type {
			continue
		}
		if !strings.Contains(ref.Summary, q.Summary) {
			continue
		}
		if q.ParentKey != "" && f.parents[ref.Key] != q.ParentKey {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (f *fakeBackend) Create(ctx context.Context, req issue.CreateRequest) (*issue.Ref, error) {
	f.createCalls++
	if err := f.failCreate[req.Summary]; err != nil {
		return nil, err
	}
	if err := f.failCreateOnce[req.Summary]; err != nil {
		delete(f.failCreateOnce, req.Summary)
		return nil, err
	}
	f.nextID++
	ref := issue.Ref{
		ID:      fmt.Sprintf("%d", 10000+f.nextID),
		Key:     fmt.Sprintf("PROJ-%d", f.nextID),
		Summary: req.Summary,
		Type:    req.Type,
	}
	f.issues = append(f.issues, ref)
	if req.ParentKey != "" {
		f.parents[ref.Key] = req.ParentKey
	}
	return &ref, nil
}

func (f *fakeBackend) FetchMetadata(ctx context.Context) (*issue.Metadata, error) {
	return &issue.Metadata{
		Projects: []issue.Project{{ID: "10000", Key: "PROJ", Name: "Project"}},
		IssueTypes: []issue.TypeInfo{
			{ID: "10001", Name: "Epic"},
			{ID: "10002", Name: "Story"},
		},
	}, nil
}
