package issue

import "context"

// SearchQuery narrows a backend search. Summary is matched server-side as a
// filter; callers re-check exact equality on the returned refs because most
// trackers only offer fuzzy text matching.
type SearchQuery struct {
	Type      Type
	Summary   string
	ParentKey string // when set, restrict to children of this epic
}

// CreateRequest describes one issue to create.
type CreateRequest struct {
	Type        Type
	Summary     string
	Description string
	ParentKey   string // epic link for stories, empty for epics
}

// Project describes a project visible to the configured credentials.
type Project struct {
	ID   string
	Key  string
	Name string
}

// TypeInfo describes an issue type the tracker knows about.
type TypeInfo struct {
	ID      string
	Name    string
	Subtask bool
}

// FieldInfo describes a field definition, used to locate custom fields
// such as the epic link.
type FieldInfo struct {
	ID     string
	Name   string
	Schema string
}

// Metadata is the discovery payload backing the metadata command.
type Metadata struct {
	Projects   []Project
	IssueTypes []TypeInfo
	Fields     []FieldInfo
}

// Backend is the tracker capability the import core consumes. The project
// scope is fixed at construction time, so the interface carries exactly the
// three operations the core needs. Implementations must return search
// results in the tracker's creation order.
type Backend interface {
	// Search returns issues in the configured project matching the query.
	Search(ctx context.Context, q SearchQuery) ([]Ref, error)

	// Create creates one issue and returns its ref.
	Create(ctx context.Context, req CreateRequest) (*Ref, error)

	// FetchMetadata retrieves projects, issue types and field definitions.
	FetchMetadata(ctx context.Context) (*Metadata, error)
}
