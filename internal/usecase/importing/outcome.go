package importing

import (
	"fmt"

	"github.com/YoshitsuguKoike/epicimport/internal/domain/backlog"
	"github.com/YoshitsuguKoike/epicimport/internal/domain/issue"
)

// Status classifies the result of one plan step.
type Status string

const (
	StatusCreated          Status = "created"
	StatusSkippedDuplicate Status = "skipped_duplicate"
	StatusFailed           Status = "failed"
)

// Outcome records what happened to one plan step. Ref is set for Created
// and SkippedDuplicate, Err for Failed.
type Outcome struct {
	Step   backlog.PlanStep
	Status Status
	Ref    *issue.Ref
	Err    error
}

// Position renders the step's document position, matching the prefixes
// validation errors use.
func (o Outcome) Position() string {
	if o.Step.StoryIndex < 0 {
		return fmt.Sprintf("epics[%d]", o.Step.EpicIndex)
	}
	return fmt.Sprintf("epics[%d].stories[%d]", o.Step.EpicIndex, o.Step.StoryIndex)
}

// DependencyFailure marks a story whose parent epic step failed in the same
// run. The story is failed without any backend call; no issue is created
// under a missing parent.
type DependencyFailure struct {
	EpicSummary string
}

func (e *DependencyFailure) Error() string {
	return fmt.Sprintf("parent epic %q was not resolved in this run", e.EpicSummary)
}
