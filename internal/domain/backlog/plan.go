package backlog

import (
	"fmt"
	"strings"

	"github.com/YoshitsuguKoike/epicimport/internal/domain/issue"
)

// StepKind discriminates the two kinds of plan steps.
type StepKind int

const (
	StepCreateEpic StepKind = iota
	StepCreateStory
)

// PlanStep is one unit of intended work, produced before any backend call.
// Epic steps carry the epic spec; story steps carry the story spec plus the
// normalized summary of the owning epic, which the executor resolves to an
// issue ref at execution time.
type PlanStep struct {
	Kind       StepKind
	Epic       EpicSpec
	Story      StorySpec
	EpicIndex  int
	StoryIndex int    // -1 for epic steps
	ParentKey  string // normalized owning-epic summary, story steps only
}

// Summary returns the candidate summary of the step's own item.
func (s PlanStep) Summary() string {
	if s.Kind == StepCreateEpic {
		return s.Epic.Summary
	}
	return s.Story.Summary
}

// ValidationError reports a malformed input item by position. Planning
// fails as a whole on the first violation so a bad document never
// partially imports.
type ValidationError struct {
	EpicIndex  int
	StoryIndex int // -1 when the epic itself is invalid
}

func (e *ValidationError) Error() string {
	if e.StoryIndex < 0 {
		return fmt.Sprintf("epics[%d]: summary is required", e.EpicIndex)
	}
	return fmt.Sprintf("epics[%d].stories[%d]: summary is required", e.EpicIndex, e.StoryIndex)
}

// Plan walks the document and produces the ordered create steps: epics in
// document order, each immediately followed by its stories in document
// order. The two-level hierarchy guarantees parent-before-child ordering
// without a dependency resolution pass.
//
// The whole document is validated before the first step is emitted; any
// empty summary aborts planning with a ValidationError and zero backend
// calls are ever made for the document.
func Plan(doc *ImportDocument) ([]PlanStep, error) {
	for i, e := range doc.Epics {
		if strings.TrimSpace(e.Summary) == "" {
			return nil, &ValidationError{EpicIndex: i, StoryIndex: -1}
		}
		for j, s := range e.Stories {
			if strings.TrimSpace(s.Summary) == "" {
				return nil, &ValidationError{EpicIndex: i, StoryIndex: j}
			}
		}
	}

	n := len(doc.Epics)
	for _, e := range doc.Epics {
		n += len(e.Stories)
	}

	steps := make([]PlanStep, 0, n)
	for i, e := range doc.Epics {
		steps = append(steps, PlanStep{
			Kind:       StepCreateEpic,
			Epic:       e,
			EpicIndex:  i,
			StoryIndex: -1,
		})
		parentKey := issue.NormalizeSummary(e.Summary)
		for j, s := range e.Stories {
			steps = append(steps, PlanStep{
				Kind:       StepCreateStory,
				Story:      s,
				EpicIndex:  i,
				StoryIndex: j,
				ParentKey:  parentKey,
			})
		}
	}
	return steps, nil
}
