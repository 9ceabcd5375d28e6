package importing

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/YoshitsuguKoike/epicimport/internal/app"
	"github.com/YoshitsuguKoike/epicimport/internal/domain/backlog"
	"github.com/YoshitsuguKoike/epicimport/internal/domain/issue"
	"github.com/oklog/ulid/v2"
)

// Executor runs an import plan against the tracker, one backend call in
// flight at a time. Sequential execution is what makes the epic-ref map
// below correct without locking: the tracker has no create-if-absent
// primitive, so concurrent duplicate checks for the same summary could
// race to create two issues.
type Executor struct {
	Backend  issue.Backend
	Resolver *DuplicateResolver
	Now      func() time.Time // time provider (for testing)
	Rand     io.Reader        // random source for run ULIDs (for testing)
}

// NewExecutor wires an executor and its resolver to one backend.
func NewExecutor(backend issue.Backend) *Executor {
	return &Executor{
		Backend:  backend,
		Resolver: &DuplicateResolver{Backend: backend},
		Now:      time.Now,
		Rand:     ulid.DefaultEntropy(),
	}
}

// Run is the result of executing one plan. Outcomes are in plan order.
type Run struct {
	ID        string // RUN-<ULID>
	StartedAt time.Time
	Outcomes  []Outcome
}

// Execute processes the plan strictly in order and records an outcome per
// step. A failed backend call never aborts the run; the step is marked
// failed and execution continues. A story whose parent epic step failed is
// itself failed without a backend call.
//
// Context cancellation stops issuing further steps: remaining steps are
// simply not executed and produce no outcomes. The in-flight call, if any,
// observes the cancellation through its own context.
func (ex *Executor) Execute(ctx context.Context, steps []backlog.PlanStep) *Run {
	startedAt := ex.Now()
	run := &Run{
		ID:        "RUN-" + ulid.MustNew(ulid.Timestamp(startedAt), ex.Rand).String(),
		StartedAt: startedAt,
		Outcomes:  make([]Outcome, 0, len(steps)),
	}

	// Epic summaries resolved during this run, keyed by normalized
	// summary. Local to one execution: duplicate detection re-queries the
	// tracker for truth on every run instead of trusting a cache. Each
	// epic step overwrites its entry whole, so a later step with the same
	// summary replaces an earlier failure and its stories see the ref.
	epics := make(map[string]epicResolution)

	log := app.GetLogger()
	log.Info("%s: executing %d plan steps", run.ID, len(steps))

	for _, step := range steps {
		if ctx.Err() != nil {
			log.Warn("%s: canceled, %d steps not executed", run.ID, len(steps)-len(run.Outcomes))
			break
		}

		var out Outcome
		switch step.Kind {
		case backlog.StepCreateEpic:
			out = ex.executeEpic(ctx, step, epics)
		case backlog.StepCreateStory:
			out = ex.executeStory(ctx, step, epics)
		}

		switch out.Status {
		case StatusCreated:
			log.Info("%s: created %s %s (%s)", run.ID, strings.ToLower(string(out.Ref.Type)), out.Ref.Key, out.Step.Summary())
		case StatusSkippedDuplicate:
			log.Info("%s: %s already exists as %s", run.ID, out.Step.Summary(), out.Ref.Key)
		case StatusFailed:
			log.Error("%s: %s failed: %v", run.ID, out.Position(), out.Err)
		}

		run.Outcomes = append(run.Outcomes, out)
	}

	return run
}

// epicResolution is the per-run state of one epic summary: the ref when
// the latest step for it succeeded, failed when that step errored.
type epicResolution struct {
	ref    *issue.Ref
	failed bool
}

func (ex *Executor) executeEpic(ctx context.Context, step backlog.PlanStep, epics map[string]epicResolution) Outcome {
	key := issue.NormalizeSummary(step.Epic.Summary)

	found, err := ex.Resolver.FindExisting(ctx, issue.TypeEpic, step.Epic.Summary, "")
	if err != nil {
		epics[key] = epicResolution{failed: true}
		return Outcome{Step: step, Status: StatusFailed, Err: err}
	}
	if found != nil {
		epics[key] = epicResolution{ref: found}
		return Outcome{Step: step, Status: StatusSkippedDuplicate, Ref: found}
	}

	created, err := ex.Backend.Create(ctx, issue.CreateRequest{
		Type:        issue.TypeEpic,
		Summary:     strings.TrimSpace(step.Epic.Summary),
		Description: step.Epic.Description,
	})
	if err != nil {
		epics[key] = epicResolution{failed: true}
		return Outcome{Step: step, Status: StatusFailed, Err: err}
	}
	epics[key] = epicResolution{ref: created}
	return Outcome{Step: step, Status: StatusCreated, Ref: created}
}

func (ex *Executor) executeStory(ctx context.Context, step backlog.PlanStep, epics map[string]epicResolution) Outcome {
	// By plan construction the epic step precedes its stories, so the
	// summary always has an entry here; a missing one is treated the
	// same as a failed parent.
	res, ok := epics[step.ParentKey]
	if !ok || res.failed {
		return Outcome{Step: step, Status: StatusFailed, Err: &DependencyFailure{EpicSummary: step.ParentKey}}
	}
	parent := res.ref

	found, err := ex.Resolver.FindExisting(ctx, issue.TypeStory, step.Story.Summary, parent.Key)
	if err != nil {
		return Outcome{Step: step, Status: StatusFailed, Err: err}
	}
	if found != nil {
		return Outcome{Step: step, Status: StatusSkippedDuplicate, Ref: found}
	}

	created, err := ex.Backend.Create(ctx, issue.CreateRequest{
		Type:        issue.TypeStory,
		Summary:     strings.TrimSpace(step.Story.Summary),
		Description: step.Story.Description,
		ParentKey:   parent.Key,
	})
	if err != nil {
		return Outcome{Step: step, Status: StatusFailed, Err: err}
	}
	return Outcome{Step: step, Status: StatusCreated, Ref: created}
}
