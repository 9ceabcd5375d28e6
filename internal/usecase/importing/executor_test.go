package importing

import (
	"context"
	"errors"
	"testing"

	"github.com/YoshitsuguKoike/epicimport/internal/domain/backlog"
	"github.com/YoshitsuguKoike/epicimport/internal/domain/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginDoc() *backlog.ImportDocument {
	return &backlog.ImportDocument{
		Epics: []backlog.EpicSpec{
			{
				Summary:     "Login",
				Description: "Authentication epic",
				Stories: []backlog.StorySpec{
					{Summary: "Happy path"},
					{Summary: "Invalid password"},
				},
			},
		},
	}
}

func mustPlan(t *testing.T, doc *backlog.ImportDocument) []backlog.PlanStep {
	t.Helper()
	steps, err := backlog.Plan(doc)
	require.NoError(t, err)
	return steps
}

func TestExecuteCreatesAll(t *testing.T) {
	backend := newFakeBackend()
	ex := NewExecutor(backend)

	run := ex.Execute(context.Background(), mustPlan(t, loginDoc()))

	require.Len(t, run.Outcomes, 3)
	sum := Summarize(run.Outcomes)
	assert.Equal(t, 3, sum.Created)
	assert.Equal(t, 0, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)

	// The epic was created first and both stories link to it.
	epicKey := run.Outcomes[0].Ref.Key
	assert.Equal(t, issue.TypeEpic, run.Outcomes[0].Ref.Type)
	assert.Equal(t, epicKey, backend.parents[run.Outcomes[1].Ref.Key])
	assert.Equal(t, epicKey, backend.parents[run.Outcomes[2].Ref.Key])
}

func TestExecuteIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	ex := NewExecutor(backend)

	first := ex.Execute(context.Background(), mustPlan(t, loginDoc()))
	require.Equal(t, 3, Summarize(first.Outcomes).Created)

	second := ex.Execute(context.Background(), mustPlan(t, loginDoc()))
	sum := Summarize(second.Outcomes)
	assert.Equal(t, 0, sum.Created)
	assert.Equal(t, 3, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)

	// The second run skipped onto the refs the first run created.
	for i, out := range second.Outcomes {
		require.NotNil(t, out.Ref)
		assert.Equal(t, first.Outcomes[i].Ref.Key, out.Ref.Key)
	}
}

func TestExecuteEpicFailurePropagatesToStories(t *testing.T) {
	backend := newFakeBackend()
	backend.failCreate["Login"] = &issue.BackendError{Op: "create", StatusCode: 403, Err: errors.New("forbidden")}
	ex := NewExecutor(backend)

	run := ex.Execute(context.Background(), mustPlan(t, loginDoc()))

	require.Len(t, run.Outcomes, 3)
	sum := Summarize(run.Outcomes)
	assert.Equal(t, 0, sum.Created)
	assert.Equal(t, 0, sum.Skipped)
	assert.Equal(t, 3, sum.Failed)

	var berr *issue.BackendError
	require.ErrorAs(t, run.Outcomes[0].Err, &berr)
	assert.Equal(t, 403, berr.StatusCode)

	// Stories fail as dependency failures without touching the backend.
	for _, out := range run.Outcomes[1:] {
		var dep *DependencyFailure
		require.ErrorAs(t, out.Err, &dep)
		assert.Equal(t, "Login", dep.EpicSummary)
	}
	assert.Equal(t, 1, backend.createCalls)
	assert.Equal(t, 1, backend.searchCalls)
}

func TestExecuteSearchFailureDoesNotAbortRun(t *testing.T) {
	doc := &backlog.ImportDocument{
		Epics: []backlog.EpicSpec{
			{Summary: "Login"},
			{Summary: "Billing", Stories: []backlog.StorySpec{{Summary: "Monthly invoice"}}},
		},
	}
	backend := newFakeBackend()
	backend.failSearch["Login"] = &issue.BackendError{Op: "search", Err: errors.New("connection reset")}
	ex := NewExecutor(backend)

	run := ex.Execute(context.Background(), mustPlan(t, doc))

	require.Len(t, run.Outcomes, 3)
	assert.Equal(t, StatusFailed, run.Outcomes[0].Status)
	assert.Equal(t, StatusCreated, run.Outcomes[1].Status)
	assert.Equal(t, StatusCreated, run.Outcomes[2].Status)
}

func TestExecuteDuplicateScopedToParentEpic(t *testing.T) {
	// Two epics each own a story with the same summary. Neither story is
	// a duplicate of the other.
	doc := &backlog.ImportDocument{
		Epics: []backlog.EpicSpec{
			{Summary: "Login", Stories: []backlog.StorySpec{{Summary: "Edge cases"}}},
			{Summary: "Billing", Stories: []backlog.StorySpec{{Summary: "Edge cases"}}},
		},
	}
	backend := newFakeBackend()
	ex := NewExecutor(backend)

	run := ex.Execute(context.Background(), mustPlan(t, doc))
	sum := Summarize(run.Outcomes)
	assert.Equal(t, 4, sum.Created)
	assert.Equal(t, 0, sum.Skipped)

	// And a re-run still matches each story to its own epic's copy.
	rerun := ex.Execute(context.Background(), mustPlan(t, doc))
	resum := Summarize(rerun.Outcomes)
	assert.Equal(t, 0, resum.Created)
	assert.Equal(t, 4, resum.Skipped)
}

func TestExecuteSkipsOnWhitespaceAndNormalizationDifferences(t *testing.T) {
	backend := newFakeBackend()
	ex := NewExecutor(backend)
	ex.Execute(context.Background(), mustPlan(t, &backlog.ImportDocument{
		Epics: []backlog.EpicSpec{{Summary: "Login"}},
	}))

	run := ex.Execute(context.Background(), mustPlan(t, &backlog.ImportDocument{
		Epics: []backlog.EpicSpec{{Summary: "  Login "}},
	}))
	assert.Equal(t, StatusSkippedDuplicate, run.Outcomes[0].Status)
}

func TestExecuteFuzzySearchMatchIsNotADuplicate(t *testing.T) {
	// The backend's contains-match returns "Login flow" for the filter
	// "Login"; the resolver must not treat it as an exact duplicate.
	backend := newFakeBackend()
	ex := NewExecutor(backend)
	ex.Execute(context.Background(), mustPlan(t, &backlog.ImportDocument{
		Epics: []backlog.EpicSpec{{Summary: "Login flow"}},
	}))

	run := ex.Execute(context.Background(), mustPlan(t, &backlog.ImportDocument{
		Epics: []backlog.EpicSpec{{Summary: "Login"}},
	}))
	assert.Equal(t, StatusCreated, run.Outcomes[0].Status)
}

func TestExecuteMultipleMatchesPicksFirst(t *testing.T) {
	backend := newFakeBackend()
	// Pre-existing duplicates, creation order preserved by the fake.
	first, err := backend.Create(context.Background(), issue.CreateRequest{Type: issue.TypeEpic, Summary: "Login"})
	require.NoError(t, err)
	_, err = backend.Create(context.Background(), issue.CreateRequest{Type: issue.TypeEpic, Summary: "Login"})
	require.NoError(t, err)

	ex := NewExecutor(backend)
	run := ex.Execute(context.Background(), mustPlan(t, &backlog.ImportDocument{
		Epics: []backlog.EpicSpec{{Summary: "Login"}},
	}))

	require.Equal(t, StatusSkippedDuplicate, run.Outcomes[0].Status)
	assert.Equal(t, first.Key, run.Outcomes[0].Ref.Key)
}

func TestExecuteLaterEpicStepClearsEarlierFailure(t *testing.T) {
	// Two epic entries share a summary. The first one's create fails; the
	// second succeeds. Its stories must link to the created epic instead
	// of being rejected for the earlier failure.
	doc := &backlog.ImportDocument{
		Epics: []backlog.EpicSpec{
			{Summary: "Login"},
			{Summary: "Login", Stories: []backlog.StorySpec{{Summary: "Happy path"}}},
		},
	}
	backend := newFakeBackend()
	backend.failCreateOnce["Login"] = &issue.BackendError{Op: "create", StatusCode: 500, Err: errors.New("server error")}
	ex := NewExecutor(backend)

	run := ex.Execute(context.Background(), mustPlan(t, doc))

	require.Len(t, run.Outcomes, 3)
	assert.Equal(t, StatusFailed, run.Outcomes[0].Status)
	assert.Equal(t, StatusCreated, run.Outcomes[1].Status)
	assert.Equal(t, StatusCreated, run.Outcomes[2].Status)
	assert.Equal(t, run.Outcomes[1].Ref.Key, backend.parents[run.Outcomes[2].Ref.Key])
}

func TestExecuteCancellationStopsIssuingSteps(t *testing.T) {
	backend := newFakeBackend()
	ex := NewExecutor(backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := ex.Execute(ctx, mustPlan(t, loginDoc()))
	assert.Empty(t, run.Outcomes)
	assert.Equal(t, 0, backend.searchCalls)
	assert.Equal(t, 0, backend.createCalls)
}

func TestExecuteRunID(t *testing.T) {
	backend := newFakeBackend()
	ex := NewExecutor(backend)

	run := ex.Execute(context.Background(), nil)
	assert.Regexp(t, `^RUN-[0-9A-HJKMNP-TV-Z]{26}$`, run.ID)
	assert.False(t, run.StartedAt.IsZero())
}
