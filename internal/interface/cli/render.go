package cli

import (
	"fmt"
	"io"

	"github.com/YoshitsuguKoike/epicimport/internal/domain/backlog"
	"github.com/YoshitsuguKoike/epicimport/internal/usecase/importing"
)

// renderReport writes the human-readable run summary. All three outcome
// kinds are shown so "nothing needed creating" reads differently from
// "something is broken".
func renderReport(w io.Writer, run *importing.Run, sum importing.ReportSummary) {
	fmt.Fprintf(w, "\nImport %s finished: %d created, %d skipped as duplicates, %d failed\n",
		run.ID, sum.Created, sum.Skipped, sum.Failed)

	if len(sum.Failures) == 0 {
		return
	}
	fmt.Fprintln(w, "\nFailures:")
	for _, f := range sum.Failures {
		fmt.Fprintf(w, "  %s %q: %v\n", f.Position, f.Summary, f.Err)
	}
}

// renderPlan writes the dry-run view of a plan.
func renderPlan(w io.Writer, steps []backlog.PlanStep) {
	fmt.Fprintf(w, "Plan: %d steps\n", len(steps))
	for _, s := range steps {
		if s.Kind == backlog.StepCreateEpic {
			fmt.Fprintf(w, "  create epic  %q\n", s.Epic.Summary)
			continue
		}
		fmt.Fprintf(w, "  create story %q (under %q)\n", s.Story.Summary, s.ParentKey)
	}
}
