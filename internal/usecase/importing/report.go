package importing

// Failure identifies one failed item for the report.
type Failure struct {
	Position string
	Summary  string
	Err      error
}

// ReportSummary aggregates per-item outcomes. An operator can tell
// "nothing needed creating" (all skipped) from "something is broken"
// (failures present) from a normal first run (all created).
type ReportSummary struct {
	Created  int
	Skipped  int
	Failed   int
	Failures []Failure
}

// Summarize folds outcomes into a summary. Pure aggregation, no side
// effects; failures keep plan order.
func Summarize(outcomes []Outcome) ReportSummary {
	var sum ReportSummary
	for _, o := range outcomes {
		switch o.Status {
		case StatusCreated:
			sum.Created++
		case StatusSkippedDuplicate:
			sum.Skipped++
		case StatusFailed:
			sum.Failed++
			sum.Failures = append(sum.Failures, Failure{
				Position: o.Position(),
				Summary:  o.Step.Summary(),
				Err:      o.Err,
			})
		}
	}
	return sum
}
