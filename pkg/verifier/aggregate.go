package verifier

// Status is the run-level outcome of a verification.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusReview    Status = "review"
	StatusDiscarded Status = "discarded"
)

// Report is the sealed outcome of one verification run. It is built by
// Aggregate and owned by the caller; textvet never returns a partial
// report.
type Report struct {
	FinalStatus   Status         `json:"final_status"`
	SuccessRate   float64        `json:"success_rate"`
	ExecutionTime float64        `json:"execution_time"` // seconds
	Results       []MethodResult `json:"results"`
}

// Aggregate reduces the ordered method results into a final status.
//
// One failed eliminatory method discards the whole run regardless of
// any other passes. Otherwise the count of passed methods (either
// mode) is checked against the confirmed and review thresholds, in
// that order. The success rate is the unweighted mean of all method
// scores and is independent of the final status.
//
// All methods have already run to completion by the time this is
// called; aggregation never short-circuits.
func Aggregate(results []MethodResult, requiredConfirmed, requiredReview int) *Report {
	eliminatoryFailed := false
	passedCount := 0
	scoreSum := 0.0

	for _, r := range results {
		if r.Mode == ModeEliminatory && !r.Passed {
			eliminatoryFailed = true
		}
		if r.Passed {
			passedCount++
		}
		scoreSum += r.Score
	}

	status := StatusDiscarded
	switch {
	case eliminatoryFailed:
		status = StatusDiscarded
	case passedCount >= requiredConfirmed:
		status = StatusConfirmed
	case passedCount >= requiredReview:
		status = StatusReview
	}

	successRate := 0.0
	if len(results) > 0 {
		successRate = scoreSum / float64(len(results))
	}

	return &Report{
		FinalStatus: status,
		SuccessRate: successRate,
		Results:     results,
	}
}
