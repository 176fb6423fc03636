package domain

// Outcome — итог обработки task.
//
// Используется в метриках и событиях task.completed.
type Outcome string

const (
	// OutcomeSucceeded — обработчик вернул результат.
	OutcomeSucceeded Outcome = "SUCCEEDED"

	// OutcomeFailed — обработчик вернул ошибку.
	OutcomeFailed Outcome = "FAILED"
)

// OutcomeOf возвращает итог по Result.
func OutcomeOf(r *Result) Outcome {
	if r != nil && r.Success {
		return OutcomeSucceeded
	}
	return OutcomeFailed
}

// PollOutcome — итог одного цикла long-poll.
type PollOutcome string

const (
	PollTask  PollOutcome = "task"
	PollEmpty PollOutcome = "empty"
	PollError PollOutcome = "error"
)
