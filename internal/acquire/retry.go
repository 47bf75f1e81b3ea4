package acquire

import "fmt"

type outcome int

const (
	done outcome = iota
	// counted failures consume the retry budget.
	counted
	// free failures are retried without touching the budget.
	free
	fatal
)

type exhaustedError struct {
	Attempts int
	Last     error
}

func (e *exhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *exhaustedError) Unwrap() error { return e.Last }

// retry calls op until it reports done or fatal, or until budget counted
// failures have accumulated. Exhaustion returns an *exhaustedError wrapping
// the last failure.
func retry(budget int, op func() (outcome, error)) error {
	used := 0
	for {
		o, err := op()
		switch o {
		case done:
			return nil
		case fatal:
			return err
		case counted:
			used++
			if used >= budget {
				return &exhaustedError{Attempts: used, Last: err}
			}
		case free:
		}
	}
}
