package models

// Path is an ordered sequence of simulations with per-step attempt limits.
type Path struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Public      bool             `json:"public"`
	Steps       []PathSimulation `json:"steps"`
}

// PathSimulation is one step of a path.
type PathSimulation struct {
	ID           int64 `json:"id"`
	SimulationID int64 `json:"simulation_id"`
	OrderIndex   int   `json:"order_index"`
	MaxAttempts  int   `json:"max_attempts"`
}

// PathProgress tracks one user's attempts at one path step.
type PathProgress struct {
	PathID            int64  `json:"path_id"`
	PathSimulationID  int64  `json:"path_simulation_id"`
	UserID            []byte `json:"-"`
	AttemptsUsed      int    `json:"attempts_used"`
	Completed         bool   `json:"completed"`
	LastAttemptFailed bool   `json:"last_attempt_failed"`
}

// StepState is how a path step is presented to the player.
type StepState string

const (
	// StepStateAvailable means attempts remain and no prior attempt failed.
	StepStateAvailable StepState = "available"
	// StepStateRetry means a prior attempt failed but attempts remain.
	StepStateRetry StepState = "retry"
	// StepStateCompleted means the step was finished successfully.
	StepStateCompleted StepState = "completed"
	// StepStateFailed means attempts are exhausted without completion.
	StepStateFailed StepState = "failed"
)

// State derives the presentation state of a step from its progress record.
// A nil progress means the step has never been attempted.
func (s PathSimulation) State(progress *PathProgress) StepState {
	if progress == nil {
		return StepStateAvailable
	}
	if progress.Completed {
		return StepStateCompleted
	}
	if progress.AttemptsUsed >= s.MaxAttempts {
		return StepStateFailed
	}
	if progress.LastAttemptFailed {
		return StepStateRetry
	}
	return StepStateAvailable
}
