package simulation

import "time"

// SetTurnTimeout shortens the turn deadline so tests can exercise abandoned
// consumers without waiting out the production bound.
func (r *Runner) SetTurnTimeout(timeout time.Duration) {
	r.timeout = timeout
}

// TurnIdle reports whether no turn is producing for the chat.
func (r *Runner) TurnIdle(chatID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, running := r.inFlight[chatID]
	return !running
}
