package models

// Mood names an emotional register and carries its behavior bands.
type Mood struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Behaviors []MoodBehavior `json:"behaviors"`
}

// MoodBehavior describes how a character acts above a given intensity threshold.
// The active behavior is the one with the highest threshold that is still <= the current intensity.
type MoodBehavior struct {
	ID                  int64  `json:"id"`
	ThresholdPercentage int    `json:"threshold_percentage"`
	BehaviorText        string `json:"behavior_text"`
}

// ActiveBehavior returns the behavior text for the given intensity, or "" when no band applies.
func (m Mood) ActiveBehavior(intensity int) string {
	var (
		best      string
		bestFound bool
		bestLevel int
	)
	for _, behavior := range m.Behaviors {
		if behavior.ThresholdPercentage <= intensity &&
			(!bestFound || behavior.ThresholdPercentage >= bestLevel) {
			best = behavior.BehaviorText
			bestLevel = behavior.ThresholdPercentage
			bestFound = true
		}
	}
	return best
}
