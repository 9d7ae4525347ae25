package simulation

import "fmt"

// Keypoint id namespaces. Ids are 1-based within each namespace, so the second
// player keypoint is "player_2".
const (
	CharacterNamespace = "character"
	PlayerNamespace    = "player"
)

// KeypointTracker tracks which keypoints of a simulation have been surfaced
// during a chat. Matching is monotonic; a keypoint never becomes unmatched.
type KeypointTracker struct {
	ids     []string
	matched map[string]bool
}

// NewKeypointTracker initializes an all-unmatched tracker for the simulation's
// keypoint lists.
func NewKeypointTracker(characterKeypoints, playerKeypoints []string) *KeypointTracker {
	tracker := KeypointTracker{
		matched: map[string]bool{},
	}
	for i := range characterKeypoints {
		tracker.add(fmt.Sprintf("%s_%d", CharacterNamespace, i+1))
	}
	for i := range playerKeypoints {
		tracker.add(fmt.Sprintf("%s_%d", PlayerNamespace, i+1))
	}
	return &tracker
}

func (t *KeypointTracker) add(id string) {
	t.ids = append(t.ids, id)
	t.matched[id] = false
}

// Mark flags the given ids as matched and returns the ones that were known and
// previously unmatched. Unknown ids from a confused evaluator are ignored.
func (t *KeypointTracker) Mark(ids []string) []string {
	var newly []string
	for _, id := range ids {
		matched, known := t.matched[id]
		if !known || matched {
			continue
		}
		t.matched[id] = true
		newly = append(newly, id)
	}
	return newly
}

// AllMatched reports whether every keypoint has been surfaced. A simulation
// without keypoints never auto-completes.
func (t *KeypointTracker) AllMatched() bool {
	if len(t.ids) == 0 {
		return false
	}
	for _, id := range t.ids {
		if !t.matched[id] {
			return false
		}
	}
	return true
}

// Matched returns the matched ids in declaration order.
func (t *KeypointTracker) Matched() []string {
	var matched []string
	for _, id := range t.ids {
		if t.matched[id] {
			matched = append(matched, id)
		}
	}
	return matched
}
