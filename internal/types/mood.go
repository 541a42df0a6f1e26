package types

// MoodState is one of five ordered mood buckets.
type MoodState int

const (
	MoodVeryUnsatisfied MoodState = iota + 1
	MoodUnsatisfied
	MoodNeutral
	MoodSatisfied
	MoodVerySatisfied
)

// Mood values are expected in [MinMood, MaxMood].
const (
	MinMood = 0
	MaxMood = 100
)

// ClassifyMood maps a mood value to its bucket using inclusive upper
// bounds of 20, 40, 60 and 80. Out-of-range values fall into the nearest
// bucket.
func ClassifyMood(value int) MoodState {
	switch {
	case value <= 20:
		return MoodVeryUnsatisfied
	case value <= 40:
		return MoodUnsatisfied
	case value <= 60:
		return MoodNeutral
	case value <= 80:
		return MoodSatisfied
	default:
		return MoodVerySatisfied
	}
}

// Bucket returns the 1-based ordinal of the state.
func (m MoodState) Bucket() int {
	return int(m)
}

// Label returns the display label of the state.
func (m MoodState) Label() string {
	switch m {
	case MoodVeryUnsatisfied:
		return "Very Unsatisfied"
	case MoodUnsatisfied:
		return "Unsatisfied"
	case MoodNeutral:
		return "Neutral"
	case MoodSatisfied:
		return "Satisfied"
	case MoodVerySatisfied:
		return "Very Satisfied"
	default:
		return "Unknown"
	}
}

func (m MoodState) String() string {
	return m.Label()
}

// Descriptors returns words a user can pick to describe a mood in this
// bucket.
func (m MoodState) Descriptors() []string {
	d := moodDescriptors[m]
	out := make([]string, len(d))
	copy(out, d)
	return out
}

var moodDescriptors = map[MoodState][]string{
	MoodVeryUnsatisfied: {"Angry", "Frustrated", "Overwhelmed", "Stressed", "Anxious", "Sad", "Depressed", "Hopeless", "Exhausted", "Disappointed"},
	MoodUnsatisfied:     {"Tired", "Worried", "Uncomfortable", "Restless", "Irritated", "Lonely", "Confused", "Uncertain", "Bored", "Disconnected"},
	MoodNeutral:         {"Content", "Calm", "Peaceful", "Indifferent", "Drained", "Balanced", "Stable", "Quiet", "Reserved", "Thoughtful"},
	MoodSatisfied:       {"Happy", "Grateful", "Proud", "Confident", "Excited", "Energetic", "Motivated", "Optimistic", "Relaxed", "Comfortable"},
	MoodVerySatisfied:   {"Joyful", "Elated", "Ecstatic", "Blissful", "Triumphant", "Inspired", "Fulfilled", "Loved", "Grateful", "Euphoric"},
}
