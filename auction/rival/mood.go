package rival

import "curator-lite/config"

// ComputeMood derives a rival's mood for a day. The seed is the sum of the
// code points of the whole ID plus day*7, reduced into [0,100).
func ComputeMood(rivalID string, day int) Mood {
	return moodForSeed(MoodSeed(rivalID, day))
}

// MoodSeed returns the bucket seed in [0,100) for a rival and day.
func MoodSeed(rivalID string, day int) int {
	sum := 0
	for _, r := range rivalID {
		sum += int(r)
	}
	seed := (sum + day*7) % 100
	if seed < 0 {
		seed += 100
	}
	return seed
}

func moodForSeed(seed int) Mood {
	switch {
	case seed < 20:
		return MoodDesperate
	case seed < 40:
		return MoodCautious
	case seed < 55:
		return MoodConfident
	default:
		return MoodNormal
	}
}

// ModifierFor returns the patience/budget multipliers for a mood.
func ModifierFor(m Mood, moods config.MoodModifiers) config.MoodModifier {
	switch m {
	case MoodDesperate:
		return moods.Desperate
	case MoodCautious:
		return moods.Cautious
	case MoodConfident:
		return moods.Confident
	default:
		return moods.Normal
	}
}
