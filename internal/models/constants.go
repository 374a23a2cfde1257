package models

// Mood steers mode selection and the per-layer generators.
const (
	MoodHappy = "Happy"
	MoodSad   = "Sad"
	MoodChill = "Chill"
)

// Fixed drum pitches; the synthesis engine resolves the drum instrument
// by pitch value.
const (
	DrumKick    = 60
	DrumSnare   = 61
	DrumHat     = 62
	DrumOpenHat = 63
)
