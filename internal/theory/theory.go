// Package theory derives pitches, scales, chords, and diatonic chord
// progressions from a key and mode. All pitches are MIDI note numbers
// (0-127, C4 = 60).
package theory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/songforge/songforge-api/internal/logger"
	"github.com/songforge/songforge-api/internal/models"
)

// ErrInvalidPitch is returned when a note name is unrecognized or a
// computed MIDI value falls outside [0, 127].
var ErrInvalidPitch = errors.New("invalid pitch")

const (
	MinMidi = 0
	MaxMidi = 127

	semitonesPerOctave = 12
)

// noteToMidiBase maps note names (upper-cased) to semitone offsets from C.
// Both sharp and flat spellings are accepted.
var noteToMidiBase = map[string]int{
	"C": 0, "C#": 1, "DB": 1,
	"D": 2, "D#": 3, "EB": 3,
	"E": 4, "FB": 4,
	"F": 5, "F#": 6, "GB": 6,
	"G": 7, "G#": 8, "AB": 8,
	"A": 9, "A#": 10, "BB": 10,
	"B": 11, "CB": 11,
}

// midiToNoteNameSharp is the canonical sharp spelling per semitone.
var midiToNoteNameSharp = []string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// NoteToMidi converts a note name and octave to a MIDI note number.
// The name is case-insensitive and may use sharps or flats; octave 4's
// C is MIDI 60, so valid octaves run from -1 (C-1 = 0) to 9 (G9 = 127).
func NoteToMidi(name string, octave int) (int, error) {
	base, ok := noteToMidiBase[strings.ToUpper(name)]
	if !ok {
		return 0, fmt.Errorf("%w: unknown note name %q", ErrInvalidPitch, name)
	}
	midi := base + (octave+1)*semitonesPerOctave
	if midi < MinMidi || midi > MaxMidi {
		return 0, fmt.Errorf("%w: %s%d resolves to %d, outside [0,127]", ErrInvalidPitch, name, octave, midi)
	}
	return midi, nil
}

// MidiToNoteName converts a MIDI note number to its sharp-spelled name
// and octave, e.g. 60 -> "C", 4.
func MidiToNoteName(midi int) (string, int, error) {
	if midi < MinMidi || midi > MaxMidi {
		return "", 0, fmt.Errorf("%w: MIDI note %d outside [0,127]", ErrInvalidPitch, midi)
	}
	return midiToNoteNameSharp[midi%semitonesPerOctave], midi/semitonesPerOctave - 1, nil
}

// NoteName formats a MIDI note number as "C4"-style text. Out-of-range
// values format as "?" rather than erroring; use MidiToNoteName when the
// caller needs to distinguish.
func NoteName(midi int) string {
	name, octave, err := MidiToNoteName(midi)
	if err != nil {
		return "?"
	}
	return fmt.Sprintf("%s%d", name, octave)
}

// scaleIntervals holds semitone offsets from the root per mode.
var scaleIntervals = map[string][]int{
	"major":             {0, 2, 4, 5, 7, 9, 11},
	"minor":             {0, 2, 3, 5, 7, 8, 10}, // natural minor
	"harmonic_minor":    {0, 2, 3, 5, 7, 8, 11},
	"melodic_minor_asc": {0, 2, 3, 5, 7, 9, 11},
	"dorian":            {0, 2, 3, 5, 7, 9, 10},
	"phrygian":          {0, 1, 3, 5, 7, 8, 10},
	"lydian":            {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":        {0, 2, 4, 5, 7, 9, 10},
	"locrian":           {0, 1, 3, 4, 6, 8, 10},
	"major_pentatonic":  {0, 2, 4, 7, 9},
	"minor_pentatonic":  {0, 3, 5, 7, 10},
	"blues":             {0, 3, 5, 6, 7, 10},
}

// resolveMode maps an arbitrary mode string onto a known scale. Unknown
// names fall back by substring ("minor"/"major"), then default to major
// with a warning. Resolution is never an error.
func resolveMode(mode string) string {
	lower := strings.ToLower(mode)
	if _, ok := scaleIntervals[lower]; ok {
		return lower
	}
	if strings.Contains(lower, "major") {
		return "major"
	}
	if strings.Contains(lower, "minor") {
		return "minor"
	}
	logger.Warn("Scale mode not recognized, defaulting to major", logger.Fields{"mode": mode})
	return "major"
}

// ScaleNotes expands a mode's interval set across octaves transpositions
// above root, appends the top root, drops out-of-range notes, and returns
// the result deduplicated in ascending order.
func ScaleNotes(rootMidi int, mode string, octaves int) []int {
	intervals := scaleIntervals[resolveMode(mode)]

	seen := make(map[int]bool)
	var notes []int
	add := func(n int) {
		if n >= MinMidi && n <= MaxMidi && !seen[n] {
			seen[n] = true
			notes = append(notes, n)
		}
	}

	for i := 0; i < octaves; i++ {
		for _, interval := range intervals {
			add(rootMidi + interval + i*semitonesPerOctave)
		}
	}
	add(rootMidi + octaves*semitonesPerOctave)

	// Intervals ascend within each octave pass, so insertion order is
	// already sorted; dedup above preserves that.
	return notes
}

// chordTypeIntervals holds semitone offsets from the chord root per quality.
var chordTypeIntervals = map[string][]int{
	"major_triad":             {0, 4, 7},
	"minor_triad":             {0, 3, 7},
	"diminished_triad":        {0, 3, 6},
	"augmented_triad":         {0, 4, 8},
	"major_seventh":           {0, 4, 7, 11},
	"minor_seventh":           {0, 3, 7, 10},
	"dominant_seventh":        {0, 4, 7, 10},
	"diminished_seventh":      {0, 3, 6, 9},
	"half_diminished_seventh": {0, 3, 6, 10},
	"sus2":                    {0, 2, 7},
	"sus4":                    {0, 5, 7},
}

// resolveChordType maps an arbitrary chord-type string onto a known
// quality using the same substring heuristics the progression generator
// relies on, defaulting to a major triad with a warning.
func resolveChordType(chordType string) string {
	lower := strings.ToLower(chordType)
	if _, ok := chordTypeIntervals[lower]; ok {
		return lower
	}
	seventh := strings.Contains(lower, "7") || strings.Contains(lower, "seventh")
	switch {
	case strings.Contains(lower, "maj") && !seventh:
		return "major_triad"
	case strings.Contains(lower, "min") && !seventh:
		return "minor_triad"
	case strings.Contains(lower, "dom") || (strings.Contains(lower, "maj") && seventh):
		return "dominant_seventh"
	case strings.Contains(lower, "min") && seventh:
		return "minor_seventh"
	}
	logger.Warn("Chord type not recognized, defaulting to major triad", logger.Fields{"chord_type": chordType})
	return "major_triad"
}

// ChordNotes materializes a chord quality above a root, silently dropping
// notes that fall outside the MIDI range.
func ChordNotes(rootMidi int, chordType string) []int {
	intervals := chordTypeIntervals[resolveChordType(chordType)]
	notes := make([]int, 0, len(intervals))
	for _, interval := range intervals {
		n := rootMidi + interval
		if n >= MinMidi && n <= MaxMidi {
			notes = append(notes, n)
		}
	}
	return notes
}

// Diatonic chord quality per scale degree. Minor keys use the harmonic
// minor derivation so degree V is a major (dominant-capable) chord.
var diatonicChordsMajor = map[int]string{
	1: "major_triad", 2: "minor_triad", 3: "minor_triad", 4: "major_triad",
	5: "major_triad", 6: "minor_triad", 7: "diminished_triad",
}

var diatonicChordsMinor = map[int]string{
	1: "minor_triad", 2: "diminished_triad", 3: "augmented_triad", 4: "minor_triad",
	5: "major_triad", 6: "major_triad", 7: "diminished_triad",
}

var romanNumeralsMajor = []string{"I", "ii", "iii", "IV", "V", "vi", "vii°"}
var romanNumeralsMinor = []string{"i", "ii°", "III+", "iv", "V", "VI", "vii°"}

// Repeating degree patterns; one is chosen per progression by
// length mod len(table), keeping selection deterministic.
var degreePatternsMajor = [][]int{
	{1, 4, 5, 1}, // I-IV-V-I
	{1, 5, 6, 4}, // I-V-vi-IV
	{2, 5, 1},    // ii-V-I
	{1, 6, 4, 5}, // I-vi-IV-V
}

var degreePatternsMinor = [][]int{
	{1, 4, 5, 1}, // i-iv-V-i
	{1, 6, 3, 7}, // i-VI-III-VII
	{1, 2, 5, 1}, // i-ii°-V-i
}

// isMajorKey decides major/minor treatment for progression building.
// Anything not explicitly minor-flavored is treated as major.
func isMajorKey(mode string) bool {
	lower := strings.ToLower(mode)
	if strings.Contains(lower, "major") {
		return true
	}
	switch lower {
	case "minor", "dorian", "phrygian", "locrian":
		return false
	}
	return !strings.Contains(lower, "minor")
}

// tonicOnlyProgression is the degenerate-scale fallback: the plain tonic
// chord repeated to the requested length.
func tonicOnlyProgression(rootMidi int, major bool, numChords int) []models.Chord {
	chordType := "minor_triad"
	numeral := "i"
	if major {
		chordType = "major_triad"
		numeral = "I"
	}
	notes := ChordNotes(rootMidi, chordType)
	prog := make([]models.Chord, 0, numChords)
	for i := 0; i < numChords; i++ {
		prog = append(prog, models.Chord{
			RootMidi: rootMidi,
			Type:     chordType,
			Notes:    notes,
			Degree:   1,
			Name:     fmt.Sprintf("%s (%s %s)", numeral, noteNameOnly(rootMidi), chordType),
		})
	}
	return prog
}

func noteNameOnly(midi int) string {
	name, _, err := MidiToNoteName(midi)
	if err != nil {
		return "?"
	}
	return name
}

// GenerateChordProgression builds numChords diatonic chords in the given
// key by cycling a degree pattern over one octave of the key's scale.
// Minor keys draw scale-degree roots from the harmonic minor scale.
// A scale with fewer than seven usable notes degrades to a tonic-only
// progression rather than failing.
func GenerateChordProgression(keyRootMidi int, keyMode string, numChords int) []models.Chord {
	if numChords <= 0 {
		return []models.Chord{}
	}

	major := isMajorKey(keyMode)
	rootScale := "harmonic_minor"
	if major {
		rootScale = "major"
	}
	scale := ScaleNotes(keyRootMidi, rootScale, 1)

	diatonic := diatonicChordsMinor
	numerals := romanNumeralsMinor
	patterns := degreePatternsMinor
	if major {
		diatonic = diatonicChordsMajor
		numerals = romanNumeralsMajor
		patterns = degreePatternsMajor
	}

	if len(scale) < 7 {
		logger.Warn("Scale too short for diatonic chords, falling back to tonic", logger.Fields{
			"key_root": NoteName(keyRootMidi), "key_mode": keyMode, "scale_len": len(scale),
		})
		return tonicOnlyProgression(keyRootMidi, major, numChords)
	}

	pattern := patterns[numChords%len(patterns)]
	maxDegree := 0
	for _, degree := range pattern {
		if degree > maxDegree {
			maxDegree = degree
		}
	}
	if len(scale) < maxDegree {
		logger.Warn("Degree pattern exceeds usable scale, falling back to tonic", logger.Fields{
			"key_root": NoteName(keyRootMidi), "key_mode": keyMode, "max_degree": maxDegree,
		})
		return tonicOnlyProgression(keyRootMidi, major, numChords)
	}

	prog := make([]models.Chord, 0, numChords)
	for i := 0; i < numChords; i++ {
		degree := pattern[i%len(pattern)]
		rootMidi := scale[degree-1]
		chordType := diatonic[degree]

		numeral := ""
		if degree-1 < len(numerals) {
			numeral = numerals[degree-1]
		}

		prog = append(prog, models.Chord{
			RootMidi: rootMidi,
			Type:     chordType,
			Notes:    ChordNotes(rootMidi, chordType),
			Degree:   degree,
			Name:     fmt.Sprintf("%s (%s %s)", numeral, noteNameOnly(rootMidi), chordType),
		})
	}
	return prog
}
