package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteToMidi(t *testing.T) {
	tests := []struct {
		name     string
		note     string
		octave   int
		expected int
	}{
		{name: "middle C", note: "C", octave: 4, expected: 60},
		{name: "concert A", note: "A", octave: 4, expected: 69},
		{name: "lowercase accepted", note: "c", octave: 4, expected: 60},
		{name: "sharp spelling", note: "C#", octave: 3, expected: 49},
		{name: "flat spelling same pitch", note: "Db", octave: 3, expected: 49},
		{name: "enharmonic Cb", note: "Cb", octave: 4, expected: 71},
		{name: "lowest note", note: "C", octave: -1, expected: 0},
		{name: "highest note", note: "G", octave: 9, expected: 127},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			midi, err := NoteToMidi(tt.note, tt.octave)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, midi)
		})
	}
}

func TestNoteToMidi_Invalid(t *testing.T) {
	_, err := NoteToMidi("H", 4)
	assert.ErrorIs(t, err, ErrInvalidPitch)

	_, err = NoteToMidi("A", 9)
	assert.ErrorIs(t, err, ErrInvalidPitch)

	_, err = NoteToMidi("B", -2)
	assert.ErrorIs(t, err, ErrInvalidPitch)
}

func TestMidiToNoteName_RoundTrip(t *testing.T) {
	for midi := 0; midi <= 127; midi++ {
		name, octave, err := MidiToNoteName(midi)
		require.NoError(t, err)

		back, err := NoteToMidi(name, octave)
		require.NoError(t, err)
		assert.Equal(t, midi, back)
	}

	_, _, err := MidiToNoteName(128)
	assert.ErrorIs(t, err, ErrInvalidPitch)
}

func TestNoteName(t *testing.T) {
	assert.Equal(t, "C4", NoteName(60))
	assert.Equal(t, "A4", NoteName(69))
	assert.Equal(t, "C#5", NoteName(73))
	assert.Equal(t, "C-1", NoteName(0))
	assert.Equal(t, "?", NoteName(-1))
	assert.Equal(t, "?", NoteName(200))
}

func TestScaleNotes(t *testing.T) {
	tests := []struct {
		name     string
		rootMidi int
		mode     string
		octaves  int
		expected []int
	}{
		{
			name:     "C major one octave",
			rootMidi: 60,
			mode:     "major",
			octaves:  1,
			expected: []int{60, 62, 64, 65, 67, 69, 71, 72},
		},
		{
			name:     "A natural minor one octave",
			rootMidi: 57,
			mode:     "minor",
			octaves:  1,
			expected: []int{57, 59, 60, 62, 64, 65, 67, 69},
		},
		{
			name:     "C major pentatonic",
			rootMidi: 60,
			mode:     "major_pentatonic",
			octaves:  1,
			expected: []int{60, 62, 64, 67, 69, 72},
		},
		{
			name:     "unknown mode falls back to major",
			rootMidi: 60,
			mode:     "hypermixolydian",
			octaves:  1,
			expected: []int{60, 62, 64, 65, 67, 69, 71, 72},
		},
		{
			name:     "top of range truncated",
			rootMidi: 120,
			mode:     "major",
			octaves:  1,
			expected: []int{120, 122, 124, 125, 127},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScaleNotes(tt.rootMidi, tt.mode, tt.octaves))
		})
	}
}

func TestScaleNotes_TwoOctavesAscending(t *testing.T) {
	notes := ScaleNotes(60, "major", 2)
	require.Len(t, notes, 15)
	for i := 1; i < len(notes); i++ {
		assert.Greater(t, notes[i], notes[i-1])
	}
	assert.Equal(t, 84, notes[len(notes)-1])
}

func TestChordNotes(t *testing.T) {
	tests := []struct {
		name      string
		rootMidi  int
		chordType string
		expected  []int
	}{
		{name: "C major triad", rootMidi: 60, chordType: "major_triad", expected: []int{60, 64, 67}},
		{name: "A minor triad", rootMidi: 57, chordType: "minor_triad", expected: []int{57, 60, 64}},
		{name: "G dominant seventh", rootMidi: 55, chordType: "dominant_seventh", expected: []int{55, 59, 62, 65}},
		{name: "sus4", rootMidi: 60, chordType: "sus4", expected: []int{60, 65, 67}},
		{name: "shorthand maj resolves", rootMidi: 60, chordType: "maj", expected: []int{60, 64, 67}},
		{name: "shorthand min7 resolves", rootMidi: 60, chordType: "min7", expected: []int{60, 63, 67, 70}},
		{name: "unknown defaults to major triad", rootMidi: 60, chordType: "mystery", expected: []int{60, 64, 67}},
		{name: "top of range truncated", rootMidi: 125, chordType: "major_triad", expected: []int{125}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ChordNotes(tt.rootMidi, tt.chordType))
		})
	}
}

func TestGenerateChordProgression_MajorFourChords(t *testing.T) {
	// Four chords in a major key select the I-IV-V-I pattern.
	prog := GenerateChordProgression(60, "major", 4)
	require.Len(t, prog, 4)

	assert.Equal(t, []int{1, 4, 5, 1}, []int{prog[0].Degree, prog[1].Degree, prog[2].Degree, prog[3].Degree})
	assert.Equal(t, 60, prog[0].RootMidi)
	assert.Equal(t, 65, prog[1].RootMidi)
	assert.Equal(t, 67, prog[2].RootMidi)
	assert.Equal(t, "major_triad", prog[0].Type)
	assert.Equal(t, []int{60, 64, 67}, prog[0].Notes)
	assert.Contains(t, prog[0].Name, "I")
	assert.Contains(t, prog[1].Name, "IV")
}

func TestGenerateChordProgression_MinorUsesHarmonicMinorRoots(t *testing.T) {
	// Four chords in a minor key select the i-VI-III-VII pattern; roots
	// come from the harmonic minor scale, so degree VII sits on the
	// raised seventh.
	prog := GenerateChordProgression(57, "minor", 4)
	require.Len(t, prog, 4)

	assert.Equal(t, []int{1, 6, 3, 7}, []int{prog[0].Degree, prog[1].Degree, prog[2].Degree, prog[3].Degree})
	assert.Equal(t, 57, prog[0].RootMidi)
	assert.Equal(t, "minor_triad", prog[0].Type)
	assert.Equal(t, 65, prog[1].RootMidi)
	assert.Equal(t, "major_triad", prog[1].Type)
	assert.Equal(t, 60, prog[2].RootMidi)
	assert.Equal(t, "augmented_triad", prog[2].Type)
	assert.Equal(t, 68, prog[3].RootMidi)
	assert.Equal(t, "diminished_triad", prog[3].Type)
}

func TestGenerateChordProgression_PatternRepeats(t *testing.T) {
	// Eight chords cycle the selected four-degree pattern twice.
	prog := GenerateChordProgression(60, "major", 8)
	require.Len(t, prog, 8)
	for i := 0; i < 4; i++ {
		assert.Equal(t, prog[i].Degree, prog[i+4].Degree)
		assert.Equal(t, prog[i].RootMidi, prog[i+4].RootMidi)
	}
}

func TestGenerateChordProgression_Degenerate(t *testing.T) {
	assert.Empty(t, GenerateChordProgression(60, "major", 0))

	// A root near the top of the MIDI range leaves fewer than seven
	// usable scale notes, degrading to a tonic-only progression.
	prog := GenerateChordProgression(125, "major", 4)
	require.Len(t, prog, 4)
	for _, chord := range prog {
		assert.Equal(t, 1, chord.Degree)
		assert.Equal(t, 125, chord.RootMidi)
	}
}
