package models

import "sort"

// NoteEvent is a single timed note on a track. Times are in beats,
// pitch and velocity are MIDI-range integers.
type NoteEvent struct {
	MidiNoteNumber int     `json:"pitch"`
	Velocity       int     `json:"velocity"`
	StartBeats     float64 `json:"start_beat"`
	DurationBeats  float64 `json:"duration_beats"`
	Channel        int     `json:"channel"`
}

// Chord is one harmonic slot of a progression: a root, a named quality,
// and the materialized notes (out-of-range notes already dropped).
type Chord struct {
	RootMidi int    `json:"root"`
	Type     string `json:"type"`
	Notes    []int  `json:"notes"`
	Degree   int    `json:"degree"`
	Name     string `json:"name"`
}

// Section is one slot of the song structure. Sections are laid out
// back-to-back; StartBeats of section i+1 equals StartBeats+DurationBeats
// of section i.
type Section struct {
	Name             string  `json:"name"`
	StartBeats       float64 `json:"start_beat"`
	DurationBeats    float64 `json:"duration_beats"`
	ChordProgression []Chord `json:"chord_progression"`
	KeyRootMidi      int     `json:"key_root"`
	KeyMode          string  `json:"key_mode"`
}

// Track names are fixed; every Song carries all six.
const (
	TrackMelody        = "Melody"
	TrackHarmonyLine   = "Harmony Line"
	TrackCounterMelody = "Counter-Melody"
	TrackBassline      = "Bassline"
	TrackPads          = "Pads"
	TrackDrums         = "Drums"
)

// TrackNames lists the six fixed tracks in generation order.
var TrackNames = []string{
	TrackMelody, TrackHarmonyLine, TrackCounterMelody,
	TrackBassline, TrackPads, TrackDrums,
}

// ChannelMap assigns a MIDI channel per track (drums on 9, GM convention).
var ChannelMap = map[string]int{
	TrackMelody:        0,
	TrackHarmonyLine:   1,
	TrackCounterMelody: 2,
	TrackBassline:      3,
	TrackPads:          4,
	TrackDrums:         9,
}

// Song is the composition artifact: per-track event lists plus section
// metadata. It is read-only input to the synthesis and mix engines.
type Song struct {
	BPM         int                    `json:"tempo_bpm"`
	KeyRootMidi int                    `json:"key_root"`
	KeyMode     string                 `json:"key_mode"`
	Mood        string                 `json:"mood"`
	Sections    []Section              `json:"sections"`
	Tracks      map[string][]NoteEvent `json:"tracks"`
}

// NewSong returns a Song with all six tracks present and empty.
func NewSong() *Song {
	tracks := make(map[string][]NoteEvent, len(TrackNames))
	for _, name := range TrackNames {
		tracks[name] = []NoteEvent{}
	}
	return &Song{Tracks: tracks}
}

// TotalBeats is the end of the last section in beats.
func (s *Song) TotalBeats() float64 {
	if len(s.Sections) == 0 {
		return 0
	}
	last := s.Sections[len(s.Sections)-1]
	return last.StartBeats + last.DurationBeats
}

// AllEvents flattens every track into one list ordered by
// (start, pitch, duration), the ordering exporters rely on.
func (s *Song) AllEvents() []NoteEvent {
	var all []NoteEvent
	for _, name := range TrackNames {
		all = append(all, s.Tracks[name]...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.StartBeats != b.StartBeats {
			return a.StartBeats < b.StartBeats
		}
		if a.MidiNoteNumber != b.MidiNoteNumber {
			return a.MidiNoteNumber < b.MidiNoteNumber
		}
		return a.DurationBeats < b.DurationBeats
	})
	return all
}

// SortTrack re-establishes the per-track time ordering invariant.
func (s *Song) SortTrack(name string) {
	events := s.Tracks[name]
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartBeats < events[j].StartBeats
	})
	s.Tracks[name] = events
}
