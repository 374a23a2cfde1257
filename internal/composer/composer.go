// Package composer turns a mood, key, and tempo into a Song: six tracks
// of timed note events laid out over a fixed section structure. All
// randomness flows through the caller-supplied *rand.Rand so generation
// and per-section regeneration are reproducible.
package composer

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/songforge/songforge-api/internal/logger"
	"github.com/songforge/songforge-api/internal/models"
	"github.com/songforge/songforge-api/internal/theory"
)

const (
	BarLengthBeats = 4
	ChordsPerBar   = 1

	DefaultBPM = 120
)

// SongStructureTemplate is the fixed section layout of every song.
var SongStructureTemplate = []string{
	"Chorus", "Verse", "Chorus", "Verse", "Chorus", "Bridge", "Chorus",
}

// sectionLengthBars gives each named section its length; unknown names
// default to four bars.
var sectionLengthBars = map[string]int{
	"Verse":  4,
	"Chorus": 4,
	"Bridge": 4,
}

// Register bounds used by the layer generators.
const (
	midiC2 = 36
	midiC3 = 48
	midiC4 = 60
	midiC5 = 72
	midiC6 = 84
	midiG3 = 55
	midiG5 = 79
)

// Composer generates songs. The zero value is not usable; construct with
// New, passing the random source that owns all generation decisions.
type Composer struct {
	rng *rand.Rand
}

func New(rng *rand.Rand) *Composer {
	return &Composer{rng: rng}
}

// GenerateFullSong walks the section template, deriving a chord
// progression per section and invoking every layer generator, advancing
// the beat cursor section by section.
func (c *Composer) GenerateFullSong(mood string, keyRootMidi int, bpm int) *models.Song {
	song := models.NewSong()
	song.Mood = mood
	song.BPM = bpm
	song.KeyRootMidi = keyRootMidi

	switch mood {
	case models.MoodHappy:
		song.KeyMode = "major"
	case models.MoodSad:
		song.KeyMode = "minor"
	default:
		if c.rng.Intn(2) == 0 {
			song.KeyMode = "major"
		} else {
			song.KeyMode = "minor"
		}
	}

	cursor := 0.0
	for _, name := range SongStructureTemplate {
		bars, ok := sectionLengthBars[name]
		if !ok {
			bars = 4
		}
		durationBeats := float64(bars * BarLengthBeats)
		numChords := bars * ChordsPerBar

		section := models.Section{
			Name:             name,
			StartBeats:       cursor,
			DurationBeats:    durationBeats,
			ChordProgression: theory.GenerateChordProgression(song.KeyRootMidi, song.KeyMode, numChords),
			KeyRootMidi:      song.KeyRootMidi,
			KeyMode:          song.KeyMode,
		}
		song.Sections = append(song.Sections, section)

		for track, events := range c.generateSectionEvents(section, mood) {
			song.Tracks[track] = append(song.Tracks[track], events...)
		}

		cursor += durationBeats
	}

	// Layer generators append in layer order, not time order.
	for _, track := range models.TrackNames {
		song.SortTrack(track)
	}

	return song
}

// RegenerateSection rebuilds one section in place: fresh events for all
// six layers, with every event outside the section's time window
// untouched. The chord progression is recomputed from the key, mode and
// bar count, so it comes out identical to the stored one; the variation
// is in the layer events.
func (c *Composer) RegenerateSection(song *models.Song, sectionIndex int) error {
	if sectionIndex < 0 || sectionIndex >= len(song.Sections) {
		return fmt.Errorf("section index %d out of range [0,%d)", sectionIndex, len(song.Sections))
	}

	section := song.Sections[sectionIndex]
	numChords := int(section.DurationBeats/BarLengthBeats) * ChordsPerBar

	section.ChordProgression = theory.GenerateChordProgression(section.KeyRootMidi, section.KeyMode, numChords)
	song.Sections[sectionIndex] = section

	newEvents := c.generateSectionEvents(section, song.Mood)

	start := section.StartBeats
	end := section.StartBeats + section.DurationBeats
	for _, track := range models.TrackNames {
		kept := song.Tracks[track][:0:0]
		for _, e := range song.Tracks[track] {
			if e.StartBeats < start || e.StartBeats >= end {
				kept = append(kept, e)
			}
		}
		kept = append(kept, newEvents[track]...)
		song.Tracks[track] = kept
		song.SortTrack(track)
	}

	logger.Info("Section regenerated", logger.Fields{
		"section":    section.Name,
		"index":      sectionIndex,
		"start_beat": section.StartBeats,
	})
	return nil
}

// generateSectionEvents runs every layer generator for one section.
// Harmony is derived from the melody it returns alongside.
func (c *Composer) generateSectionEvents(section models.Section, mood string) map[string][]models.NoteEvent {
	events := make(map[string][]models.NoteEvent, len(models.TrackNames))

	events[models.TrackPads] = c.generatePads(section)
	events[models.TrackBassline] = c.generateBassline(section)

	melody := c.generateMelodyLine(section, mood, models.TrackMelody)
	events[models.TrackMelody] = melody
	events[models.TrackHarmonyLine] = c.generateHarmonyLine(melody, section)
	events[models.TrackCounterMelody] = c.generateMelodyLine(section, mood, models.TrackCounterMelody)
	events[models.TrackDrums] = c.generateDrums(section, mood)

	return events
}

// velRange draws a velocity uniformly from [lo, hi].
func (c *Composer) velRange(lo, hi int) int {
	return lo + c.rng.Intn(hi-lo+1)
}

// generatePads sustains each chord for nearly its whole slot, folding
// every chord tone into the C3-C5 register.
func (c *Composer) generatePads(section models.Section) []models.NoteEvent {
	numChords := len(section.ChordProgression)
	if numChords == 0 {
		return nil
	}

	var events []models.NoteEvent
	durationPerChord := section.DurationBeats / float64(numChords)
	cursor := section.StartBeats
	channel := models.ChannelMap[models.TrackPads]

	for _, chord := range section.ChordProgression {
		for _, note := range chord.Notes {
			adjusted := note
			for adjusted > midiC5 {
				adjusted -= 12
			}
			for adjusted < midiC3 {
				adjusted += 12
			}
			if adjusted < theory.MinMidi || adjusted > theory.MaxMidi {
				continue
			}
			events = append(events, models.NoteEvent{
				MidiNoteNumber: adjusted,
				Velocity:       c.velRange(60, 80),
				StartBeats:     cursor,
				DurationBeats:  durationPerChord * 0.95,
				Channel:        channel,
			})
		}
		cursor += durationPerChord
	}
	return events
}

// generateBassline plays the chord root dropped up to two octaves into
// the bass register. Slots of a full bar or more get two back-to-back
// hits instead of one sustained note.
func (c *Composer) generateBassline(section models.Section) []models.NoteEvent {
	numChords := len(section.ChordProgression)
	if numChords == 0 {
		return nil
	}

	var events []models.NoteEvent
	beatsPerChord := section.DurationBeats / float64(numChords)
	cursor := section.StartBeats
	channel := models.ChannelMap[models.TrackBassline]

	for _, chord := range section.ChordProgression {
		bass := chord.RootMidi
		if bass >= midiC3 {
			bass -= 12
		}
		if bass >= midiC2 {
			bass -= 12
		}
		if bass < theory.MinMidi {
			bass = theory.MinMidi
		}

		if beatsPerChord >= BarLengthBeats {
			events = append(events,
				models.NoteEvent{
					MidiNoteNumber: bass, Velocity: c.velRange(90, 110),
					StartBeats: cursor, DurationBeats: beatsPerChord * 0.45, Channel: channel,
				},
				models.NoteEvent{
					MidiNoteNumber: bass, Velocity: c.velRange(85, 100),
					StartBeats: cursor + beatsPerChord*0.5, DurationBeats: beatsPerChord * 0.45, Channel: channel,
				})
		} else {
			events = append(events, models.NoteEvent{
				MidiNoteNumber: bass, Velocity: c.velRange(90, 110),
				StartBeats: cursor, DurationBeats: beatsPerChord * 0.9, Channel: channel,
			})
		}
		cursor += beatsPerChord
	}
	return events
}

// layerRegister returns the register clamp bounds per melodic layer.
func layerRegister(layer string) (int, int) {
	switch layer {
	case models.TrackHarmonyLine:
		return midiG3, midiG5
	case models.TrackCounterMelody:
		return midiC3, midiC5
	default:
		return midiC4, midiC6
	}
}

// generateMelodyLine fills each chord slot with a mood-dependent number
// of notes, favoring chord tones with occasional stepwise scale motion.
// The counter-melody reuses the same algorithm in a lower register.
func (c *Composer) generateMelodyLine(section models.Section, mood string, layer string) []models.NoteEvent {
	scaleNotes := theory.ScaleNotes(section.KeyRootMidi, section.KeyMode, 2)

	var rangeNotes []int
	for _, n := range scaleNotes {
		if n >= midiC4 && n <= midiC6 {
			rangeNotes = append(rangeNotes, n)
		}
	}
	if len(rangeNotes) == 0 {
		rangeNotes = scaleNotes
	}

	numChords := len(section.ChordProgression)
	if numChords == 0 || len(rangeNotes) == 0 {
		return nil
	}

	beatsPerChord := section.DurationBeats / float64(numChords)
	cursor := section.StartBeats
	channel := models.ChannelMap[layer]
	minNote, maxNote := layerRegister(layer)

	var events []models.NoteEvent
	lastNote := -1

	for _, chord := range section.ChordProgression {
		possible := mergeSorted(chord.Notes, rangeNotes, midiC4, midiC6)
		if len(possible) == 0 {
			possible = rangeNotes
		}

		var counts []int
		switch mood {
		case models.MoodHappy:
			counts = []int{2, 3, 4}
		case models.MoodSad:
			counts = []int{1, 2}
		default:
			counts = []int{2, 3}
		}
		notesInSlot := counts[c.rng.Intn(len(counts))]
		durationPerNote := beatsPerChord / float64(notesInSlot)

		for n := 0; n < notesInSlot; n++ {
			selected := -1
			if c.rng.Float64() < 0.7 || lastNote < 0 {
				candidates := intersect(chord.Notes, possible)
				if len(candidates) == 0 {
					candidates = possible
				}
				selected = candidates[c.rng.Intn(len(candidates))]
			} else {
				var steps []int
				for _, p := range possible {
					if p != lastNote && abs(p-lastNote) <= 2 {
						steps = append(steps, p)
					}
				}
				if len(steps) > 0 && c.rng.Float64() < 0.6 {
					selected = steps[c.rng.Intn(len(steps))]
				} else {
					selected = possible[c.rng.Intn(len(possible))]
				}
			}

			// Register clamp by octave transposition, not clipping.
			for selected < minNote && selected+12 <= maxNote {
				selected += 12
			}
			for selected > maxNote && selected-12 >= minNote {
				selected -= 12
			}
			if selected < minNote {
				selected = minNote
			}
			if selected > maxNote {
				selected = maxNote
			}

			events = append(events, models.NoteEvent{
				MidiNoteNumber: selected,
				Velocity:       c.velRange(80, 115),
				StartBeats:     cursor,
				DurationBeats:  durationPerNote * 0.85,
				Channel:        channel,
			})
			lastNote = selected
			cursor += durationPerNote
		}
	}
	return events
}

// generateHarmonyLine shadows the melody: for each melody event it picks
// a chord tone of the active chord inside G3-G5, preferring one below
// the melody note, at a softened velocity.
func (c *Composer) generateHarmonyLine(melody []models.NoteEvent, section models.Section) []models.NoteEvent {
	scaleNotes := theory.ScaleNotes(section.KeyRootMidi, section.KeyMode, 2)

	var rangeNotes []int
	for _, n := range scaleNotes {
		if n >= midiG3 && n <= midiG5 {
			rangeNotes = append(rangeNotes, n)
		}
	}
	if len(rangeNotes) == 0 {
		rangeNotes = scaleNotes
	}

	numChords := len(section.ChordProgression)
	channel := models.ChannelMap[models.TrackHarmonyLine]

	var events []models.NoteEvent
	for _, m := range melody {
		harmony := -1

		beatsPerChord := section.DurationBeats
		if numChords > 0 {
			beatsPerChord = section.DurationBeats / float64(numChords)
		}
		chordIdx := 0
		if beatsPerChord > 0 {
			chordIdx = int((m.StartBeats - section.StartBeats) / beatsPerChord)
		}

		if chordIdx >= 0 && chordIdx < numChords {
			chord := section.ChordProgression[chordIdx]
			var candidates []int
			for _, n := range chord.Notes {
				if n != m.MidiNoteNumber && contains(rangeNotes, n) {
					candidates = append(candidates, n)
				}
			}
			if len(candidates) == 0 {
				for _, n := range rangeNotes {
					if n != m.MidiNoteNumber {
						candidates = append(candidates, n)
					}
				}
			}
			if len(candidates) > 0 {
				var lower []int
				for _, n := range candidates {
					if n < m.MidiNoteNumber {
						lower = append(lower, n)
					}
				}
				if len(lower) > 0 {
					harmony = lower[c.rng.Intn(len(lower))]
				} else {
					harmony = candidates[c.rng.Intn(len(candidates))]
				}
			}
		}

		if harmony < 0 {
			var fallback []int
			for _, n := range rangeNotes {
				if n < m.MidiNoteNumber {
					fallback = append(fallback, n)
				}
			}
			if len(fallback) > 0 {
				harmony = fallback[c.rng.Intn(len(fallback))]
			}
		}

		if harmony >= 0 {
			events = append(events, models.NoteEvent{
				MidiNoteNumber: harmony,
				Velocity:       m.Velocity - c.velRange(10, 20),
				StartBeats:     m.StartBeats,
				DurationBeats:  m.DurationBeats,
				Channel:        channel,
			})
		}
	}
	return events
}

// Per-mood hi-hat grids, in beat offsets within a bar.
var hatPatterns = map[string][]float64{
	models.MoodHappy: sixteenthGrid(),
	models.MoodSad:   {0, 1, 2, 3},
	models.MoodChill: {0, 1, 1.5, 2.5, 3},
}

var hatPatternDefault = []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5}

func sixteenthGrid() []float64 {
	grid := make([]float64, 16)
	for i := range grid {
		grid[i] = float64(i) * 0.25
	}
	return grid
}

var hatVelRanges = map[string][2]int{
	models.MoodHappy: {75, 95},
	models.MoodSad:   {60, 80},
	models.MoodChill: {70, 90},
}

var openHatChances = map[string]float64{
	models.MoodHappy: 0.15,
	models.MoodSad:   0.05,
	models.MoodChill: 0.2,
}

// generateDrums emits kick/snare/hat events per bar. The kick lands on
// beat 0 with mood-dependent extras, snares on beats 1 and 3, and hats
// follow the mood's grid with an occasional open hat; hats within 0.1
// beats of a snare are suppressed.
func (c *Composer) generateDrums(section models.Section, mood string) []models.NoteEvent {
	channel := models.ChannelMap[models.TrackDrums]
	numBars := int(section.DurationBeats / BarLengthBeats)

	var events []models.NoteEvent
	hit := func(pitch, velocity int, start, duration float64) {
		events = append(events, models.NoteEvent{
			MidiNoteNumber: pitch, Velocity: velocity,
			StartBeats: start, DurationBeats: duration, Channel: channel,
		})
	}

	for bar := 0; bar < numBars; bar++ {
		barStart := section.StartBeats + float64(bar*BarLengthBeats)

		hit(models.DrumKick, c.velRange(100, 120), barStart, 0.1)
		switch mood {
		case models.MoodHappy, models.MoodChill:
			if c.rng.Float64() < 0.7 {
				hit(models.DrumKick, c.velRange(95, 115), barStart+2, 0.1)
			}
			if mood == models.MoodHappy && c.rng.Float64() < 0.4 {
				hit(models.DrumKick, c.velRange(90, 110), barStart+1.5, 0.1)
			}
		case models.MoodSad:
			if c.rng.Float64() < 0.5 {
				hit(models.DrumKick, c.velRange(95, 115), barStart+2, 0.1)
			}
		}

		hit(models.DrumSnare, c.velRange(90, 110), barStart+1, 0.1)
		hit(models.DrumSnare, c.velRange(90, 110), barStart+3, 0.1)
		if mood == models.MoodChill && c.rng.Float64() < 0.3 {
			hit(models.DrumSnare, c.velRange(60, 80), barStart+2.5, 0.05)
		}

		pattern, ok := hatPatterns[mood]
		if !ok {
			pattern = hatPatternDefault
		}
		velLo, velHi := 70, 90
		if r, ok := hatVelRanges[mood]; ok {
			velLo, velHi = r[0], r[1]
		}
		hatVel := c.velRange(velLo, velHi)
		openChance, ok := openHatChances[mood]
		if !ok {
			openChance = 0.1
		}

		patternEnd := pattern[len(pattern)-1]
		for _, offset := range pattern {
			// Open hats trigger only on off-beat halves or the grid's last slot.
			halfBeat := offset-float64(int(offset)) == 0.5
			open := c.rng.Float64() < openChance && (halfBeat || offset == patternEnd)

			pitch := models.DrumHat
			duration := 0.08
			if open {
				pitch = models.DrumOpenHat
				duration = 0.2
			}

			if abs64(offset-1) < 0.1 || abs64(offset-3) < 0.1 {
				continue // leave room for the snare
			}
			hit(pitch, hatVel-c.rng.Intn(11), barStart+offset, duration)
		}
	}
	return events
}

// mergeSorted unions two note lists restricted to [lo, hi], deduplicated
// and ascending.
func mergeSorted(a, b []int, lo, hi int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, src := range [][]int{a, b} {
		for _, n := range src {
			if n >= lo && n <= hi && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Ints(out)
	return out
}

func intersect(a, b []int) []int {
	var out []int
	for _, n := range a {
		if contains(b, n) {
			out = append(out, n)
		}
	}
	return out
}

func contains(s []int, v int) bool {
	for _, n := range s {
		if n == v {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func abs64(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
