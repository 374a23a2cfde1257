package synth

import (
	"fmt"

	"github.com/songforge/songforge-api/internal/models"
)

// Instrument is the closed set of renderable voices. Melodic tracks map
// one-to-one; the Drums track fans out by pitch value.
type Instrument int

const (
	InstrMelody Instrument = iota
	InstrHarmonyLine
	InstrCounterMelody
	InstrBassline
	InstrPads
	InstrDrumKick
	InstrDrumSnare
	InstrDrumHat
	InstrDrumOpenHat

	numInstruments
)

func (i Instrument) String() string {
	switch i {
	case InstrMelody:
		return "Melody"
	case InstrHarmonyLine:
		return "Harmony Line"
	case InstrCounterMelody:
		return "Counter-Melody"
	case InstrBassline:
		return "Bassline"
	case InstrPads:
		return "Pads"
	case InstrDrumKick:
		return "Drums_Kick"
	case InstrDrumSnare:
		return "Drums_Snare"
	case InstrDrumHat:
		return "Drums_Hat"
	case InstrDrumOpenHat:
		return "Drums_OpenHat"
	}
	return "unknown"
}

// IsDrum reports whether the instrument is one of the noise percussion
// voices.
func (i Instrument) IsDrum() bool {
	switch i {
	case InstrDrumKick, InstrDrumSnare, InstrDrumHat, InstrDrumOpenHat:
		return true
	}
	return false
}

// Profile is a validated instrument configuration: oscillator shape,
// envelope, and register shift.
type Profile struct {
	Waveform    Waveform
	DutyCycle   float64 // pulse only
	ADSR        ADSR
	OctaveShift int
}

// profiles is the fixed instrument table; immutable after init.
var profiles = [numInstruments]Profile{
	InstrMelody:        {Waveform: WavePulse, DutyCycle: 0.5, ADSR: ADSR{0.01, 0.1, 0.7, 0.2}},
	InstrHarmonyLine:   {Waveform: WaveSawtooth, ADSR: ADSR{0.02, 0.15, 0.6, 0.25}},
	InstrCounterMelody: {Waveform: WaveTriangle, ADSR: ADSR{0.05, 0.2, 0.5, 0.3}},
	InstrBassline:      {Waveform: WavePulse, DutyCycle: 0.5, ADSR: ADSR{0.01, 0.05, 0.8, 0.15}, OctaveShift: -1},
	InstrPads:          {Waveform: WaveSawtooth, ADSR: ADSR{0.5, 0.5, 0.3, 1.0}},
	InstrDrumKick:      {Waveform: WaveNoise, ADSR: ADSR{0.001, 0.1, 0, 0.05}},
	InstrDrumSnare:     {Waveform: WaveNoise, ADSR: ADSR{0.001, 0.15, 0, 0.1}},
	InstrDrumHat:       {Waveform: WaveNoise, ADSR: ADSR{0.001, 0.05, 0, 0.02}},
	InstrDrumOpenHat:   {Waveform: WaveNoise, ADSR: ADSR{0.001, 0.2, 0, 0.1}},
}

// Profile returns the instrument's fixed configuration.
func (i Instrument) Profile() Profile {
	if i < 0 || i >= numInstruments {
		return profiles[InstrMelody]
	}
	return profiles[i]
}

// ResolveInstrument maps a track name (and, for drums, the event pitch)
// to an instrument. Unknown drum pitches are not renderable and return
// an error; unknown track names fall back to the melody voice.
func ResolveInstrument(trackName string, pitch int) (Instrument, error) {
	switch trackName {
	case models.TrackMelody:
		return InstrMelody, nil
	case models.TrackHarmonyLine:
		return InstrHarmonyLine, nil
	case models.TrackCounterMelody:
		return InstrCounterMelody, nil
	case models.TrackBassline:
		return InstrBassline, nil
	case models.TrackPads:
		return InstrPads, nil
	case models.TrackDrums:
		switch pitch {
		case models.DrumKick:
			return InstrDrumKick, nil
		case models.DrumSnare:
			return InstrDrumSnare, nil
		case models.DrumHat:
			return InstrDrumHat, nil
		case models.DrumOpenHat:
			return InstrDrumOpenHat, nil
		}
		return 0, fmt.Errorf("no drum instrument for pitch %d", pitch)
	}
	return InstrMelody, nil
}

// Instruments lists every instrument, for table-driven configuration.
func Instruments() []Instrument {
	all := make([]Instrument, 0, numInstruments)
	for i := Instrument(0); i < numInstruments; i++ {
		all = append(all, i)
	}
	return all
}
