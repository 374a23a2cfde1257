package synth

import (
	"math"
	"math/rand"

	"github.com/songforge/songforge-api/internal/models"
)

// BaseAmplitude scales every voice before mixing applies per-track gain.
const BaseAmplitude = 0.5

const velocityCurveExponent = 1.5

// Engine renders individual note events. It carries no per-song state
// and is safe for concurrent use with distinct rngs.
type Engine struct {
	sampleRate int
}

func NewEngine(sampleRate int) *Engine {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Engine{sampleRate: sampleRate}
}

func (e *Engine) SampleRate() int { return e.sampleRate }

// SecondsPerBeat converts a tempo to the length of one beat.
func SecondsPerBeat(bpm int) float64 {
	return 60.0 / float64(bpm)
}

// RenderEvent renders one note event with the given instrument into a
// mono buffer of length held+release, and returns it with the event's
// start offset in samples. Zero frequency or zero duration yield an
// empty buffer; rendering never fails.
func (e *Engine) RenderEvent(event models.NoteEvent, instr Instrument, bpm int, rng *rand.Rand) (startSample int, mono []float64) {
	secPerBeat := SecondsPerBeat(bpm)
	startSample = int(event.StartBeats * secPerBeat * float64(e.sampleRate))

	profile := instr.Profile()
	heldSeconds := event.DurationBeats * secPerBeat
	soundingSeconds := heldSeconds + profile.ADSR.Release
	totalSamples := int(soundingSeconds * float64(e.sampleRate))
	if totalSamples == 0 {
		return startSample, nil
	}

	var wave []float64
	if profile.Waveform == WaveNoise {
		wave = NoiseWave(soundingSeconds, e.sampleRate, rng)
	} else {
		frequency := MidiToFrequency(event.MidiNoteNumber + profile.OctaveShift*12)
		if frequency == 0 {
			return startSample, nil
		}
		switch profile.Waveform {
		case WavePulse:
			wave = PulseWave(frequency, soundingSeconds, profile.DutyCycle, e.sampleRate)
		case WaveSawtooth:
			wave = SawtoothWave(frequency, soundingSeconds, e.sampleRate)
		case WaveTriangle:
			wave = TriangleWave(frequency, soundingSeconds, e.sampleRate)
		default:
			wave = make([]float64, totalSamples)
		}
	}

	heldSamples := int(heldSeconds * float64(e.sampleRate))
	env := Envelope(heldSamples, profile.ADSR, e.sampleRate)
	if len(env) > len(wave) {
		env = env[:len(wave)]
	}

	gain := math.Pow(float64(event.Velocity)/127.0, velocityCurveExponent) * BaseAmplitude
	mono = make([]float64, len(wave))
	for i := range env {
		mono[i] = wave[i] * env[i] * gain
	}
	return startSample, mono
}

// ReleaseTail returns the instrument's release time in beats at the
// given tempo, used when sizing the song timeline.
func ReleaseTail(instr Instrument, bpm int) float64 {
	return instr.Profile().ADSR.Release * float64(bpm) / 60.0
}
