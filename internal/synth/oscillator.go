// Package synth renders note events into mono sample buffers: a naive
// periodic oscillator shaped by an ADSR envelope, scaled by velocity
// and the instrument's register shift.
package synth

import (
	"math"
	"math/rand"
)

// DefaultSampleRate is the nominal output rate in Hz.
const DefaultSampleRate = 44100

// Waveform enumerates the oscillator shapes.
type Waveform int

const (
	WavePulse Waveform = iota
	WaveSawtooth
	WaveTriangle
	WaveNoise
)

func (w Waveform) String() string {
	switch w {
	case WavePulse:
		return "pulse"
	case WaveSawtooth:
		return "sawtooth"
	case WaveTriangle:
		return "triangle"
	case WaveNoise:
		return "noise"
	}
	return "unknown"
}

// MidiToFrequency converts a MIDI note number to Hz using 12-tone equal
// temperament with A4 (MIDI 69) at 440 Hz. Out-of-range notes yield 0,
// which every oscillator renders as silence.
func MidiToFrequency(midi int) float64 {
	if midi < 0 || midi > 127 {
		return 0
	}
	return 440.0 * math.Pow(2, float64(midi-69)/12.0)
}

func sampleCount(duration float64, sampleRate int) int {
	return int(duration * float64(sampleRate))
}

// PulseWave renders a naive pulse of amplitude ±1 at the given duty
// cycle. Zero frequency yields silence.
func PulseWave(frequency, duration, dutyCycle float64, sampleRate int) []float64 {
	n := sampleCount(duration, sampleRate)
	wave := make([]float64, n)
	if frequency == 0 {
		return wave
	}
	period := 1.0 / frequency
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		if math.Mod(t, period) < period*dutyCycle {
			wave[i] = 1.0
		} else {
			wave[i] = -1.0
		}
	}
	return wave
}

// SawtoothWave renders a naive rising sawtooth of amplitude ±1.
func SawtoothWave(frequency, duration float64, sampleRate int) []float64 {
	n := sampleCount(duration, sampleRate)
	wave := make([]float64, n)
	if frequency == 0 {
		return wave
	}
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		wave[i] = 2.0 * (t*frequency - math.Floor(0.5+t*frequency))
	}
	return wave
}

// TriangleWave renders a naive triangle of amplitude ±1.
func TriangleWave(frequency, duration float64, sampleRate int) []float64 {
	n := sampleCount(duration, sampleRate)
	wave := make([]float64, n)
	if frequency == 0 {
		return wave
	}
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		wave[i] = 2.0*math.Abs(2.0*(t*frequency-math.Floor(t*frequency+0.5))) - 1.0
	}
	return wave
}

// NoiseWave renders uniform white noise in [-1, 1). Frequency is
// irrelevant for noise so none is taken.
func NoiseWave(duration float64, sampleRate int, rng *rand.Rand) []float64 {
	n := sampleCount(duration, sampleRate)
	wave := make([]float64, n)
	for i := range wave {
		wave[i] = rng.Float64()*2.0 - 1.0
	}
	return wave
}
