package mix

import (
	"math"

	"github.com/ktye/fft"
)

// Analysis summarizes the mastered mix for API consumers.
type Analysis struct {
	Peak    float64 `json:"peak"`
	RMS     float64 `json:"rms"`
	LowHz   float64 `json:"low_band_energy"`   // < 250 Hz
	MidHz   float64 `json:"mid_band_energy"`   // 250 Hz - 4 kHz
	HighHz  float64 `json:"high_band_energy"`  // > 4 kHz
	Seconds float64 `json:"duration_seconds"`
}

const (
	analysisWindow = 1 << 14 // power of two, as the FFT requires
	lowBandEdgeHz  = 250.0
	midBandEdgeHz  = 4000.0
)

// Analyze computes peak, RMS, and relative band energies of a stereo
// buffer. Band energies come from one FFT window taken at the buffer's
// midpoint and are normalized to sum to 1; short or silent buffers
// report zero band energy.
func Analyze(buffer *StereoBuffer) Analysis {
	a := Analysis{Peak: buffer.Peak(), Seconds: buffer.Duration()}

	if len(buffer.Samples) == 0 {
		return a
	}

	sumSquares := 0.0
	for _, s := range buffer.Samples {
		m := (s[0] + s[1]) / 2
		sumSquares += m * m
	}
	a.RMS = math.Sqrt(sumSquares / float64(len(buffer.Samples)))

	if len(buffer.Samples) < analysisWindow {
		return a
	}
	transform, err := fft.New(analysisWindow)
	if err != nil {
		return a
	}

	start := (len(buffer.Samples) - analysisWindow) / 2
	window := make([]complex128, analysisWindow)
	for i := range window {
		s := buffer.Samples[start+i]
		window[i] = complex((s[0]+s[1])/2, 0)
	}
	window = transform.Transform(window)

	binHz := float64(buffer.SampleRate) / float64(analysisWindow)
	var low, mid, high float64
	for bin := 1; bin < analysisWindow/2; bin++ {
		freq := float64(bin) * binHz
		energy := real(window[bin])*real(window[bin]) + imag(window[bin])*imag(window[bin])
		switch {
		case freq < lowBandEdgeHz:
			low += energy
		case freq < midBandEdgeHz:
			mid += energy
		default:
			high += energy
		}
	}

	total := low + mid + high
	if total > 0 {
		a.LowHz = low / total
		a.MidHz = mid / total
		a.HighHz = high / total
	}
	return a
}
