package mix

import "math"

// biquad is one direct-form-I second-order section.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// highpassBiquad computes RBJ high-pass coefficients for one section.
func highpassBiquad(cutoffHz, q float64, sampleRate int) biquad {
	w := 2 * math.Pi * cutoffHz / float64(sampleRate)
	cosw := math.Cos(w)
	alpha := math.Sin(w) / (2 * q)

	a0 := 1 + alpha
	return biquad{
		b0: (1 + cosw) / 2 / a0,
		b1: -(1 + cosw) / a0,
		b2: (1 + cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

// Butterworth section Q values for a 4th-order cascade.
var butterworth4Q = [2]float64{0.54119610, 1.30656296}

// HighPassFilter applies a 4th-order Butterworth high-pass in place as
// two cascaded biquad sections. If the cutoff is at or above Nyquist the
// filter cannot be configured; the signal passes through unchanged.
func HighPassFilter(samples []float64, cutoffHz float64, sampleRate int) []float64 {
	nyquist := float64(sampleRate) / 2
	if cutoffHz >= nyquist {
		return samples
	}

	sections := [2]biquad{
		highpassBiquad(cutoffHz, butterworth4Q[0], sampleRate),
		highpassBiquad(cutoffHz, butterworth4Q[1], sampleRate),
	}
	for i, x := range samples {
		y := sections[0].process(x)
		samples[i] = sections[1].process(y)
	}
	return samples
}
