// Package mix turns per-event mono renders into a mastered stereo
// buffer: per-instrument gain and EQ, linear panning, additive
// composition over the song timeline, and a peak-normalizing master.
package mix

// StereoBuffer is a fixed-rate sequence of (L, R) sample pairs. After
// mastering both channels lie in [-1, 1].
type StereoBuffer struct {
	SampleRate int
	Samples    [][2]float64
}

// Duration is the buffer length in seconds.
func (b *StereoBuffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Peak is the maximum absolute sample over both channels.
func (b *StereoBuffer) Peak() float64 {
	peak := 0.0
	for _, s := range b.Samples {
		for _, ch := range s {
			if ch < 0 {
				ch = -ch
			}
			if ch > peak {
				peak = ch
			}
		}
	}
	return peak
}

// PanGains implements the linear panning law: pan -1 is full left,
// 0 center (unity both sides), +1 full right.
func PanGains(pan float64) (gainL, gainR float64) {
	gainL, gainR = 1.0, 1.0
	if pan > 0 {
		gainL = 1.0 - pan
	}
	if pan < 0 {
		gainR = 1.0 + pan
	}
	return gainL, gainR
}
