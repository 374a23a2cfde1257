package synth

// ADSR holds envelope times in seconds and the sustain level in [0, 1].
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// ramp fills dst with a linear ramp from lo to hi, endpoints inclusive.
func ramp(dst []float64, lo, hi float64) {
	n := len(dst)
	if n == 0 {
		return
	}
	if n == 1 {
		dst[0] = lo
		return
	}
	step := (hi - lo) / float64(n-1)
	for i := range dst {
		dst[i] = lo + step*float64(i)
	}
}

// Envelope produces an amplitude curve of length
// heldSamples + releaseSamples: a linear 0→1 attack, a linear 1→sustain
// decay, a flat sustain, and a release ramp from whatever level the
// envelope had reached at note-off down to 0. When the note is shorter
// than a segment, the segment's ramp is compressed into the remaining
// samples and still reaches its endpoint at note-off.
func Envelope(heldSamples int, adsr ADSR, sampleRate int) []float64 {
	attackSamples := int(adsr.Attack * float64(sampleRate))
	decaySamples := int(adsr.Decay * float64(sampleRate))
	releaseSamples := int(adsr.Release * float64(sampleRate))

	env := make([]float64, heldSamples+releaseSamples)

	levelAtNoteOff := adsr.Sustain

	if attackSamples > 0 {
		end := attackSamples
		if end > heldSamples {
			end = heldSamples
		}
		ramp(env[:end], 0, 1)
		if heldSamples <= attackSamples {
			levelAtNoteOff = 0
			if heldSamples > 0 {
				levelAtNoteOff = env[heldSamples-1]
			}
		}
	}

	if decaySamples > 0 && heldSamples > attackSamples {
		start := attackSamples
		end := start + decaySamples
		if end > heldSamples {
			end = heldSamples
		}
		ramp(env[start:end], 1, adsr.Sustain)
		if heldSamples <= attackSamples+decaySamples && heldSamples > 0 {
			levelAtNoteOff = env[heldSamples-1]
		}
	}

	sustainStart := attackSamples + decaySamples
	if sustainStart < heldSamples {
		for i := sustainStart; i < heldSamples; i++ {
			env[i] = adsr.Sustain
		}
		levelAtNoteOff = adsr.Sustain
	}

	if releaseSamples > 0 {
		ramp(env[heldSamples:], levelAtNoteOff, 0)
	}

	return env
}
