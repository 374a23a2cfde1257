package mix

import (
	"context"
	"math/rand"

	"github.com/songforge/songforge-api/internal/logger"
	"github.com/songforge/songforge-api/internal/models"
	"github.com/songforge/songforge-api/internal/synth"
)

// Params is the immutable mix configuration injected at construction.
type Params struct {
	Gains       map[synth.Instrument]float64
	DefaultGain float64
	Pans        map[synth.Instrument]float64
	DefaultPan  float64
	EQCutoffHz  float64
	TargetPeak  float64
}

// DefaultParams returns the fixed leveling, panning, and mastering
// configuration.
func DefaultParams() Params {
	return Params{
		Gains: map[synth.Instrument]float64{
			synth.InstrMelody:        0.9,
			synth.InstrHarmonyLine:   0.7,
			synth.InstrCounterMelody: 0.65,
			synth.InstrBassline:      1.0,
			synth.InstrPads:          0.5,
			synth.InstrDrumKick:      1.0,
			synth.InstrDrumSnare:     0.9,
			synth.InstrDrumHat:       0.6,
			synth.InstrDrumOpenHat:   0.65,
		},
		DefaultGain: 0.7,
		Pans: map[synth.Instrument]float64{
			synth.InstrMelody:        -0.3,
			synth.InstrHarmonyLine:   0.3,
			synth.InstrCounterMelody: -0.6,
			synth.InstrDrumSnare:     0.05,
		},
		DefaultPan: 0.0,
		EQCutoffHz: 90,
		TargetPeak: 0.94,
	}
}

// Engine composites rendered events into a mastered stereo mix.
type Engine struct {
	synth  *synth.Engine
	params Params
}

func NewEngine(synthEngine *synth.Engine, params Params) *Engine {
	return &Engine{synth: synthEngine, params: params}
}

func (e *Engine) Gain(instr synth.Instrument) float64 {
	if g, ok := e.params.Gains[instr]; ok {
		return g
	}
	return e.params.DefaultGain
}

func (e *Engine) Pan(instr synth.Instrument) float64 {
	if p, ok := e.params.Pans[instr]; ok {
		return p
	}
	return e.params.DefaultPan
}

// eqExempt marks the instruments whose low end must survive: bass
// register and pads skip the high-pass stage.
func eqExempt(instr synth.Instrument) bool {
	switch instr {
	case synth.InstrBassline, synth.InstrDrumKick, synth.InstrPads:
		return true
	}
	return false
}

// RenderSong renders every event of every track, pans it, and
// accumulates it into a stereo buffer spanning the song plus one second
// of tail, then masters the result. The context is checked between
// events so long renders stay cancelable.
func (e *Engine) RenderSong(ctx context.Context, song *models.Song, rng *rand.Rand) (*StereoBuffer, error) {
	sampleRate := e.synth.SampleRate()
	buffer := &StereoBuffer{SampleRate: sampleRate}
	if song == nil || song.BPM <= 0 {
		return buffer, nil
	}

	totalSamples := e.timelineSamples(song)
	if totalSamples == 0 {
		return buffer, nil
	}
	buffer.Samples = make([][2]float64, totalSamples)

	for _, trackName := range models.TrackNames {
		for _, event := range song.Tracks[trackName] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			instr, err := synth.ResolveInstrument(trackName, event.MidiNoteNumber)
			if err != nil {
				// Unknown drum pitches are not renderable.
				continue
			}

			start, mono := e.synth.RenderEvent(event, instr, song.BPM, rng)
			if len(mono) == 0 {
				continue
			}

			gain := e.Gain(instr)
			for i := range mono {
				mono[i] *= gain
			}
			if !eqExempt(instr) {
				mono = HighPassFilter(mono, e.params.EQCutoffHz, sampleRate)
			}

			gainL, gainR := PanGains(e.Pan(instr))

			end := start + len(mono)
			if end > totalSamples {
				logger.Warn("Event tail exceeds timeline, truncating", logger.Fields{
					"track":          trackName,
					"start_beat":     event.StartBeats,
					"overrun_frames": end - totalSamples,
				})
				end = totalSamples
			}
			for i := start; i < end; i++ {
				buffer.Samples[i][0] += mono[i-start] * gainL
				buffer.Samples[i][1] += mono[i-start] * gainR
			}
		}
	}

	Master(buffer, e.params.TargetPeak)
	return buffer, nil
}

// timelineSamples sizes the output: the latest event end plus its
// instrument's release tail, converted to samples, plus one second.
func (e *Engine) timelineSamples(song *models.Song) int {
	maxBeats := 0.0
	for _, trackName := range models.TrackNames {
		for _, event := range song.Tracks[trackName] {
			instr, err := synth.ResolveInstrument(trackName, event.MidiNoteNumber)
			if err != nil {
				continue
			}
			end := event.StartBeats + event.DurationBeats + synth.ReleaseTail(instr, song.BPM)
			if end > maxBeats {
				maxBeats = end
			}
		}
	}
	if maxBeats == 0 {
		return 0
	}
	seconds := maxBeats / float64(song.BPM) * 60.0
	return int(seconds*float64(e.synth.SampleRate())) + e.synth.SampleRate()
}

// Master peak-normalizes the buffer in place: if the peak exceeds the
// target it scales the whole mix down to it; quieter mixes and silence
// pass through unchanged.
func Master(buffer *StereoBuffer, targetPeak float64) {
	peak := buffer.Peak()
	if peak == 0 || peak <= targetPeak {
		return
	}
	scale := targetPeak / peak
	for i := range buffer.Samples {
		buffer.Samples[i][0] *= scale
		buffer.Samples[i][1] *= scale
	}
}
