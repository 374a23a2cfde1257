package mix

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/songforge/songforge-api/internal/composer"
	"github.com/songforge/songforge-api/internal/models"
	"github.com/songforge/songforge-api/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanGains(t *testing.T) {
	tests := []struct {
		name  string
		pan   float64
		gainL float64
		gainR float64
	}{
		{name: "center", pan: 0, gainL: 1, gainR: 1},
		{name: "hard left", pan: -1, gainL: 1, gainR: 0},
		{name: "hard right", pan: 1, gainL: 0, gainR: 1},
		{name: "half left", pan: -0.5, gainL: 1, gainR: 0.5},
		{name: "half right", pan: 0.5, gainL: 0.5, gainR: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gainL, gainR := PanGains(tt.pan)
			assert.InDelta(t, tt.gainL, gainL, 1e-9)
			assert.InDelta(t, tt.gainR, gainR, 1e-9)
		})
	}
}

func TestMaster(t *testing.T) {
	t.Run("loud mix scaled to target", func(t *testing.T) {
		buffer := &StereoBuffer{SampleRate: 44100, Samples: [][2]float64{{1.5, -0.5}, {0.2, -1.2}}}
		Master(buffer, 0.94)
		assert.InDelta(t, 0.94, buffer.Peak(), 1e-9)
		// Relative levels survive normalization.
		assert.InDelta(t, buffer.Samples[0][0]/buffer.Samples[1][1], -1.25, 1e-9)
	})

	t.Run("quiet mix untouched", func(t *testing.T) {
		buffer := &StereoBuffer{SampleRate: 44100, Samples: [][2]float64{{0.3, -0.3}}}
		Master(buffer, 0.94)
		assert.Equal(t, 0.3, buffer.Samples[0][0])
	})

	t.Run("silence untouched", func(t *testing.T) {
		buffer := &StereoBuffer{SampleRate: 44100, Samples: make([][2]float64, 10)}
		Master(buffer, 0.94)
		assert.Equal(t, 0.0, buffer.Peak())
	})
}

func TestHighPassFilter(t *testing.T) {
	const sampleRate = 44100

	// A 30Hz tone sits well below the 90Hz cutoff and should lose most
	// of its energy; a 1kHz tone should pass nearly unchanged.
	makeTone := func(freq float64) []float64 {
		n := sampleRate / 2
		tone := make([]float64, n)
		for i := range tone {
			tone[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
		}
		return tone
	}
	rms := func(samples []float64) float64 {
		sum := 0.0
		// Skip the filter's settling transient.
		for _, s := range samples[len(samples)/2:] {
			sum += s * s
		}
		return math.Sqrt(sum / float64(len(samples)/2))
	}

	low := HighPassFilter(makeTone(30), 90, sampleRate)
	high := HighPassFilter(makeTone(1000), 90, sampleRate)

	assert.Less(t, rms(low), 0.05)
	assert.InDelta(t, 1/math.Sqrt2, rms(high), 0.05)
}

func TestHighPassFilter_CutoffAboveNyquistPassesThrough(t *testing.T) {
	samples := []float64{0.5, -0.5, 0.25}
	original := append([]float64(nil), samples...)

	out := HighPassFilter(samples, 5000, 8000)
	assert.Equal(t, original, out)
}

func TestDefaultParams(t *testing.T) {
	params := DefaultParams()
	engine := NewEngine(synth.NewEngine(synth.DefaultSampleRate), params)

	assert.Equal(t, 1.0, engine.Gain(synth.InstrBassline))
	assert.Equal(t, 0.5, engine.Gain(synth.InstrPads))
	assert.Equal(t, -0.3, engine.Pan(synth.InstrMelody))
	assert.Equal(t, 0.3, engine.Pan(synth.InstrHarmonyLine))
	assert.Equal(t, 0.0, engine.Pan(synth.InstrBassline))
	assert.Equal(t, 0.94, params.TargetPeak)
	assert.Equal(t, 90.0, params.EQCutoffHz)
}

func TestRenderSong(t *testing.T) {
	song := composer.New(rand.New(rand.NewSource(1))).GenerateFullSong(models.MoodChill, 60, 240)

	engine := NewEngine(synth.NewEngine(8000), DefaultParams())
	buffer, err := engine.RenderSong(context.Background(), song, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	require.NotEmpty(t, buffer.Samples)

	// 112 beats at 240 BPM is 28 seconds, plus release tails and the
	// one second safety margin.
	assert.Greater(t, buffer.Duration(), 28.0)
	assert.Less(t, buffer.Duration(), 32.0)

	peak := buffer.Peak()
	assert.Greater(t, peak, 0.0)
	assert.LessOrEqual(t, peak, DefaultParams().TargetPeak+1e-9)
}

func TestRenderSong_EmptySong(t *testing.T) {
	engine := NewEngine(synth.NewEngine(8000), DefaultParams())

	buffer, err := engine.RenderSong(context.Background(), models.NewSong(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Empty(t, buffer.Samples)

	buffer, err = engine.RenderSong(context.Background(), nil, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Empty(t, buffer.Samples)
}

func TestRenderSong_Canceled(t *testing.T) {
	song := composer.New(rand.New(rand.NewSource(1))).GenerateFullSong(models.MoodHappy, 60, 120)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(synth.NewEngine(8000), DefaultParams())
	_, err := engine.RenderSong(ctx, song, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze(t *testing.T) {
	const sampleRate = 44100
	n := sampleRate // one second

	buffer := &StereoBuffer{SampleRate: sampleRate, Samples: make([][2]float64, n)}
	for i := range buffer.Samples {
		s := 0.5 * math.Sin(2*math.Pi*1000*float64(i)/sampleRate)
		buffer.Samples[i] = [2]float64{s, s}
	}

	a := Analyze(buffer)
	assert.InDelta(t, 0.5, a.Peak, 1e-3)
	assert.InDelta(t, 0.5/math.Sqrt2, a.RMS, 1e-3)
	assert.InDelta(t, 1.0, a.Seconds, 1e-9)

	// A 1kHz tone concentrates its energy in the mid band.
	assert.Greater(t, a.MidHz, 0.9)
	assert.InDelta(t, 1.0, a.LowHz+a.MidHz+a.HighHz, 1e-9)
}

func TestAnalyze_Silence(t *testing.T) {
	buffer := &StereoBuffer{SampleRate: 44100, Samples: make([][2]float64, 44100)}
	a := Analyze(buffer)
	assert.Equal(t, 0.0, a.Peak)
	assert.Equal(t, 0.0, a.RMS)
	assert.Equal(t, 0.0, a.LowHz+a.MidHz+a.HighHz)
}

func TestAnalyze_Empty(t *testing.T) {
	a := Analyze(&StereoBuffer{SampleRate: 44100})
	assert.Equal(t, 0.0, a.Peak)
	assert.Equal(t, 0.0, a.Seconds)
}
