package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

// ChimeSampleRate is the rate the built-in chime is synthesized at.
const ChimeSampleRate = beep.SampleRate(44100)

// chimeNote is one partial of the built-in chime.
type chimeNote struct {
	freq  float64
	start time.Duration
	decay time.Duration
}

var chimeNotes = []chimeNote{
	{freq: 880.0, start: 0, decay: 180 * time.Millisecond},                      // A5
	{freq: 1318.5, start: 90 * time.Millisecond, decay: 260 * time.Millisecond}, // E6
}

const chimeLength = 600 * time.Millisecond

// Chime returns a streamer playing the built-in two-note attention chime.
func Chime(sr beep.SampleRate) beep.Streamer {
	total := sr.N(chimeLength)
	pos := 0
	rate := float64(sr)

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for i := range samples {
			if pos >= total {
				break
			}
			t := float64(pos) / rate
			v := 0.0
			for _, note := range chimeNotes {
				start := note.start.Seconds()
				if t < start {
					continue
				}
				dt := t - start
				env := math.Exp(-dt / note.decay.Seconds())
				v += 0.3 * env * math.Sin(2*math.Pi*note.freq*dt)
			}
			samples[i][0] = v
			samples[i][1] = v
			pos++
			n++
		}
		return n, true
	})
}
