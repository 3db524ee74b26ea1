package audio

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// speakerRate is the rate the speaker is opened at. Everything played is
// resampled to it.
const speakerRate = ChimeSampleRate

type decodeFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	".wav": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
	".ogg": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
	".mp3": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) },
}

// output owns the speaker and the decoded chime file. The speaker is opened
// on first use so a daemon that never chimes never touches the sound device.
type output struct {
	mu     sync.Mutex
	logger *slog.Logger
	open   bool
	gain   float64

	path   string
	buffer *beep.Buffer
}

func newOutput(logger *slog.Logger) *output {
	return &output{logger: logger, gain: 1}
}

// setVolume sets the linear volume, clamped to [0,1].
func (o *output) setVolume(v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gain = math.Max(0, math.Min(1, v))
}

func (o *output) volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gain
}

// load decodes path into memory, replacing any previously loaded file.
func (o *output) load(path string) error {
	buf, err := decodeFile(path)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.path, o.buffer = path, buf
	o.mu.Unlock()
	o.logger.Debug("sound loaded", "path", path, "length", buf.Format().SampleRate.D(buf.Len()))
	return nil
}

// forget drops the decoded file so the next playFile decodes it again.
func (o *output) forget() {
	o.mu.Lock()
	o.path, o.buffer = "", nil
	o.mu.Unlock()
}

// playFile plays path, decoding it first unless it is the loaded file.
func (o *output) playFile(path string) error {
	o.mu.Lock()
	buf := o.buffer
	if o.path != path {
		buf = nil
	}
	o.mu.Unlock()

	if buf == nil {
		if err := o.load(path); err != nil {
			return err
		}
		return o.playFile(path)
	}
	return o.play(buf.Streamer(0, buf.Len()), buf.Format().SampleRate)
}

// play queues s, produced at rate, on the speaker.
func (o *output) play(s beep.Streamer, rate beep.SampleRate) error {
	o.mu.Lock()
	if !o.open {
		if err := speaker.Init(speakerRate, speakerRate.N(100*time.Millisecond)); err != nil {
			o.mu.Unlock()
			return fmt.Errorf("failed to open speaker: %w", err)
		}
		o.open = true
	}
	gain := o.gain
	o.mu.Unlock()

	if rate != speakerRate {
		s = beep.Resample(4, rate, speakerRate, s)
	}
	speaker.Play(withVolume(s, gain))
	return nil
}

// close releases the speaker and the decoded file.
func (o *output) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.open {
		speaker.Close()
		o.open = false
	}
	o.path, o.buffer = "", nil
}

func decodeFile(path string) (*beep.Buffer, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unsupported sound format %q, want wav, ogg or mp3", filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound: %w", err)
	}
	defer func() { _ = f.Close() }()

	stream, format, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	defer func() { _ = stream.Close() }()

	buf := beep.NewBuffer(format)
	buf.Append(stream)
	if err := stream.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return buf, nil
}

// withVolume attenuates s for a linear volume in [0,1].
func withVolume(s beep.Streamer, volume float64) beep.Streamer {
	if volume >= 1 {
		return s
	}
	return &effects.Volume{
		Streamer: s,
		Base:     10,
		Volume:   volumeToDecibels(volume) / 20,
		Silent:   volume == 0,
	}
}

// volumeToDecibels maps a linear volume to dB; 0 maps to -100.
func volumeToDecibels(volume float64) float64 {
	if volume <= 0 {
		return -100
	}
	return 20 * math.Log10(volume)
}
