// Package audio decodes a background track and plays it through the
// system speaker. Audio problems never interrupt playback: they are
// reported to stderr and the run continues silently.
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

// Player streams one decoded track. Play starts asynchronous playback
// and returns immediately; Stop is idempotent and safe to call after
// the track has ended naturally.
type Player struct {
	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	format   beep.Format
	volume   float64
	started  bool
	stopped  bool
}

// NewPlayer opens and decodes the track at path. Supported formats are
// MP3 and WAV, chosen by file extension. volume is a dB-style gain in
// beep's base-2 exponent units; 0 is unity.
func NewPlayer(path string, volume float64) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		streamer, format, err = mp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode audio file: %w", err)
	}

	return &Player{streamer: streamer, format: format, volume: volume}, nil
}

// Play initializes the speaker and starts the track. Failures degrade
// to silence with a note on stderr.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return
	}
	p.started = true

	if err := speaker.Init(p.format.SampleRate, p.format.SampleRate.N(time.Millisecond*100)); err != nil {
		fmt.Fprintf(os.Stderr, "audio unavailable: %v\r\n", err)
		return
	}

	var stream beep.Streamer = p.streamer
	if p.volume != 0 {
		stream = &effects.Volume{
			Streamer: stream,
			Base:     2,
			Volume:   p.volume,
		}
	}
	speaker.Play(stream)
}

// Stop silences the speaker and releases the decoder
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true

	if p.started {
		speaker.Clear()
	}
	p.streamer.Close()
}
