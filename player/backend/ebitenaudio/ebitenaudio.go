// Package ebitenaudio implements backend.AudioSink on top of
// hajimehoshi/ebiten/v2's audio subpackage, the way richardwooding's
// nostalgiza and FabianRolfMatthiasNoll's emulator use it purely for its
// player/context (cmd/nostalgiza/audio.go): an audio.Context feeding an
// audio.Player from a streamed io.Reader. Unlike the sdl2 sink this
// needs no cgo or platform dev headers, so it is the default live-device
// choice.
package ebitenaudio

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// maxQueuedBytes bounds the pending-sample queue so a sink nobody is
// draining (no host audio callback running) can't grow without limit.
const maxQueuedBytes = 1 << 20

// Sink streams PCM into an ebiten audio.Player. ebiten's audio package
// expects 16-bit signed little-endian stereo; Samples widens the
// scheduler's 8-bit frames on the way in.
type Sink struct {
	context *audio.Context
	player  *audio.Player

	mu     sync.Mutex
	queue  bytes.Buffer
}

// stream adapts Sink's internal queue to io.Reader for audio.NewPlayer.
type stream struct {
	sink *Sink
}

func (s *stream) Read(buf []byte) (int, error) {
	s.sink.mu.Lock()
	defer s.sink.mu.Unlock()

	n, _ := s.sink.queue.Read(buf)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return len(buf), nil
}

// New creates an uninitialized ebiten audio sink.
func New() *Sink {
	return &Sink{}
}

// Init creates the ebiten audio context and starts a streaming player
// against it at sampleRate.
func (s *Sink) Init(sampleRate int) error {
	s.context = audio.NewContext(sampleRate)

	player, err := s.context.NewPlayer(&stream{sink: s})
	if err != nil {
		return fmt.Errorf("failed to create ebiten audio player: %w", err)
	}
	s.player = player
	s.player.Play()

	return nil
}

// Samples widens interleaved stereo int8 PCM to 16-bit little-endian and
// appends it to the streaming queue, dropping the oldest bytes if the
// queue grows past maxQueuedBytes.
func (s *Sink) Samples(frames []int8) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue.Write(widen(frames))

	if excess := s.queue.Len() - maxQueuedBytes; excess > 0 {
		s.queue.Next(excess)
	}
}

// widen converts signed 8-bit PCM to signed 16-bit little-endian PCM by
// shifting each sample into the high byte, matching how ebiten's audio
// package expects its input stream to be encoded.
func widen(frames []int8) []byte {
	out := make([]byte, 0, len(frames)*2)
	for _, v := range frames {
		wide := int16(v) << 8
		out = append(out, byte(wide), byte(wide>>8))
	}
	return out
}

// Close pauses playback. ebiten has no explicit context teardown.
func (s *Sink) Close() error {
	if s.player != nil {
		s.player.Pause()
	}
	return nil
}
