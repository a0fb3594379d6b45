//go:build sdl2

// Package sdl2 implements backend.AudioSink on top of go-sdl2's audio
// queue, the same initAudio/queueAudioSamples approach jeebie's SDL2
// backend uses for its own audio path, without the video, input or
// debug-window concerns that accompanied it there — this player has no
// framebuffer to show.
package sdl2

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
)

// Sink plays audio through an SDL2 queued audio device. Building it
// requires SDL2 development libraries installed; default builds skip this
// and use the stub, selected by the sdl2 build tag the same way jeebie
// gates its video backend.
type Sink struct {
	device sdl.AudioDeviceID
}

// New creates an uninitialized SDL2 audio sink.
func New() *Sink {
	return &Sink{}
}

// Init opens an SDL2 audio device streaming signed 8-bit stereo PCM at
// sampleRate.
func (s *Sink) Init(sampleRate int) error {
	if err := sdl.Init(sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("failed to initialize SDL2 audio: %v", err)
	}

	spec := &sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_S8,
		Channels: 2,
		Samples:  512,
	}

	obtained := &sdl.AudioSpec{}
	device, err := sdl.OpenAudioDevice("", false, spec, obtained, 0)
	if err != nil {
		return fmt.Errorf("failed to open audio device: %v", err)
	}

	s.device = device
	sdl.PauseAudioDevice(s.device, false)

	slog.Info("SDL2 audio sink initialized", "freq", obtained.Freq, "samples", obtained.Samples)
	return nil
}

// Samples queues interleaved stereo int8 PCM onto the open device.
func (s *Sink) Samples(frames []int8) {
	if s.device == 0 || len(frames) == 0 {
		return
	}

	raw := (*[1 << 30]byte)(unsafe.Pointer(&frames[0]))[:len(frames):len(frames)]
	sdl.QueueAudio(s.device, raw)
}

// Close stops playback and releases the audio device.
func (s *Sink) Close() error {
	if s.device != 0 {
		sdl.CloseAudioDevice(s.device)
		s.device = 0
	}
	sdl.Quit()
	return nil
}
