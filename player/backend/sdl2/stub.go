//go:build !sdl2

package sdl2

import "fmt"

// Sink stub for when SDL2 is not available.
type Sink struct{}

// New creates a stub SDL2 audio sink that returns an error on Init.
func New() *Sink {
	return &Sink{}
}

// Init returns an error indicating SDL2 is not available.
func (s *Sink) Init(sampleRate int) error {
	return fmt.Errorf("SDL2 audio backend not available - build with -tags sdl2 to enable")
}

// Samples does nothing.
func (s *Sink) Samples(frames []int8) {}

// Close does nothing.
func (s *Sink) Close() error {
	return nil
}
