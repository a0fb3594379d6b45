// Package wav implements backend.AudioSink by writing a standard PCM WAV
// file instead of opening a live device — the audio analog of the
// teacher's headless PNG-snapshot backend (jeebie/backend/headless), used
// by cmd/gbsplayer's --headless flag for silent, file-based rendering.
package wav

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	bitsPerSample = 8
	channels      = 2
)

// Sink accumulates PCM frames in memory and writes a complete WAV file on
// Close, since the RIFF header needs the final data size up front.
type Sink struct {
	path       string
	sampleRate int
	data       []byte
}

// New creates a WAV sink that will write to path on Close.
func New(path string) *Sink {
	return &Sink{path: path}
}

// Init records the sample rate the WAV header will declare.
func (s *Sink) Init(sampleRate int) error {
	s.sampleRate = sampleRate
	return nil
}

// Samples appends interleaved stereo int8 PCM, converting each signed
// sample to WAV's unsigned 8-bit convention.
func (s *Sink) Samples(frames []int8) {
	for _, v := range frames {
		s.data = append(s.data, byte(int16(v)+128))
	}
}

// Close writes the accumulated samples to a complete RIFF/WAVE file.
func (s *Sink) Close() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}
	defer f.Close()

	byteRate := s.sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := uint32(len(s.data))

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(s.sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("failed to write wav header: %w", err)
	}
	if _, err := f.Write(s.data); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}

	return nil
}
