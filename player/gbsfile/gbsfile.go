// Package gbsfile parses GBS container files: a fixed-size header
// describing song count/entry points followed by a driver code blob meant
// to be relocated into a synthetic ROM image at the header's load address.
package gbsfile

import (
	"fmt"

	"github.com/gbslib/gbsplayer/player/bit"
)

const (
	headerSize  = 0x70
	magic       = "GBS"
	titleLength = 32

	magicOffset          = 0x00
	versionOffset        = 0x03
	songCountOffset      = 0x04
	firstSongOffset      = 0x05
	loadAddressOffset    = 0x06
	initAddressOffset    = 0x08
	playAddressOffset    = 0x0A
	stackPointerOffset   = 0x0C
	timerModuloOffset    = 0x0E
	timerControlOffset   = 0x0F
	titleOffset          = 0x10
	authorOffset         = 0x30
	copyrightOffset      = 0x50

	// MaxROMSize is the size of the linear ROM image a GBS driver is
	// relocated into, matching peanut_gb.h's 128KiB struct gb_s.rom[]
	// (0x20000 bytes) so that player/memory can bank-switch the
	// 0x4000-0x7FFF window the same way the reference interpreter does.
	MaxROMSize = 0x20000
)

// File is a parsed GBS container: the header fields plus the driver code,
// already relocated into a flat ROM image ready to hand to player/memory.
type File struct {
	SongCount    uint8
	FirstSong    uint8
	LoadAddress  uint16
	InitAddress  uint16
	PlayAddress  uint16
	StackPointer uint16
	TimerModulo  uint8
	TimerControl uint8

	Title     string
	Author    string
	Copyright string

	// ROM is a flat 128KiB image with the driver code copied in at
	// LoadAddress; every other byte is zero. player/memory banks the
	// 0x4000-0x7FFF window into this image, so a driver whose load
	// address plus length overruns the first 32KiB is still valid as
	// long as it fits within MaxROMSize.
	ROM [MaxROMSize]byte
}

// Parse validates and decodes a GBS container's header and relocates its
// driver code into a ROM image. It is the one place in this module that
// returns an error: everything downstream of a successfully parsed File is
// trusted input.
func Parse(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("gbsfile: file too short for header: got %d bytes, need at least %d", len(data), headerSize)
	}
	if string(data[magicOffset:magicOffset+3]) != magic {
		return nil, fmt.Errorf("gbsfile: bad magic %q, expected %q", data[magicOffset:magicOffset+3], magic)
	}
	if data[versionOffset] != 1 {
		return nil, fmt.Errorf("gbsfile: unsupported version %d, only version 1 is known", data[versionOffset])
	}

	f := &File{
		SongCount:    data[songCountOffset],
		FirstSong:    data[firstSongOffset],
		LoadAddress:  bit.Combine(data[loadAddressOffset+1], data[loadAddressOffset]),
		InitAddress:  bit.Combine(data[initAddressOffset+1], data[initAddressOffset]),
		PlayAddress:  bit.Combine(data[playAddressOffset+1], data[playAddressOffset]),
		StackPointer: bit.Combine(data[stackPointerOffset+1], data[stackPointerOffset]),
		TimerModulo:  data[timerModuloOffset],
		TimerControl: data[timerControlOffset],
		Title:        trimTitle(data, titleOffset),
		Author:       trimTitle(data, authorOffset),
		Copyright:    trimTitle(data, copyrightOffset),
	}

	if f.SongCount == 0 {
		return nil, fmt.Errorf("gbsfile: header declares zero songs")
	}
	if f.FirstSong == 0 {
		f.FirstSong = 1
	}

	driver := data[headerSize:]
	if int(f.LoadAddress)+len(driver) > MaxROMSize {
		return nil, fmt.Errorf("gbsfile: driver code at load address 0x%04X (%d bytes) overruns the %dKiB image", f.LoadAddress, len(driver), MaxROMSize/1024)
	}
	copy(f.ROM[f.LoadAddress:], driver)

	return f, nil
}

func trimTitle(data []byte, offset int) string {
	end := offset
	for end < offset+titleLength && end < len(data) && data[end] != 0 {
		end++
	}
	return string(data[offset:end])
}

// SongIndex clamps a 1-based song request to the valid range declared by
// the header, per the trust-the-input policy: out-of-range requests fall
// back to the configured first song rather than erroring at playback time.
func (f *File) SongIndex(requested int) uint8 {
	if requested < 1 || requested > int(f.SongCount) {
		return f.FirstSong
	}
	return uint8(requested)
}
