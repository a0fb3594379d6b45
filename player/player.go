// Package player ties the CPU, memory, APU and scheduler packages
// together into a single playback session, the way jeebie.Emulator
// (jeebie/core.go) aggregates its own cpu/gpu/memory trio behind a small
// lifecycle API.
package player

import (
	"fmt"
	"log/slog"

	"github.com/gbslib/gbsplayer/player/addr"
	"github.com/gbslib/gbsplayer/player/cpu"
	"github.com/gbslib/gbsplayer/player/gbsfile"
	"github.com/gbslib/gbsplayer/player/memory"
	"github.com/gbslib/gbsplayer/player/scheduler"
	"github.com/gbslib/gbsplayer/player/timing"
)

// timerSeed is the power-on divider value real DMG hardware leaves
// behind by the time a GBS driver's init routine runs, matching the
// teacher's own Emulator.init seed (jeebie/core.go).
const timerSeed = 0xABCC

// Player owns one parsed GBS file and the CPU/memory/scheduler triple
// currently rendering one of its songs.
type Player struct {
	file *gbsfile.File

	cpu       *cpu.CPU
	mmu       *memory.MMU
	scheduler *scheduler.Scheduler

	song int
}

// LoadGBS parses a GBS container and returns a Player ready to play its
// first song. The song can be changed with PlaySong before the first
// Scheduler.FillBuffer/ReadSamples call.
func LoadGBS(data []byte) (*Player, error) {
	file, err := gbsfile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gbs file: %w", err)
	}

	slog.Info("loaded gbs file",
		"title", file.Title,
		"author", file.Author,
		"songs", file.SongCount,
		"first_song", file.FirstSong,
	)

	p := &Player{file: file}
	p.PlaySong(int(file.FirstSong))
	return p, nil
}

// SongCount reports how many songs the loaded file contains.
func (p *Player) SongCount() int {
	return int(p.file.SongCount)
}

// Title, Author and Copyright expose the GBS header's text fields.
func (p *Player) Title() string     { return p.file.Title }
func (p *Player) Author() string    { return p.file.Author }
func (p *Player) Copyright() string { return p.file.Copyright }

// buildSong constructs a freshly gb_init'd CPU/MMU pair for the given
// 1-based song index: a fresh memory image with the fixed timerSeed and
// the header's TMA/TAC applied, the CPU reset to init_address with register A preloaded via
// the song-select convention (player/cpu.CPU.SetSongSelect).
func (p *Player) buildSong(index uint8) (*cpu.CPU, *memory.MMU) {
	mmu := memory.New(p.file.ROM)
	mmu.SetTimerSeed(timerSeed)
	mmu.Write(addr.TMA, p.file.TimerModulo)
	mmu.Write(addr.TAC, p.file.TimerControl)

	c := cpu.New(mmu, p.file.PlayAddress, p.file.LoadAddress)
	c.Init(p.file.InitAddress, p.file.StackPointer)
	c.SetSongSelect(index - 1)

	return c, mmu
}

// advance is the scheduler's NextSongFunc: it wraps to the next song in
// sequence, rebuilding a fresh CPU/MMU pair as if the new song had been
// selected from a cold start, and returns the new pair. CurrentSong
// reports the song it switched to.
func (p *Player) advance() (*cpu.CPU, *memory.MMU) {
	next := p.song%p.SongCount() + 1
	p.song = next

	c, mmu := p.buildSong(uint8(next))
	p.cpu, p.mmu = c, mmu

	slog.Debug("auto-advancing song", "index", next, "of", p.file.SongCount)
	return c, mmu
}

// PlaySong (re)initializes the CPU/memory/scheduler for the given 1-based
// song index, clamping out-of-range requests to the header's configured
// first song (player/gbsfile.File.SongIndex). It discards any
// in-progress playback state. Once running, the scheduler advances
// through every other song in the file on its own as each one's fadeout
// completes (see advance) — PlaySong is only needed to jump somewhere
// specific.
func (p *Player) PlaySong(song int) {
	index := p.file.SongIndex(song)
	p.song = int(index)

	p.cpu, p.mmu = p.buildSong(index)
	p.scheduler = scheduler.New(p.cpu, p.mmu, timing.DefaultSongLengthSamples, p.advance)

	slog.Debug("playing song", "index", index, "of", p.file.SongCount)
}

// CurrentSong reports the 1-based song index currently playing.
func (p *Player) CurrentSong() int {
	return p.song
}

// FillBuffer drives the CPU/APU/synth pipeline forward, as a thin
// passthrough to the underlying scheduler.
func (p *Player) FillBuffer() {
	p.scheduler.FillBuffer()
}

// ReadSamples drains rendered stereo PCM into out, returning the number
// of frames written.
func (p *Player) ReadSamples(out []int8) int {
	return p.scheduler.ReadSamples(out)
}

// SongEnded reports whether playback has stopped producing new songs.
// Since PlaySong always wires the scheduler's auto-advance, this never
// latches true during normal use — the file loops through every song
// indefinitely.
func (p *Player) SongEnded() bool {
	return p.scheduler.SongEnded
}
