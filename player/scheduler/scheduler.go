// Package scheduler runs the CPU/APU co-simulation and produces stereo
// 8-bit PCM into a single-producer/single-consumer ring buffer. It couples
// three clocks that all derive from the same CPU cycle count: the driver's
// ~60Hz frame callback, the APU's 512Hz frame sequencer, and the 44100Hz
// sample output — and layers song-length fadeout and silence-based
// auto-advance on top.
package scheduler

import (
	"github.com/gbslib/gbsplayer/player/cpu"
	"github.com/gbslib/gbsplayer/player/memory"
	"github.com/gbslib/gbsplayer/player/synth"
	"github.com/gbslib/gbsplayer/player/timing"
)

// cyclesPerAPUStep is how often (in CPU T-cycles) the frame sequencer
// advances: 4194304 Hz / 512 Hz.
const cyclesPerAPUStep = timing.CPUFrequency / 512

// Frame is one stereo sample pair as produced by player/synth, before the
// consumer applies its own fadeout scaling in ReadSamples.
type Frame struct {
	Left, Right int8
}

// NextSongFunc returns a freshly gb_init'd CPU/MMU pair for the song the
// scheduler should advance into once the current one's fadeout reaches
// zero. The caller (player.Player) owns song sequencing and ROM/header
// access; the scheduler only knows how to ask for "whatever comes next".
type NextSongFunc func() (*cpu.CPU, *memory.MMU)

// Scheduler is a single producer (CPU+APU stepping, filling the ring
// buffer) and single consumer (draining it, applying fadeout) run
// cooperatively on one goroutine, per the playback concurrency model: no
// locks, no channels, just plain indices into a power-of-two ring buffer.
type Scheduler struct {
	cpu   *cpu.CPU
	mmu   *memory.MMU
	synth *synth.Synth

	ring     [timing.RingBufferSize]Frame
	writeIdx uint32
	readIdx  uint32

	cycleAccum      float64
	cyclesPerSample float64
	apuAccum        int

	songLengthSamples int
	samplesProduced   int
	mutedSamples      int

	// fadeout is the current output gain: 1.0 at full volume, dropping by
	// timing.FadeoutStep on every ~60Hz driver frame tick once the song's
	// length has elapsed, until it reaches zero and the scheduler advances
	// to the next song. Sustained silence (trackSilence) sets it straight
	// to zero. The consumer (ReadSamples)
	// reads this value directly with no locking: it's a single float
	// written by the producer and read by the one consumer, so plain reads
	// are safe.
	fadeout float64

	nextSong NextSongFunc

	// SongEnded latches only when fadeout reaches zero with no NextSongFunc
	// wired: normal Player-driven playback always wires one and loops
	// through every song in the file, so this is purely a bare-Scheduler
	// (e.g. test) fallback.
	SongEnded bool
}

// New builds a scheduler around an already-initialized CPU/MMU pair.
// songLengthSamples is how many samples play at full volume before
// fadeout begins (timing.DefaultSongLengthSamples absent a better hint).
// nextSong is called once fadeout reaches zero to obtain the next song to
// play; pass nil to just latch SongEnded instead of advancing.
func New(c *cpu.CPU, mmu *memory.MMU, songLengthSamples int, nextSong NextSongFunc) *Scheduler {
	return &Scheduler{
		cpu:               c,
		mmu:               mmu,
		synth:             synth.New(),
		cyclesPerSample:   float64(timing.CPUFrequency) / float64(timing.SampleRate),
		songLengthSamples: songLengthSamples,
		fadeout:           1.0,
		nextSong:          nextSong,
	}
}

func (s *Scheduler) free() uint32 {
	return timing.RingBufferSize - (s.writeIdx - s.readIdx)
}

// FillBuffer runs the CPU/APU/synth pipeline until the ring buffer has no
// more free slots or the song has ended, whichever comes first.
func (s *Scheduler) FillBuffer() {
	for s.free() > 0 && !s.SongEnded {
		s.step()
	}
}

// step executes exactly one CPU instruction (or idle HALT tick) and
// advances every clock derived from the cycles it took.
func (s *Scheduler) step() {
	cycles := s.cpu.Step()
	s.mmu.Tick(cycles)

	s.apuAccum += cycles
	for s.apuAccum >= cyclesPerAPUStep {
		s.apuAccum -= cyclesPerAPUStep
		s.mmu.APU.StepSequencer()
	}

	s.cycleAccum += float64(cycles)
	for s.cycleAccum >= s.cyclesPerSample {
		s.cycleAccum -= s.cyclesPerSample
		s.emitSample()
	}

	if s.mmu.ConsumeFrameEdge() {
		s.tickFadeout()
		s.cpu.JumpToPlay()
	}
}

// tickFadeout applies the per-driver-frame fadeout ramp: once the
// song has produced songLengthSamples at full volume, gain starts at
// timing.FadeoutStartGain and drops by timing.FadeoutStep every ~60Hz
// tick until it reaches zero, at which point the scheduler advances to
// the next song (or latches SongEnded with no NextSongFunc wired).
// trackSilence can also force fadeout straight to zero, treated here as
// an immediate advance request on the very next tick.
func (s *Scheduler) tickFadeout() {
	if s.fadeout == 1.0 {
		if s.samplesProduced >= s.songLengthSamples {
			s.fadeout = timing.FadeoutStartGain
		}
	} else if s.fadeout > 0 {
		s.fadeout -= timing.FadeoutStep
	}

	if s.fadeout <= 0 {
		s.advanceSong()
	}
}

// advanceSong moves playback to the next song in sequence, wrapping back
// to the first once the last one finishes, resetting every piece of
// per-song state the ring buffer's consumer doesn't own.
func (s *Scheduler) advanceSong() {
	if s.nextSong == nil {
		s.SongEnded = true
		return
	}

	s.cpu, s.mmu = s.nextSong()
	s.fadeout = 1.0
	s.samplesProduced = 0
	s.mutedSamples = 0
}

func (s *Scheduler) emitSample() {
	left, right := s.synth.Sample(s.mmu.APU)

	slot := s.writeIdx & (timing.RingBufferSize - 1)
	s.ring[slot] = Frame{Left: left, Right: right}
	s.writeIdx++

	s.samplesProduced++
	s.trackSilence(left, right)
}

const silenceAmplitude = 2

func (s *Scheduler) trackSilence(left, right int8) {
	if abs8(left) <= silenceAmplitude && abs8(right) <= silenceAmplitude {
		s.mutedSamples++
		if s.mutedSamples >= timing.MuteSampleThreshold {
			// Sustained silence forces fadeout straight to zero, an
			// immediate next-song trigger the producer acts on at its
			// next ~60Hz tick (tickFadeout).
			s.fadeout = 0
		}
	} else {
		s.mutedSamples = 0
	}
}

func abs8(v int8) int8 {
	if v < 0 {
		return -v
	}
	return v
}

// ReadSamples drains up to len(out)/2 stereo frames into out as
// interleaved [left, right, left, right, ...] int8 PCM, multiplying each
// outgoing frame by whatever the producer's current fadeout gain is (read
// with no locking — a single writer and a single reader on one float
// needs none). It returns the number of frames written.
func (s *Scheduler) ReadSamples(out []int8) int {
	frames := len(out) / 2
	written := 0

	for written < frames && s.readIdx != s.writeIdx {
		slot := s.readIdx & (timing.RingBufferSize - 1)
		f := s.ring[slot]
		s.readIdx++

		gain := s.fadeout
		out[written*2] = scaleInt8(f.Left, gain)
		out[written*2+1] = scaleInt8(f.Right, gain)
		written++
	}

	return written
}

func scaleInt8(v int8, gain float64) int8 {
	return int8(float64(v) * gain)
}

// Available reports how many stereo frames are currently queued for
// ReadSamples.
func (s *Scheduler) Available() int {
	return int(s.writeIdx - s.readIdx)
}
