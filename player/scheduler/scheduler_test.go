package scheduler

import (
	"testing"

	"github.com/gbslib/gbsplayer/player/cpu"
	"github.com/gbslib/gbsplayer/player/gbsfile"
	"github.com/gbslib/gbsplayer/player/memory"
	"github.com/gbslib/gbsplayer/player/timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestROM assembles a minimal driver: an init routine that powers on
// the APU and triggers a loud channel 1 tone, then RETs (falling off into
// the CPU's below-0x10 guard, which is how a GBS driver signals "done for
// this frame"); and a play routine that just spins in place, since this
// test only exercises the scheduling pipeline, not realistic driver logic.
func buildTestROM(loud bool) [gbsfile.MaxROMSize]byte {
	var rom [gbsfile.MaxROMSize]byte

	init := []byte{
		0x3E, 0x80, 0xE0, 0x26, // LD A,0x80 ; LDH (NR52),A  -- power on
		0x3E, 0xFF, 0xE0, 0x25, // LD A,0xFF ; LDH (NR51),A  -- pan both channels both ways
		0x3E, 0x77, 0xE0, 0x24, // LD A,0x77 ; LDH (NR50),A  -- max master volume
		0x3E, 0x80, 0xE0, 0x11, // LD A,0x80 ; LDH (NR11),A  -- 50% duty
		0xC9, // RET
	}
	if loud {
		init = append(init[:len(init)-1],
			0x3E, 0xF0, 0xE0, 0x12, // LD A,0xF0 ; LDH (NR12),A -- full volume
			0x3E, 0x00, 0xE0, 0x13, // LD A,0x00 ; LDH (NR13),A -- period low
			0x3E, 0x84, 0xE0, 0x14, // LD A,0x84 ; LDH (NR14),A -- trigger, period high=4
			0xC9,
		)
	} else {
		init = append(init[:len(init)-1],
			0x3E, 0x00, 0xE0, 0x12, // LD A,0x00 ; LDH (NR12),A -- volume 0, envelope down -> DAC off
			0xC9,
		)
	}

	play := []byte{0x18, 0xFE} // JR -2 (spin in place)

	copy(rom[0x0070:], init)
	copy(rom[0x0090:], play)
	return rom
}

func buildTestCPU(loud bool) (*cpu.CPU, *memory.MMU) {
	rom := buildTestROM(loud)
	mmu := memory.New(rom)
	c := cpu.New(mmu, 0x0090, 0x0070)
	c.Init(0x0070, 0xFFFE)
	return c, mmu
}

func newTestScheduler(t *testing.T, loud bool, songLengthSamples int) *Scheduler {
	t.Helper()
	c, mmu := buildTestCPU(loud)
	return New(c, mmu, songLengthSamples, nil)
}

func TestFillBuffer_ProducesSamples(t *testing.T) {
	s := newTestScheduler(t, true, timing.DefaultSongLengthSamples)
	s.FillBuffer()
	assert.Greater(t, s.Available(), 0)
}

func TestReadSamples_DrainsInterleavedStereo(t *testing.T) {
	s := newTestScheduler(t, true, timing.DefaultSongLengthSamples)
	s.FillBuffer()

	out := make([]int8, 512)
	n := s.ReadSamples(out)
	require.Greater(t, n, 0)
	assert.LessOrEqual(t, n, 256)
}

func TestFadeout_DropsToStartGainOnceSongLengthElapses(t *testing.T) {
	s := newTestScheduler(t, true, 4) // fade begins almost immediately
	assert.Equal(t, 1.0, s.fadeout)

	s.FillBuffer()
	out := make([]int8, 2*timing.RingBufferSize)
	n := s.ReadSamples(out)
	require.Greater(t, n, 0)

	assert.Less(t, s.fadeout, 1.0)
	assert.Greater(t, s.fadeout, 0.0)
}

func TestSongEnded_OnSilenceWithNoNextSongFunc(t *testing.T) {
	s := newTestScheduler(t, false, timing.DefaultSongLengthSamples)

	for i := 0; i < timing.MuteSampleThreshold/timing.RingBufferSize+10 && !s.SongEnded; i++ {
		s.FillBuffer()
		out := make([]int8, 2*timing.RingBufferSize)
		s.ReadSamples(out)
	}

	assert.True(t, s.SongEnded)
}

func TestAdvanceSong_CallsNextSongFuncAndResetsState(t *testing.T) {
	c, mmu := buildTestCPU(true)
	nextC, nextMMU := buildTestCPU(true)

	calls := 0
	s := New(c, mmu, 4, func() (*cpu.CPU, *memory.MMU) {
		calls++
		return nextC, nextMMU
	})

	// Drive the ramp to its last tick directly rather than spending 999
	// real ticks (~16.65s of simulated playback) getting there.
	s.fadeout = timing.FadeoutStep
	s.mutedSamples = 0
	s.tickFadeout()

	assert.Equal(t, 1, calls)
	assert.False(t, s.SongEnded, "a wired NextSongFunc must advance instead of latching SongEnded")
	assert.Equal(t, 1.0, s.fadeout, "fadeout resets to full volume for the new song")
	assert.Same(t, nextC, s.cpu)
	assert.Same(t, nextMMU, s.mmu)
}

func TestTickFadeout_RampTakes999TicksFromElapsedToZero(t *testing.T) {
	s := newTestScheduler(t, true, 0) // song length already elapsed
	s.samplesProduced = 1

	s.tickFadeout() // crosses into fading: fadeout = FadeoutStartGain
	require.Equal(t, timing.FadeoutStartGain, s.fadeout)

	ticks := 0
	for s.fadeout > 0 {
		s.tickFadeout()
		ticks++
		require.Less(t, ticks, 2000, "fadeout ramp did not terminate")
	}

	// Floating-point accumulation of 0.001 steps can land a tick or two
	// off an exact 999; the ramp only needs to land near 16.65s, not hit
	// an exact tick count.
	assert.InDelta(t, 999, ticks, 2)
}
