// Package synth renders actual audio samples from an audio.APU's channel
// state. GBS playback uses a simplified synthesis model rather than the
// real hardware's period-timer approach: each channel keeps a phase
// accumulator that advances by a fixed step per output sample (looked up
// from a frequency table keyed by the channel's 11-bit period register),
// and the waveform for that phase is read from a small lookup table
// instead of being timed cycle-by-cycle. Output is 8-bit signed, matching
// the GBS renderer's native format.
package synth

import (
	"github.com/gbslib/gbsplayer/player/audio"
)

// SampleRate is the fixed output rate the phase tables below are tuned
// for; player/scheduler renders at this rate before any host resampling.
const SampleRate = 44100

// phaseSteps is the number of steps in one full cycle of the square/wave
// duty patterns. Noise uses its own, much longer, LFSR-length modulus.
const phaseSteps = 32

// freqTable maps an 11-bit NRx3/NRx4 period value to the phase
// accumulator's per-sample step, scaled so that stepping through
// phaseSteps entries of the duty table reproduces the channel's real
// frequency (131072/(2048-period) Hz for ch1/ch2, half that for ch3's
// waveFreqTable).
var freqTable [2048]uint32
var waveFreqTable [2048]uint32

func init() {
	for period := 0; period < 2048; period++ {
		hz := 131072.0 / float64(2048-period)
		freqTable[period] = uint32(hz * phaseSteps / SampleRate * (1 << 16))

		waveHz := 65536.0 / float64(2048-period)
		waveFreqTable[period] = uint32(waveHz * phaseSteps / SampleRate * (1 << 16))
	}
}

var noiseDividers = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

// dutyTable holds the four square-wave duty patterns as +1/-1 samples over
// a 32-step cycle (12.5%, 25%, 50%, 75% high time), matching the shape of
// the real hardware's duty cycles but stretched to the simplified model's
// phase resolution.
var dutyTable = [4][phaseSteps]int8{
	dutyPattern(4),
	dutyPattern(8),
	dutyPattern(16),
	dutyPattern(24),
}

func dutyPattern(highSteps int) [phaseSteps]int8 {
	var p [phaseSteps]int8
	for i := range p {
		if i < highSteps {
			p[i] = 1
		} else {
			p[i] = -1
		}
	}
	return p
}

// waveShift converts CH3's 2-bit output-level field into the right-shift
// this simplified renderer applies to the raw wave sample: mute/full/half/
// quarter volume become shift-by 8 (i.e. silence)/0/2/3.
var waveShift = [4]uint8{8, 0, 2, 3}

// channelState is the phase-accumulator state synth keeps per channel,
// parallel to (but independent of) audio.Channel's register-derived state.
type channelState struct {
	phase    uint32 // fixed-point, 16 fractional bits
	waveStep int     // current wave-table/duty index (integer part of phase)
	lfsr     uint16
}

// Synth renders stereo 8-bit signed samples for all four channels of an
// APU, advancing each channel's own phase accumulator one sample at a
// time.
type Synth struct {
	state [4]channelState
}

// New returns a Synth with all channels' phase accumulators reset.
func New() *Synth {
	s := &Synth{}
	for i := range s.state {
		s.state[i].lfsr = 0x7FFF
	}
	return s
}

// Sample renders one stereo frame from the APU's current channel state,
// advancing every enabled channel's phase accumulator by one sample.
// Output is 8-bit signed PCM, summed across channels and panned per NR51/
// NR50, clipped to the int8 range.
func (s *Synth) Sample(apu *audio.APU) (left, right int8) {
	channels := apu.Channels()
	volLeft, volRight := apu.MasterVolumes()

	var left32, right32 int32
	for i := range channels {
		ch := &channels[i]
		if ch.TriggerPulse {
			s.retrigger(i, ch)
			ch.TriggerPulse = false
		}
		if !ch.Enabled || !ch.DACEnabled || apu.Muted(i) {
			continue
		}

		level := s.render(i, ch, apu)
		if level == 0 {
			continue
		}

		if ch.Left {
			left32 += int32(level)
		}
		if ch.Right {
			right32 += int32(level)
		}
	}

	left32 = left32 * int32(volLeft+1) / 8
	right32 = right32 * int32(volRight+1) / 8

	return clampInt8(left32), clampInt8(right32)
}

func (s *Synth) retrigger(index int, ch *audio.Channel) {
	st := &s.state[index]
	st.phase = 0
	st.waveStep = 0
	if index == 3 {
		st.lfsr = 0x7FFF
	}
}

func (s *Synth) render(index int, ch *audio.Channel, apu *audio.APU) int8 {
	st := &s.state[index]
	switch index {
	case 0, 1:
		return s.renderSquare(st, ch)
	case 2:
		return s.renderWave(st, ch, apu)
	default:
		return s.renderNoise(st, ch)
	}
}

func (s *Synth) renderSquare(st *channelState, ch *audio.Channel) int8 {
	step := freqTable[ch.Period&0x7FF]
	st.phase += step
	st.waveStep = int(st.phase>>16) % phaseSteps

	sample := dutyTable[ch.Duty&0x3][st.waveStep]
	return int8(sample) * int8(ch.Volume&0xF)
}

func (s *Synth) renderWave(st *channelState, ch *audio.Channel, apu *audio.APU) int8 {
	step := waveFreqTable[ch.Period&0x7FF]
	st.phase += step
	st.waveStep = int(st.phase>>16) % phaseSteps

	waveRAM := apu.WaveRAM()
	b := waveRAM[st.waveStep>>1]
	var sample int8
	if st.waveStep&1 == 0 {
		// High nibble: -15 + ((B&0xF0)>>3), e.g. B=0xF0 -> +15.
		sample = -15 + int8((b&0xF0)>>3)
	} else {
		// Low nibble: -15 + ((B&0x0F)<<1), e.g. B=0xF0 -> -15.
		sample = -15 + int8((b&0x0F)<<1)
	}

	shift := waveShift[ch.Volume&0x3]
	if shift >= 8 {
		return 0
	}
	return sample >> shift
}

func (s *Synth) renderNoise(st *channelState, ch *audio.Channel) int8 {
	hz := 524288.0 / float64(noiseDividers[ch.NoiseDivider&0x7]) / float64(int(2)<<ch.NoiseShift)
	step := uint32(hz / SampleRate * (1 << 16))
	st.phase += step

	for st.phase >= 1<<16 {
		st.phase -= 1 << 16
		bit0 := st.lfsr & 1
		bit1 := (st.lfsr >> 1) & 1
		xored := bit0 ^ bit1
		st.lfsr >>= 1
		st.lfsr |= xored << 14
		if ch.NoiseWidth7Bit {
			st.lfsr &^= 1 << 6
			st.lfsr |= xored << 6
		}
	}

	if st.lfsr&1 != 0 {
		return 0
	}
	return int8(ch.Volume & 0xF)
}

func clampInt8(v int32) int8 {
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return int8(v)
}
