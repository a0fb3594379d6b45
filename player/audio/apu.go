// Package audio models the DMG Audio Processing Unit's control-register
// state: the four channels' trigger/length/envelope/sweep logic and the
// 512Hz frame sequencer that drives them. It does not generate samples
// itself — player/synth reads this package's channel state each sample
// tick and renders the actual waveform, per the simplified phase-
// accumulator model GBS playback uses instead of period-timer synthesis.
package audio

import (
	"github.com/gbslib/gbsplayer/player/addr"
	"github.com/gbslib/gbsplayer/player/bit"
)

// APU is the Audio Processing Unit of a DMG Game Boy, modeling NR10-NR52
// plus wave RAM and the frame sequencer. It holds the control state of 4
// channels: CH1 (square+sweep), CH2 (square), CH3 (wave), CH4 (noise).
type APU struct {
	enabled           bool
	ch                [4]Channel
	vinLeft, vinRight bool
	volLeft, volRight uint8

	// frame sequencer state
	step int

	// raw memory + registers
	NR10, NR11, NR12, NR13, NR14 uint8
	NR21, NR22, NR23, NR24       uint8
	NR30, NR31, NR32, NR33, NR34 uint8
	NR41, NR42, NR43, NR44       uint8
	NR50, NR51, NR52             uint8
	waveRAM                      [waveRAMSize]uint8
}

// Channel holds one channel's logical/control state: everything derived
// from its NRxx registers except the actual waveform phase, which
// player/synth tracks separately so this package stays a pure register
// model.
type Channel struct {
	Enabled    bool
	DACEnabled bool
	Left       bool
	Right      bool

	Duty   uint8
	Volume uint8
	Period uint16 // 11-bit frequency period, shared meaning for ch1-3

	EnvelopeUp      bool
	EnvelopePace    uint8
	envelopeCounter uint8
	envelopeLatched bool

	LengthEnable bool
	length       uint16

	SweepPeriod  uint8
	SweepDown    bool
	SweepStep    uint8
	sweepEnabled bool
	sweepTimer   uint8
	shadowFreq   uint16
	sweepNegUsed bool

	// NoiseShift/NoiseDivider/NoiseWidth7Bit describe CH4's LFSR clock
	// (NR43); Period is unused for this channel.
	NoiseShift      uint8
	NoiseDivider    uint8
	NoiseWidth7Bit  bool

	// TriggerPulse is set when NRx4's trigger bit is written and stays set
	// until player/synth reads and clears it to reset its phase
	// accumulator on retrigger.
	TriggerPulse bool

	// Debug mute, independent of Enabled/DACEnabled.
	muted bool
}

func New() *APU {
	return &APU{}
}

// StepSequencer advances the frame sequencer by one of its eight 512Hz
// steps. The scheduler calls this directly whenever its own 512Hz
// accumulator crosses a tick boundary.
func (a *APU) StepSequencer() {
	switch a.step {
	case 0:
		a.tickLength()
	case 2:
		a.tickLength()
		a.tickSweep()
	case 4:
		a.tickLength()
	case 6:
		a.tickLength()
		a.tickSweep()
	case 7:
		a.tickEnvelope()
	}

	a.step++
	a.step %= 8
}

func (a *APU) tickLength() {
	for i := range a.ch {
		if a.ch[i].LengthEnable && a.ch[i].length > 0 {
			a.ch[i].length--
			if a.ch[i].length == 0 {
				a.ch[i].Enabled = false
			}
		}
	}
}

func (ch *Channel) checkSweepOverflow() (newFreq uint16, overflow bool) {
	freqChange := ch.shadowFreq >> ch.SweepStep
	if ch.SweepDown {
		if freqChange > ch.shadowFreq {
			newFreq = 0
		} else {
			newFreq = ch.shadowFreq - freqChange
		}
	} else {
		newFreq = ch.shadowFreq + freqChange
	}
	return newFreq, newFreq > 2047
}

func (a *APU) tickSweep() {
	ch := &a.ch[0]
	if !ch.sweepEnabled {
		return
	}

	ch.sweepTimer--
	if ch.sweepTimer > 0 {
		return
	}

	ch.sweepTimer = ch.SweepPeriod
	if ch.sweepTimer == 0 {
		ch.sweepTimer = 8
	}

	if ch.SweepPeriod == 0 {
		return
	}

	newFrequency, overflow := ch.checkSweepOverflow()
	if overflow {
		ch.Enabled = false
		return
	}
	if ch.SweepDown {
		ch.sweepNegUsed = true
	}
	if ch.SweepStep == 0 {
		return
	}
	ch.shadowFreq = newFrequency
	ch.Period = newFrequency
	a.NR14 = (a.NR14 & 0b11111000) | uint8((newFrequency>>8)&0b111)
	a.NR13 = uint8(newFrequency)

	if _, overflow := ch.checkSweepOverflow(); overflow {
		ch.Enabled = false
	}
}

func (a *APU) tickEnvelope() {
	for _, idx := range []int{0, 1, 3} {
		ch := &a.ch[idx]
		if !ch.DACEnabled || ch.envelopeLatched {
			continue
		}

		pace := ch.EnvelopePace
		if pace == 0 {
			pace = 8
		}

		if ch.envelopeCounter == 0 {
			ch.envelopeCounter = pace
		}
		ch.envelopeCounter--
		if ch.envelopeCounter > 0 {
			continue
		}

		if ch.EnvelopeUp {
			if ch.Volume < 15 {
				ch.Volume++
				ch.envelopeCounter = pace
			} else {
				ch.envelopeLatched = true
				ch.envelopeCounter = 0
			}
		} else {
			if ch.Volume > 0 {
				ch.Volume--
				ch.envelopeCounter = pace
			} else {
				ch.envelopeLatched = true
				ch.envelopeCounter = 0
			}
		}
	}
}

// ReadRegister returns the register's externally visible value: raw state
// OR'd with the fixed-one bits in addr.APUReadMask.
func (a *APU) ReadRegister(address uint16) uint8 {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		return a.waveRAM[address-addr.WaveRAMStart]
	}
	if address == addr.NR52 {
		status := addr.APUReadMask[addr.NR52-addr.AudioStart]
		if a.enabled {
			status = bit.Set(7, status)
		}
		for i := range a.ch {
			if a.ch[i].Enabled {
				status = bit.Set(uint8(i), status)
			}
		}
		return status
	}
	return a.rawRegister(address) | addr.APUReadMask[address-addr.AudioStart]
}

func (a *APU) rawRegister(address uint16) uint8 {
	switch address {
	case addr.NR10:
		return a.NR10
	case addr.NR11:
		return a.NR11
	case addr.NR12:
		return a.NR12
	case addr.NR13:
		return a.NR13
	case addr.NR14:
		return a.NR14
	case addr.NR21:
		return a.NR21
	case addr.NR22:
		return a.NR22
	case addr.NR23:
		return a.NR23
	case addr.NR24:
		return a.NR24
	case addr.NR30:
		return a.NR30
	case addr.NR31:
		return a.NR31
	case addr.NR32:
		return a.NR32
	case addr.NR33:
		return a.NR33
	case addr.NR34:
		return a.NR34
	case addr.NR41:
		return a.NR41
	case addr.NR42:
		return a.NR42
	case addr.NR43:
		return a.NR43
	case addr.NR44:
		return a.NR44
	case addr.NR50:
		return a.NR50
	case addr.NR51:
		return a.NR51
	default:
		return 0xFF
	}
}

// WriteRegister applies addr.APUWriteMask to the incoming value (keeping
// whatever bits the register doesn't expose unchanged), stores it, and
// re-derives channel state.
func (a *APU) WriteRegister(address uint16, value uint8) {
	isWaveRAM := address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd

	if !a.enabled && address != addr.NR52 && !isWaveRAM {
		return
	}

	if isWaveRAM {
		a.waveRAM[address-addr.WaveRAMStart] = value
		return
	}

	writable := addr.APUWriteMask[address-addr.AudioStart]
	previous := a.rawRegister(address)
	merged := (value & writable) | (previous &^ writable)

	switch address {
	case addr.NR10:
		a.NR10 = merged
	case addr.NR11:
		a.NR11 = merged
	case addr.NR12:
		a.NR12 = merged
	case addr.NR13:
		a.NR13 = merged
	case addr.NR14:
		a.NR14 = merged
	case addr.NR21:
		a.NR21 = merged
	case addr.NR22:
		a.NR22 = merged
	case addr.NR23:
		a.NR23 = merged
	case addr.NR24:
		a.NR24 = merged
	case addr.NR30:
		a.NR30 = merged
	case addr.NR31:
		a.NR31 = merged
	case addr.NR32:
		a.NR32 = merged
	case addr.NR33:
		a.NR33 = merged
	case addr.NR34:
		a.NR34 = merged
	case addr.NR41:
		a.NR41 = merged
	case addr.NR42:
		a.NR42 = merged
	case addr.NR43:
		a.NR43 = merged
	case addr.NR44:
		a.NR44 = merged
	case addr.NR50:
		a.NR50 = merged
	case addr.NR51:
		a.NR51 = merged
	case addr.NR52:
		a.NR52 = merged
	}

	a.mapRegistersToState()
}

func (a *APU) mapRegistersToState() {
	a.enabled = bit.IsSet(7, a.NR52)
	if !a.enabled {
		a.NR10, a.NR11, a.NR12, a.NR13, a.NR14 = 0, 0, 0, 0, 0
		a.NR21, a.NR22, a.NR23, a.NR24 = 0, 0, 0, 0
		a.NR30, a.NR31, a.NR32, a.NR33, a.NR34 = 0, 0, 0, 0, 0
		a.NR41, a.NR42, a.NR43, a.NR44 = 0, 0, 0, 0
		a.NR50, a.NR51 = 0, 0
		for i := range a.ch {
			a.ch[i].Enabled = false
		}
	}

	for i := range 4 {
		a.ch[i].Right = bit.IsSet(uint8(i), a.NR51)
		a.ch[i].Left = bit.IsSet(uint8(i+4), a.NR51)
	}

	a.vinLeft, a.vinRight = bit.IsSet(7, a.NR50), bit.IsSet(3, a.NR50)
	a.volLeft, a.volRight = bit.ExtractBits(a.NR50, 6, 4), bit.ExtractBits(a.NR50, 2, 0)

	a.mapChannel1()
	a.mapChannel2()
	a.mapChannel3()
	a.mapChannel4()

	// Channel 4's status bit ignores its DAC (see triggerChannel4).
	for i := range 3 {
		if !a.ch[i].DACEnabled {
			a.ch[i].Enabled = false
		}
	}
}

func (a *APU) mapChannel1() {
	ch := &a.ch[0]
	prevSweepDown := ch.SweepDown
	ch.SweepPeriod = bit.ExtractBits(a.NR10, 6, 4)
	ch.SweepDown = bit.IsSet(3, a.NR10)
	ch.SweepStep = bit.ExtractBits(a.NR10, 2, 0)
	if !ch.SweepDown && prevSweepDown && ch.sweepNegUsed && (ch.SweepPeriod > 0 || ch.SweepStep > 0) {
		ch.Enabled = false
	}

	ch.Duty = bit.ExtractBits(a.NR11, 7, 6)
	ch.length = 64 - uint16(bit.ExtractBits(a.NR11, 5, 0))

	ch.Volume = bit.ExtractBits(a.NR12, 7, 4)
	ch.EnvelopeUp = bit.IsSet(3, a.NR12)
	ch.EnvelopePace = bit.ExtractBits(a.NR12, 2, 0)
	ch.DACEnabled = ch.Volume > 0 || ch.EnvelopeUp

	ch.Period = bit.Combine(a.NR14&0b111, a.NR13)

	prevLenEnable := ch.LengthEnable
	lengthBefore := ch.length
	triggered := bit.IsSet(7, a.NR14)
	ch.LengthEnable = bit.IsSet(6, a.NR14)
	if triggered {
		if ch.DACEnabled {
			ch.Enabled = true
		}
		a.triggerChannel(ch, 0)
		ch.sweepEnabled = ch.SweepPeriod > 0 || ch.SweepStep > 0
		ch.sweepTimer = ch.SweepPeriod
		if ch.sweepTimer == 0 {
			ch.sweepTimer = 8
		}
		ch.shadowFreq = ch.Period
		ch.sweepNegUsed = false
		if ch.SweepStep != 0 {
			if ch.SweepDown {
				ch.sweepNegUsed = true
			}
			if _, overflow := ch.checkSweepOverflow(); overflow {
				ch.Enabled = false
			}
		}
		a.NR14 = bit.Reset(7, a.NR14)
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, 0)
}

func (a *APU) mapChannel2() {
	ch := &a.ch[1]
	ch.Duty = bit.ExtractBits(a.NR21, 7, 6)
	ch.length = 64 - uint16(bit.ExtractBits(a.NR21, 5, 0))

	ch.Volume = bit.ExtractBits(a.NR22, 7, 4)
	ch.EnvelopeUp = bit.IsSet(3, a.NR22)
	ch.EnvelopePace = bit.ExtractBits(a.NR22, 2, 0)
	ch.DACEnabled = ch.Volume > 0 || ch.EnvelopeUp

	ch.Period = bit.Combine(a.NR24&0b111, a.NR23)

	prevLenEnable := ch.LengthEnable
	lengthBefore := ch.length
	triggered := bit.IsSet(7, a.NR24)
	ch.LengthEnable = bit.IsSet(6, a.NR24)
	if triggered {
		if ch.DACEnabled {
			ch.Enabled = true
		}
		a.triggerChannel(ch, 1)
		a.NR24 = bit.Reset(7, a.NR24)
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, 1)
}

func (a *APU) mapChannel3() {
	ch := &a.ch[2]
	ch.DACEnabled = bit.IsSet(7, a.NR30)
	ch.length = 256 - uint16(a.NR31)
	ch.Volume = bit.ExtractBits(a.NR32, 6, 5) // output level, not amplitude
	ch.Period = bit.Combine(a.NR34&0b111, a.NR33)

	prevLenEnable := ch.LengthEnable
	lengthBefore := ch.length
	triggered := bit.IsSet(7, a.NR34)
	ch.LengthEnable = bit.IsSet(6, a.NR34)
	if triggered {
		if ch.DACEnabled {
			ch.Enabled = true
		}
		ch.TriggerPulse = true
		a.NR34 = bit.Reset(7, a.NR34)
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 256, 2)
}

func (a *APU) mapChannel4() {
	ch := &a.ch[3]
	ch.length = 64 - uint16(bit.ExtractBits(a.NR41, 5, 0))

	ch.Volume = bit.ExtractBits(a.NR42, 7, 4)
	ch.EnvelopeUp = bit.IsSet(3, a.NR42)
	ch.EnvelopePace = bit.ExtractBits(a.NR42, 2, 0)
	ch.DACEnabled = ch.Volume > 0 || ch.EnvelopeUp

	ch.NoiseShift = bit.ExtractBits(a.NR43, 7, 4)
	ch.NoiseWidth7Bit = bit.IsSet(3, a.NR43)
	ch.NoiseDivider = bit.ExtractBits(a.NR43, 2, 0)

	prevLenEnable := ch.LengthEnable
	lengthBefore := ch.length
	triggered := bit.IsSet(7, a.NR44)
	ch.LengthEnable = bit.IsSet(6, a.NR44)
	if triggered {
		a.triggerChannel4(ch)
		a.NR44 = bit.Reset(7, a.NR44)
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, 3)
}

// triggerChannel applies the common NRx4-trigger bookkeeping shared by
// channels 1, 2 and 4 (channel 3 sets its TriggerPulse inline): reset the
// envelope and signal player/synth to restart its phase accumulator. It does NOT touch ch.Enabled — channels 1-3 only wake
// when their DAC is on, while channel 4 wakes unconditionally (see
// triggerChannel4), so each caller applies its own enable rule before or
// after calling this.
func (a *APU) triggerChannel(ch *Channel, index int) {
	ch.envelopeLatched = false
	if ch.EnvelopePace == 0 {
		ch.envelopeCounter = 8
	} else {
		ch.envelopeCounter = ch.EnvelopePace
	}
	ch.TriggerPulse = true
}

// triggerChannel4 applies channel 4's retrigger bookkeeping. Unlike
// channels 1-3, its NR52 status bit is set unconditionally on retrigger
// regardless of DAC state: peanut_gb.h's noise-channel trigger path has
// its DAC check commented out (`//if(gb->audio.ch4DAC)`), matching real
// hardware's documented quirk that ch4's length counter (and therefore its
// status bit) ignores the DAC gate other channels respect.
func (a *APU) triggerChannel4(ch *Channel) {
	ch.Enabled = true
	a.triggerChannel(ch, 3)
}

// handleLengthEnableTransition mirrors the real hardware's extra-clock
// oddities around enabling length and triggering channels mid-sequencer-
// period (see https://gbdev.io/pandocs/Audio_details.html#obscure-behavior).
func (a *APU) handleLengthEnableTransition(prevEnabled bool, lengthBefore uint16, triggered bool, maxLength uint16, chIdx int) {
	ch := &a.ch[chIdx]
	lengthWasZero := lengthBefore == 0
	clockOnEnable := !prevEnabled && ch.LengthEnable && a.step%2 == 1 && lengthBefore > 0

	if triggered && (lengthWasZero || (clockOnEnable && lengthBefore == 1)) {
		ch.length = maxLength
	}

	if !ch.LengthEnable {
		return
	}

	forceClock := lengthWasZero && triggered && ch.length > 0
	if !forceClock && prevEnabled {
		return
	}

	if a.step%2 == 1 && ch.length > 0 {
		ch.length--
		if ch.length == 0 {
			ch.Enabled = false
		}
	}
}

// Channels exposes the four channels' logical state for player/synth to
// render from; index 0-3 maps to CH1-CH4.
func (a *APU) Channels() *[4]Channel {
	return &a.ch
}

// WaveRAM exposes the 32-nibble wave pattern table for player/synth.
func (a *APU) WaveRAM() *[waveRAMSize]uint8 {
	return &a.waveRAM
}

// MasterVolumes returns NR50's left and right master volume fields (0-7).
func (a *APU) MasterVolumes() (left, right uint8) {
	return a.volLeft, a.volRight
}

// Debug helpers required by Provider.

func (a *APU) ToggleChannel(idx int) {
	if idx < 0 || idx >= 4 {
		return
	}
	a.ch[idx].muted = !a.ch[idx].muted
}

func (a *APU) SoloChannel(channel int) {
	if channel < 0 || channel >= 4 {
		return
	}
	if !a.ch[channel].muted {
		for i := range a.ch {
			a.ch[i].muted = false
		}
	}
	for i := range a.ch {
		a.ch[i].muted = i != channel
	}
}

func (a *APU) GetChannelStatus() (ch1, ch2, ch3, ch4 bool) {
	return a.ch[0].Enabled, a.ch[1].Enabled, a.ch[2].Enabled, a.ch[3].Enabled
}

func (a *APU) Muted(index int) bool {
	return a.ch[index].muted
}
