package audio

import (
	"testing"

	"github.com/gbslib/gbsplayer/player/addr"
	"github.com/stretchr/testify/assert"
)

func powerOn(a *APU) {
	a.WriteRegister(addr.NR52, 0x80)
}

func TestWriteRegister_IgnoredWhilePoweredOff(t *testing.T) {
	a := New()
	a.WriteRegister(addr.NR11, 0xFF)
	assert.Equal(t, uint8(0), a.rawRegister(addr.NR11))
}

func TestWriteRegister_NR52PowerOnEnablesWrites(t *testing.T) {
	a := New()
	powerOn(a)
	a.WriteRegister(addr.NR11, 0x3F)
	assert.Equal(t, uint8(0x3F), a.rawRegister(addr.NR11))
}

func TestReadRegister_UnusedBitsReadAsOne(t *testing.T) {
	a := New()
	powerOn(a)
	a.WriteRegister(addr.NR10, 0x00)
	assert.Equal(t, uint8(0b1000_0000), a.ReadRegister(addr.NR10))
}

func TestTriggerChannel1_EnablesWhenDACOn(t *testing.T) {
	a := New()
	powerOn(a)
	a.WriteRegister(addr.NR12, 0xF0) // max initial volume -> DAC on
	a.WriteRegister(addr.NR14, 0x80) // trigger
	ch1, _, _, _ := a.GetChannelStatus()
	assert.True(t, ch1)
	assert.True(t, a.Channels()[0].TriggerPulse)
}

func TestTriggerChannel1_StaysOffWithoutDAC(t *testing.T) {
	a := New()
	powerOn(a)
	a.WriteRegister(addr.NR12, 0x00) // volume 0, envelope down -> DAC off
	a.WriteRegister(addr.NR14, 0x80)
	ch1, _, _, _ := a.GetChannelStatus()
	assert.False(t, ch1)
}

func TestLengthCounter_DisablesChannelAtZero(t *testing.T) {
	a := New()
	powerOn(a)
	a.WriteRegister(addr.NR12, 0xF0)
	a.WriteRegister(addr.NR11, 0x3F) // length = 64-63 = 1
	a.WriteRegister(addr.NR14, 0xC0) // trigger + length enable
	ch1, _, _, _ := a.GetChannelStatus()
	assert.True(t, ch1)

	// The first call runs sequencer step 0, which clocks the length from 1
	// to 0 and disables the channel; the second (step 1) clocks nothing.
	a.StepSequencer()
	a.StepSequencer()
	ch1, _, _, _ = a.GetChannelStatus()
	assert.False(t, ch1)
}

func TestNR52PowerOff_ClearsRegistersAndChannels(t *testing.T) {
	a := New()
	powerOn(a)
	a.WriteRegister(addr.NR12, 0xF0)
	a.WriteRegister(addr.NR14, 0x80)

	a.WriteRegister(addr.NR52, 0x00)

	assert.Equal(t, uint8(0), a.rawRegister(addr.NR12))
	ch1, ch2, ch3, ch4 := a.GetChannelStatus()
	assert.False(t, ch1 || ch2 || ch3 || ch4)
}

func TestToggleAndSoloChannel(t *testing.T) {
	a := New()
	a.ToggleChannel(0)
	assert.True(t, a.Muted(0))
	a.ToggleChannel(0)
	assert.False(t, a.Muted(0))

	a.SoloChannel(2)
	assert.True(t, a.Muted(0))
	assert.True(t, a.Muted(1))
	assert.False(t, a.Muted(2))
	assert.True(t, a.Muted(3))
}

func TestWaveChannel_TriggerSetsEnabledWhenDACOn(t *testing.T) {
	a := New()
	powerOn(a)
	a.WriteRegister(addr.NR30, 0x80) // DAC on
	a.WriteRegister(addr.NR34, 0x80) // trigger
	_, _, ch3, _ := a.GetChannelStatus()
	assert.True(t, ch3)
}

func TestNoiseChannel_TriggerEnablesRegardlessOfDAC(t *testing.T) {
	a := New()
	powerOn(a)
	a.WriteRegister(addr.NR42, 0x00) // volume 0, envelope down -> DAC off
	a.WriteRegister(addr.NR44, 0x80) // trigger
	_, _, _, ch4 := a.GetChannelStatus()
	assert.True(t, ch4, "channel 4's status bit is set on retrigger even with its DAC off")
	assert.True(t, a.Channels()[3].TriggerPulse)
}

func TestNoiseChannel_TriggerEnablesWhenDACOn(t *testing.T) {
	a := New()
	powerOn(a)
	a.WriteRegister(addr.NR42, 0xF0) // max initial volume -> DAC on
	a.WriteRegister(addr.NR44, 0x80) // trigger
	_, _, _, ch4 := a.GetChannelStatus()
	assert.True(t, ch4)
}
