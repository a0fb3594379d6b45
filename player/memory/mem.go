// Package memory implements the memory map a GBS driver runs against: a
// bank-switched 128KiB ROM image behind the classic MBC1-style bank-select
// writes (player/gbsfile.MaxROMSize, grounded on peanut_gb.h's __gb_read /
// __gb_write), an 8KiB cartridge-RAM window gated by the RAM-enable write,
// an APU register window, a DIV/TIMA/TMA/TAC timer, and an LCD-stub clock
// whose only job is to raise a VBLANK edge on a steady cadence so the
// driver's frame callback has something to wait on.
package memory

import (
	"fmt"
	"log/slog"

	"github.com/gbslib/gbsplayer/player/addr"
	"github.com/gbslib/gbsplayer/player/audio"
	"github.com/gbslib/gbsplayer/player/bit"
	"github.com/gbslib/gbsplayer/player/gbsfile"
)

// cyclesPerScanline and scanlinesPerFrame reproduce the real DMG's 70224
// T-cycles-per-frame LCD timing; nothing here drives actual pixels, it
// exists purely to pace VBLANK the way a real frame interrupt would.
const (
	cyclesPerScanline = 456
	scanlinesPerFrame = 154
	vblankLine        = 144
)

// MMU is the GBS player's memory unit: a bank-switched 128KiB ROM image
// pre-loaded with the driver's relocated code, a 64KiB address-space image
// backing RAM/echo/HRAM, an 8KiB cart-RAM window, plus the handful of
// registers playback actually touches.
type MMU struct {
	rom [gbsfile.MaxROMSize]byte
	mem [0x10000]byte
	ram [addr.CartRAMEnd - addr.CartRAMStart + 1]byte
	APU *audio.APU

	// selectedROMBank is the bank currently windowed into 0x4000-0x7FFF,
	// matching peanut_gb.h's gb->selected_rom_bank. Bank 0 aliases to
	// bank 1, same as real MBC1 hardware.
	selectedROMBank uint8
	// ramBank is recorded for fidelity with gb->cart_ram_bank but only a
	// single 8KiB cart-RAM bank is physically backed: GBS songs never
	// rely on cart-RAM bank switching, only on the enable gate.
	ramBank    uint8
	ramEnabled bool

	timer Timer

	lcdCycles int
	lcdLine   int

	// frameReady latches true for exactly one Tick window per VBLANK edge;
	// the scheduler polls and clears it once per rendered frame.
	frameReady bool
}

// New creates an MMU with the given ROM image already placed at its final
// address (player/gbsfile.Parse does the relocation).
func New(rom [gbsfile.MaxROMSize]byte) *MMU {
	m := &MMU{rom: rom, selectedROMBank: 1, APU: audio.New()}
	m.timer.TimerInterruptHandler = func() { m.RequestInterrupt(addr.TimerInterrupt) }
	return m
}

// Tick advances the timer and LCD-stub clock by the given T-cycle count.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
	m.tickLCDStub(cycles)
}

func (m *MMU) tickLCDStub(cycles int) {
	m.lcdCycles += cycles
	for m.lcdCycles >= cyclesPerScanline {
		m.lcdCycles -= cyclesPerScanline
		m.lcdLine++
		if m.lcdLine == vblankLine {
			m.frameReady = true
			m.RequestInterrupt(addr.VBlankInterrupt)
		}
		if m.lcdLine >= scanlinesPerFrame {
			m.lcdLine = 0
		}
	}
}

// PrimeFrameEdge forces the next VBLANK edge to fire immediately. It
// implements the CPU's "driver fell off the end of its frame callback"
// guard (player/cpu.guardFrameEdge): rather than let the stub clock run
// out its remaining scanlines, we jump straight to the edge so playback
// doesn't stall waiting on a line count that no longer matters.
func (m *MMU) PrimeFrameEdge() {
	m.lcdLine = vblankLine
	m.lcdCycles = 0
	m.frameReady = true
	m.RequestInterrupt(addr.VBlankInterrupt)
}

// ConsumeFrameEdge reports whether a VBLANK edge has fired since the last
// call, clearing the latch. The scheduler polls this after every CPU step;
// a true result marks the end of one ~60Hz driver frame.
func (m *MMU) ConsumeFrameEdge() bool {
	ready := m.frameReady
	m.frameReady = false
	return ready
}

// SetTimerSeed initializes the internal timer divider counter (the source
// of DIV) to seed. TMA/TAC are set separately through Write.
func (m *MMU) SetTimerSeed(seed uint16) {
	m.timer.SetSeed(seed)
}

// RequestInterrupt sets the corresponding bit of the IF register.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	flags := m.Read(addr.IF)

	var bitPos uint8
	switch interrupt {
	case addr.VBlankInterrupt:
		bitPos = 0
	case addr.LCDSTATInterrupt:
		bitPos = 1
	case addr.TimerInterrupt:
		bitPos = 2
	case addr.SerialInterrupt:
		bitPos = 3
	case addr.JoypadInterrupt:
		bitPos = 4
	default:
		panic(fmt.Sprintf("memory: unknown interrupt 0x%02X", uint8(interrupt)))
	}

	m.Write(addr.IF, bit.Set(bitPos, flags))
}

func isAPURegister(address uint16) bool {
	return address >= addr.AudioStart && address <= addr.AudioEnd
}

func isTimerRegister(address uint16) bool {
	return address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC
}

// Read returns the byte at address, routing the banked ROM, cart-RAM,
// APU/timer/interrupt registers and the LCD-stub LY counter through their
// owners instead of the flat backing array.
func (m *MMU) Read(address uint16) byte {
	switch {
	case address <= addr.ROMBank0End:
		return m.rom[address]
	case address <= addr.ROMBankNEnd:
		return m.rom[int(address)+(int(m.selectedROMBank)-1)*addr.ROMBankSize]
	case address >= addr.CartRAMStart && address <= addr.CartRAMEnd:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.ram[address-addr.CartRAMStart]
	case isAPURegister(address):
		return m.APU.ReadRegister(address)
	case isTimerRegister(address):
		return m.timer.Read(address)
	case address == addr.IF:
		// Upper 3 bits of IF always read back as 1; several drivers poll
		// this register waiting for it to go non-zero and a stray 0 in
		// those bits would read as "no interrupt pending" forever.
		return m.mem[address] | 0xE0
	case address == addr.LY:
		return uint8(m.lcdLine)
	default:
		return m.mem[address]
	}
}

// Write stores value at address, applying the same region routing as Read.
// Writes into the ROM area are bank-select/RAM-enable writes, matching
// __gb_write's switch on addr>>12 in peanut_gb.h: GBS drivers essentially
// never hit these, but the memory unit supports them so a driver that does
// bank-switch (or probes for cart RAM) behaves the same as on hardware.
func (m *MMU) Write(address uint16, value byte) {
	switch {
	case address <= addr.RAMEnableEnd:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= addr.ROMBankSelectEnd:
		m.selectedROMBank = (value & 0x1F) | (m.selectedROMBank & 0x60)
		if m.selectedROMBank&0x1F == 0 {
			m.selectedROMBank++
		}
	case address <= addr.RAMBankSelectEnd:
		m.ramBank = value & 0x03
		m.selectedROMBank = (m.ramBank << 5) | (m.selectedROMBank & 0x1F)
	case address <= addr.ModeSelectEnd:
		// Mode-select (MBC1 simple/advanced banking): GBS playback never
		// needs the advanced mode's RAM-bank remap, so the bit is accepted
		// and otherwise unused.
	case address >= addr.CartRAMStart && address <= addr.CartRAMEnd:
		if m.ramEnabled {
			m.ram[address-addr.CartRAMStart] = value
		}
	case isAPURegister(address):
		m.APU.WriteRegister(address, value)
	case isTimerRegister(address):
		m.timer.Write(address, value)
	case address == addr.IF:
		m.mem[address] = value | 0xE0
	case address == addr.LY:
		slog.Debug("write to read-only LY ignored", "value", value)
	default:
		m.mem[address] = value
	}
}
