package cpu

import "github.com/gbslib/gbsplayer/player/addr"

// The handful of opcodes whose encoding doesn't fit one of the regular,
// loop-generated blocks built in mapping.go. Everything else (LD r,r'/r,n,
// INC/DEC r/rr, ALU A,r/A,n, ADD HL,rr, PUSH/POP, JP/JR/CALL/RET[cc], RST,
// and the entire CB table) is filled mechanically from the opcode's bit
// fields, matching how the real instruction set is actually laid out.

func (c *CPU) opNOP() int { return 4 }

func (c *CPU) opLDBCnn() int { c.bc.set(c.fetch16()); return 12 }
func (c *CPU) opLDDEnn() int { c.de.set(c.fetch16()); return 12 }
func (c *CPU) opLDHLnn() int { c.hl.set(c.fetch16()); return 12 }
func (c *CPU) opLDSPnn() int { c.sp = c.fetch16(); return 12 }

func (c *CPU) opLDBCIndA() int { c.bus.Write(c.bc.get(), c.af.getHigh()); return 8 }
func (c *CPU) opLDDEIndA() int { c.bus.Write(c.de.get(), c.af.getHigh()); return 8 }

func (c *CPU) opLDHLIncA() int {
	hl := c.hl.get()
	c.bus.Write(hl, c.af.getHigh())
	c.hl.set(hl + 1)
	return 8
}

func (c *CPU) opLDHLDecA() int {
	hl := c.hl.get()
	c.bus.Write(hl, c.af.getHigh())
	c.hl.set(hl - 1)
	return 8
}

func (c *CPU) opLDABCInd() int { c.af.setHigh(c.bus.Read(c.bc.get())); return 8 }
func (c *CPU) opLDADEInd() int { c.af.setHigh(c.bus.Read(c.de.get())); return 8 }

func (c *CPU) opLDAHLInc() int {
	hl := c.hl.get()
	c.af.setHigh(c.bus.Read(hl))
	c.hl.set(hl + 1)
	return 8
}

func (c *CPU) opLDAHLDec() int {
	hl := c.hl.get()
	c.af.setHigh(c.bus.Read(hl))
	c.hl.set(hl - 1)
	return 8
}

func (c *CPU) opLDNNSP() int {
	address := c.fetch16()
	sp := c.sp
	c.bus.Write(address, uint8(sp))
	c.bus.Write(address+1, uint8(sp>>8))
	return 20
}

func (c *CPU) opRLCA() int { c.af.setHigh(c.rlc(c.af.getHigh())); c.setFlag(flagZero, false); return 4 }
func (c *CPU) opRRCA() int { c.af.setHigh(c.rrc(c.af.getHigh())); c.setFlag(flagZero, false); return 4 }
func (c *CPU) opRLA() int  { c.af.setHigh(c.rl(c.af.getHigh())); c.setFlag(flagZero, false); return 4 }
func (c *CPU) opRRA() int  { c.af.setHigh(c.rr(c.af.getHigh())); c.setFlag(flagZero, false); return 4 }

func (c *CPU) opSTOP() int { c.fetch8(); return 4 }

func (c *CPU) opHALT() int {
	// A real DMG HALT-with-pending-disabled-interrupt bug duplicates the
	// next opcode fetch; GBS drivers rely on HALT purely to idle until the
	// next frame interrupt so we keep the classic behavior for fidelity.
	ifReg := c.bus.Read(addr.IF)
	ieReg := c.bus.Read(addr.IE)
	if !c.ime && ifReg&ieReg&0x1F != 0 {
		c.haltBug = true
	} else {
		c.halted = true
	}
	return 4
}

func (c *CPU) opJRe() int {
	offset := int8(c.fetch8())
	c.pc = uint16(int32(c.pc) + int32(offset))
	return 12
}

func (c *CPU) opDAA() int {
	a := c.af.getHigh()
	adjust := uint8(0)
	carry := c.flag(flagCarry)
	if c.flag(flagHalfCarry) || (!c.flag(flagSubtract) && a&0xF > 9) {
		adjust |= 0x06
	}
	if carry || (!c.flag(flagSubtract) && a > 0x99) {
		adjust |= 0x60
		carry = true
	}
	if c.flag(flagSubtract) {
		a -= adjust
	} else {
		a += adjust
	}
	c.af.setHigh(a)
	c.setFlag(flagZero, a == 0)
	c.setFlag(flagHalfCarry, false)
	c.setFlag(flagCarry, carry)
	return 4
}

func (c *CPU) opCPL() int {
	c.af.setHigh(^c.af.getHigh())
	c.setFlag(flagSubtract, true)
	c.setFlag(flagHalfCarry, true)
	return 4
}

func (c *CPU) opSCF() int {
	c.setFlag(flagSubtract, false)
	c.setFlag(flagHalfCarry, false)
	c.setFlag(flagCarry, true)
	return 4
}

func (c *CPU) opCCF() int {
	c.setFlag(flagSubtract, false)
	c.setFlag(flagHalfCarry, false)
	c.setFlag(flagCarry, !c.flag(flagCarry))
	return 4
}

func (c *CPU) opJPnn() int { c.pc = c.fetch16(); return 16 }

func (c *CPU) opCALLnn() int {
	target := c.fetch16()
	c.push(c.pc)
	c.pc = target
	return 24
}

func (c *CPU) opRET() int { c.pc = c.pop(); return 16 }

func (c *CPU) opRETI() int {
	c.pc = c.pop()
	c.ime = true
	return 16
}

func (c *CPU) opPrefixCB() int {
	opcode := c.fetch8()
	return cbTable[opcode](c)
}

func (c *CPU) opLDHnA() int {
	offset := c.fetch8()
	c.bus.Write(0xFF00+uint16(offset), c.af.getHigh())
	return 12
}

func (c *CPU) opLDCIndA() int { c.bus.Write(0xFF00+uint16(c.bc.getLow()), c.af.getHigh()); return 8 }

func (c *CPU) opADDSPe() int {
	offset := int8(c.fetch8())
	c.sp = c.addSPSigned(offset)
	return 16
}

func (c *CPU) opJPHL() int { c.pc = c.hl.get(); return 4 }

func (c *CPU) opLDnnA() int { c.bus.Write(c.fetch16(), c.af.getHigh()); return 16 }

func (c *CPU) opLDHAn() int {
	offset := c.fetch8()
	c.af.setHigh(c.bus.Read(0xFF00 + uint16(offset)))
	return 12
}

func (c *CPU) opLDACInd() int { c.af.setHigh(c.bus.Read(0xFF00 + uint16(c.bc.getLow()))); return 8 }

func (c *CPU) opDI() int { c.ime = false; c.eiPending = false; return 4 }

func (c *CPU) opLDHLSPe() int {
	offset := int8(c.fetch8())
	c.hl.set(c.addSPSigned(offset))
	return 12
}

func (c *CPU) opLDSPHL() int { c.sp = c.hl.get(); return 8 }

func (c *CPU) opLDAnn() int { c.af.setHigh(c.bus.Read(c.fetch16())); return 16 }

func (c *CPU) opEI() int { c.eiPending = true; return 4 }

// opIllegal covers the handful of opcodes the real LR35902 never defines.
// A well-formed GBS driver never executes one; if it does, treating it as
// a one-byte NOP keeps the interpreter from getting stuck.
func (c *CPU) opIllegal() int { return 4 }
