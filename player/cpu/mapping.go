package cpu

// opcodeTable and cbTable are built once at init time: the regular,
// bit-field-driven instruction blocks are generated by loop, and the
// irregular handful are patched in from opcodes.go by name. This keeps
// the same map-based opcode dispatch jeebie uses while avoiding ~400
// nearly identical hand-written functions for blocks that are
// mechanically regular in the real encoding.
var opcodeTable [256]func(*CPU) int
var cbTable [256]func(*CPU) int

func init() {
	for i := range opcodeTable {
		opcodeTable[i] = (*CPU).opIllegal
	}

	opcodeTable[0x00] = (*CPU).opNOP
	opcodeTable[0x01] = (*CPU).opLDBCnn
	opcodeTable[0x11] = (*CPU).opLDDEnn
	opcodeTable[0x21] = (*CPU).opLDHLnn
	opcodeTable[0x31] = (*CPU).opLDSPnn

	opcodeTable[0x02] = (*CPU).opLDBCIndA
	opcodeTable[0x12] = (*CPU).opLDDEIndA
	opcodeTable[0x22] = (*CPU).opLDHLIncA
	opcodeTable[0x32] = (*CPU).opLDHLDecA

	opcodeTable[0x0A] = (*CPU).opLDABCInd
	opcodeTable[0x1A] = (*CPU).opLDADEInd
	opcodeTable[0x2A] = (*CPU).opLDAHLInc
	opcodeTable[0x3A] = (*CPU).opLDAHLDec

	opcodeTable[0x08] = (*CPU).opLDNNSP

	opcodeTable[0x07] = (*CPU).opRLCA
	opcodeTable[0x0F] = (*CPU).opRRCA
	opcodeTable[0x17] = (*CPU).opRLA
	opcodeTable[0x1F] = (*CPU).opRRA

	opcodeTable[0x10] = (*CPU).opSTOP
	opcodeTable[0x76] = (*CPU).opHALT
	opcodeTable[0x18] = (*CPU).opJRe
	opcodeTable[0x27] = (*CPU).opDAA
	opcodeTable[0x2F] = (*CPU).opCPL
	opcodeTable[0x37] = (*CPU).opSCF
	opcodeTable[0x3F] = (*CPU).opCCF

	opcodeTable[0xC3] = (*CPU).opJPnn
	opcodeTable[0xCD] = (*CPU).opCALLnn
	opcodeTable[0xC9] = (*CPU).opRET
	opcodeTable[0xD9] = (*CPU).opRETI
	opcodeTable[0xCB] = (*CPU).opPrefixCB

	opcodeTable[0xE0] = (*CPU).opLDHnA
	opcodeTable[0xE2] = (*CPU).opLDCIndA
	opcodeTable[0xE8] = (*CPU).opADDSPe
	opcodeTable[0xE9] = (*CPU).opJPHL
	opcodeTable[0xEA] = (*CPU).opLDnnA

	opcodeTable[0xF0] = (*CPU).opLDHAn
	opcodeTable[0xF2] = (*CPU).opLDACInd
	opcodeTable[0xF3] = (*CPU).opDI
	opcodeTable[0xF8] = (*CPU).opLDHLSPe
	opcodeTable[0xF9] = (*CPU).opLDSPHL
	opcodeTable[0xFA] = (*CPU).opLDAnn
	opcodeTable[0xFB] = (*CPU).opEI

	// INC rr / DEC rr, regular group indexed by (opcode>>4)&3.
	for i := uint8(0); i < 4; i++ {
		rp := i
		opcodeTable[0x03+i<<4] = func(c *CPU) int { c.writeReg16(rp, c.readReg16(rp)+1); return 8 }
		opcodeTable[0x0B+i<<4] = func(c *CPU) int { c.writeReg16(rp, c.readReg16(rp)-1); return 8 }
		opcodeTable[0x09+i<<4] = func(c *CPU) int { c.addHL(c.readReg16(rp)); return 8 }
	}

	// INC r / DEC r / LD r,n, regular group indexed by (opcode>>3)&7.
	for i := uint8(0); i < 8; i++ {
		reg := i
		base := i << 3
		incCycles, decCycles, ldCycles := 4, 4, 8
		if reg == regHLIndirect {
			incCycles, decCycles, ldCycles = 12, 12, 12
		}
		opcodeTable[0x04+base] = func(c *CPU) int {
			c.writeReg8(reg, c.incVal(c.readReg8(reg)))
			return incCycles
		}
		opcodeTable[0x05+base] = func(c *CPU) int {
			c.writeReg8(reg, c.decVal(c.readReg8(reg)))
			return decCycles
		}
		opcodeTable[0x06+base] = func(c *CPU) int {
			c.writeReg8(reg, c.fetch8())
			return ldCycles
		}
	}

	// JR cc,e / RET cc / JP cc,nn / CALL cc,nn, regular group indexed by
	// (opcode>>3)&3.
	for i := uint8(0); i < 4; i++ {
		cond := i
		base := i << 3
		opcodeTable[0x20+base] = func(c *CPU) int {
			offset := int8(c.fetch8())
			if !c.checkCondition(cond) {
				return 8
			}
			c.pc = uint16(int32(c.pc) + int32(offset))
			return 12
		}
		opcodeTable[0xC0+base] = func(c *CPU) int {
			if !c.checkCondition(cond) {
				return 8
			}
			c.pc = c.pop()
			return 20
		}
		opcodeTable[0xC2+base] = func(c *CPU) int {
			target := c.fetch16()
			if !c.checkCondition(cond) {
				return 12
			}
			c.pc = target
			return 16
		}
		opcodeTable[0xC4+base] = func(c *CPU) int {
			target := c.fetch16()
			if !c.checkCondition(cond) {
				return 12
			}
			c.push(c.pc)
			c.pc = target
			return 24
		}
	}

	// PUSH rr2 / POP rr2, regular group indexed by (opcode>>4)&3 over the
	// AF-bearing pair encoding.
	for i := uint8(0); i < 4; i++ {
		rp := i
		opcodeTable[0xC1+rp<<4] = func(c *CPU) int { c.writeReg16Stack(rp, c.pop()); return 12 }
		opcodeTable[0xC5+rp<<4] = func(c *CPU) int { c.push(c.readReg16Stack(rp)); return 16 }
	}

	// RST n, regular group indexed by (opcode>>3)&7, target relocated by
	// the driver's load address.
	for i := uint8(0); i < 8; i++ {
		vector := uint16(i) * 8
		opcodeTable[0xC7+i<<3] = func(c *CPU) int {
			c.push(c.pc)
			c.pc = c.rstTarget(vector)
			return 16
		}
	}

	// LD r,r', the fully regular 0x40-0x7F block (0x76 is HALT, patched
	// above).
	for dst := uint8(0); dst < 8; dst++ {
		for src := uint8(0); src < 8; src++ {
			opcode := 0x40 + dst<<3 + src
			if opcode == 0x76 {
				continue
			}
			d, s := dst, src
			cycles := 4
			if d == regHLIndirect || s == regHLIndirect {
				cycles = 8
			}
			opcodeTable[opcode] = func(c *CPU) int {
				c.writeReg8(d, c.readReg8(s))
				return cycles
			}
		}
	}

	// ALU A,r (0x80-0xBF) and ALU A,n (0xC6.. step 8), regular group
	// indexed by (opcode>>3)&7 for the operation and opcode&7 for the
	// register operand.
	aluOps := [8]func(*CPU, uint8){
		func(c *CPU, v uint8) { c.aluAdd(v, false) },
		func(c *CPU, v uint8) { c.aluAdd(v, true) },
		func(c *CPU, v uint8) { c.af.setHigh(c.aluSub(v, false)) },
		func(c *CPU, v uint8) { c.af.setHigh(c.aluSub(v, true)) },
		func(c *CPU, v uint8) { c.aluAnd(v) },
		func(c *CPU, v uint8) { c.aluXor(v) },
		func(c *CPU, v uint8) { c.aluOr(v) },
		func(c *CPU, v uint8) { c.aluCp(v) },
	}
	for op := uint8(0); op < 8; op++ {
		fn := aluOps[op]
		for reg := uint8(0); reg < 8; reg++ {
			r := reg
			cycles := 4
			if r == regHLIndirect {
				cycles = 8
			}
			opcodeTable[0x80+op<<3+r] = func(c *CPU) int {
				fn(c, c.readReg8(r))
				return cycles
			}
		}
		opcodeTable[0xC6+op<<3] = func(c *CPU) int {
			fn(c, c.fetch8())
			return 8
		}
	}

	buildCBTable()
}

func buildCBTable() {
	shiftOps := [8]func(*CPU, uint8) uint8{
		(*CPU).rlc, (*CPU).rrc, (*CPU).rl, (*CPU).rr,
		(*CPU).sla, (*CPU).sra, (*CPU).swap, (*CPU).srl,
	}
	for op := uint8(0); op < 8; op++ {
		fn := shiftOps[op]
		for reg := uint8(0); reg < 8; reg++ {
			r := reg
			cycles := 8
			if r == regHLIndirect {
				cycles = 16
			}
			cbTable[uint16(op)<<3|uint16(r)] = func(c *CPU) int {
				c.writeReg8(r, fn(c, c.readReg8(r)))
				return cycles
			}
		}
	}
	for bit := uint8(0); bit < 8; bit++ {
		b := bit
		for reg := uint8(0); reg < 8; reg++ {
			r := reg
			cycles := 8
			if r == regHLIndirect {
				cycles = 12
			}
			cbTable[0x40+uint16(b)<<3|uint16(r)] = func(c *CPU) int {
				c.bitTest(b, c.readReg8(r))
				return cycles
			}
			cbTable[0x80+uint16(b)<<3|uint16(r)] = func(c *CPU) int {
				c.writeReg8(r, c.readReg8(r)&^(1<<b))
				if r == regHLIndirect {
					return 16
				}
				return 8
			}
			cbTable[0xC0+uint16(b)<<3|uint16(r)] = func(c *CPU) int {
				c.writeReg8(r, c.readReg8(r)|1<<b)
				if r == regHLIndirect {
					return 16
				}
				return 8
			}
		}
	}
}

// execute runs the given already-fetched opcode and returns its cycle cost.
func (c *CPU) execute(opcode uint8) int {
	return opcodeTable[opcode](c)
}
