package sim

import (
	"fmt"
	"os"
)

// Minimal RV32I core, enough to run bare-metal programs that poll the UART
// over MMIO. Any ECALL halts the machine.

type CPU struct {
	Reg   [32]uint32
	PC    uint32
	Bus   *Bus
	Trace bool
}

func NewCPU(bus *Bus) *CPU { return &CPU{Bus: bus} }

func (c *CPU) readReg(i uint32) uint32 {
	if i == 0 {
		return 0
	}
	return c.Reg[i]
}

func (c *CPU) writeReg(i uint32, v uint32) {
	if i != 0 {
		c.Reg[i] = v
	}
}

func (c *CPU) trap(format string, args ...any) bool {
	fmt.Fprintf(os.Stderr, "\n[trap] "+format+"\n", args...)
	return false
}

func (c *CPU) warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[warn] "+format+"\n", args...)
}

// Step fetches, decodes and executes one instruction. It returns false when
// the machine should stop (halt or trap).
func (c *CPU) Step() bool {
	inst, ok := c.Bus.Read32(c.PC)
	if !ok {
		return c.trap("fetch OOB at pc=%08x", c.PC)
	}
	if c.Trace {
		fmt.Fprintf(os.Stderr, "pc=%08x inst=%08x\n", c.PC, inst)
	}

	next := c.PC + 4

	switch opcode(inst) {
	case opLUI:
		c.writeReg(rd(inst), uint32(immU(inst)))
	case opAUIPC:
		c.writeReg(rd(inst), uint32(int32(c.PC)+immU(inst)))
	case opJAL:
		c.writeReg(rd(inst), c.PC+4)
		next = c.PC + uint32(immJ(inst))
	case opJALR:
		tgt := (c.readReg(rs1(inst)) + uint32(immI(inst))) &^ 1
		c.writeReg(rd(inst), c.PC+4)
		next = tgt
	case opBranch:
		if c.branchTaken(inst) {
			next = c.PC + uint32(immB(inst))
		}
	case opLoad:
		if !c.execLoad(inst) {
			return false
		}
	case opStore:
		if !c.execStore(inst) {
			return false
		}
	case opImm:
		c.execOpImm(inst)
	case opReg:
		c.execOp(inst)
	case opSystem:
		// ECALL is a clean halt.
		fmt.Fprintln(os.Stderr, "\n[halt] ECALL")
		return false
	default:
		c.warn("unsupported opcode 0x%x at pc=%08x", opcode(inst), c.PC)
	}

	c.PC = next
	c.Reg[0] = 0
	return true
}

func (c *CPU) branchTaken(inst uint32) bool {
	a := c.readReg(rs1(inst))
	b := c.readReg(rs2(inst))
	switch funct3(inst) {
	case 0x0: // BEQ
		return a == b
	case 0x1: // BNE
		return a != b
	case 0x4: // BLT
		return int32(a) < int32(b)
	case 0x5: // BGE
		return int32(a) >= int32(b)
	case 0x6: // BLTU
		return a < b
	case 0x7: // BGEU
		return a >= b
	default:
		c.warn("BRANCH f3=%d", funct3(inst))
		return false
	}
}

func (c *CPU) execLoad(inst uint32) bool {
	addr := c.readReg(rs1(inst)) + uint32(immI(inst))
	switch funct3(inst) {
	case 0x0: // LB
		b, ok := c.Bus.Read8(addr)
		if !ok {
			return c.trap("LB OOB addr=0x%x", addr)
		}
		c.writeReg(rd(inst), uint32(int32(int8(b))))
	case 0x1: // LH
		h, ok := c.read16(addr)
		if !ok {
			return c.trap("LH OOB addr=0x%x", addr)
		}
		c.writeReg(rd(inst), uint32(int32(int16(h))))
	case 0x2: // LW
		w, ok := c.Bus.Read32(addr)
		if !ok {
			return c.trap("LW OOB addr=0x%x", addr)
		}
		c.writeReg(rd(inst), w)
	case 0x4: // LBU
		b, ok := c.Bus.Read8(addr)
		if !ok {
			return c.trap("LBU OOB addr=0x%x", addr)
		}
		c.writeReg(rd(inst), uint32(b))
	case 0x5: // LHU
		h, ok := c.read16(addr)
		if !ok {
			return c.trap("LHU OOB addr=0x%x", addr)
		}
		c.writeReg(rd(inst), uint32(h))
	default:
		c.warn("LOAD f3=%d", funct3(inst))
	}
	return true
}

func (c *CPU) execStore(inst uint32) bool {
	addr := c.readReg(rs1(inst)) + uint32(immS(inst))
	v := c.readReg(rs2(inst))
	switch funct3(inst) {
	case 0x0: // SB
		if !c.Bus.Write8(addr, uint8(v&0xFF)) {
			return c.trap("SB OOB addr=0x%x", addr)
		}
	case 0x1: // SH
		if !c.Bus.Write8(addr, uint8(v&0xFF)) ||
			!c.Bus.Write8(addr+1, uint8((v>>8)&0xFF)) {
			return c.trap("SH OOB addr=0x%x", addr)
		}
	case 0x2: // SW
		if !c.Bus.Write32(addr, v) {
			return c.trap("SW OOB addr=0x%x", addr)
		}
	default:
		c.warn("STORE f3=%d", funct3(inst))
	}
	return true
}

func (c *CPU) execOpImm(inst uint32) {
	a := c.readReg(rs1(inst))
	imm := uint32(immI(inst))
	switch funct3(inst) {
	case 0x0: // ADDI
		c.writeReg(rd(inst), a+imm)
	case 0x1: // SLLI
		c.writeReg(rd(inst), a<<(imm&0x1F))
	case 0x4: // XORI
		c.writeReg(rd(inst), a^imm)
	case 0x5: // SRLI/SRAI
		// The shift variant lives in the funct7 bits of the immediate.
		switch (imm >> 5) & 0x7F {
		case 0x00:
			c.writeReg(rd(inst), a>>(imm&0x1F))
		case 0x20:
			c.writeReg(rd(inst), uint32(int32(a)>>(imm&0x1F)))
		default:
			c.warn("OP-IMM shift funct7=0x%x", (imm>>5)&0x7F)
		}
	case 0x6: // ORI
		c.writeReg(rd(inst), a|imm)
	case 0x7: // ANDI
		c.writeReg(rd(inst), a&imm)
	default:
		c.warn("OP-IMM f3=%d", funct3(inst))
	}
}

func (c *CPU) execOp(inst uint32) {
	a := c.readReg(rs1(inst))
	b := c.readReg(rs2(inst))
	switch funct3(inst) {
	case 0x0: // ADD/SUB
		if funct7(inst) == 0x20 {
			c.writeReg(rd(inst), a-b)
		} else {
			c.writeReg(rd(inst), a+b)
		}
	case 0x1: // SLL
		c.writeReg(rd(inst), a<<(b&0x1F))
	case 0x2: // SLT
		c.writeReg(rd(inst), boolToReg(int32(a) < int32(b)))
	case 0x3: // SLTU
		c.writeReg(rd(inst), boolToReg(a < b))
	case 0x4: // XOR
		c.writeReg(rd(inst), a^b)
	case 0x5: // SRL/SRA
		if funct7(inst) == 0x20 {
			c.writeReg(rd(inst), uint32(int32(a)>>(b&0x1F)))
		} else {
			c.writeReg(rd(inst), a>>(b&0x1F))
		}
	case 0x6: // OR
		c.writeReg(rd(inst), a|b)
	case 0x7: // AND
		c.writeReg(rd(inst), a&b)
	default:
		c.warn("OP f3=%d f7=0x%x", funct3(inst), funct7(inst))
	}
}

func (c *CPU) read16(addr uint32) (uint16, bool) {
	lo, ok := c.Bus.Read8(addr)
	if !ok {
		return 0, false
	}
	hi, ok := c.Bus.Read8(addr + 1)
	if !ok {
		return 0, false
	}
	return uint16(lo) | uint16(hi)<<8, true
}

func boolToReg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
