package sim

import (
	"fmt"
	"os"
)

// UART models the memory-mapped UART of SiFive E/U-series SoCs: an 8-byte
// receive FIFO with a receive-watermark interrupt, and an unbuffered
// synchronous transmit path. The TX FIFO, TX watermark interrupts and baud
// pacing of the real part are not modeled; DIV and the control registers are
// stored but never act.

// Register offsets within the UART's MMIO window.
const (
	UARTRegRXFIFO = 0x00
	UARTRegTXFIFO = 0x04
	UARTRegIE     = 0x08
	UARTRegIP     = 0x0C
	UARTRegTXCTRL = 0x10
	UARTRegRXCTRL = 0x14
	UARTRegDIV    = 0x18

	// UARTSpan is the size of the register window.
	UARTSpan = 0x1C
)

// Interrupt enable/pending bits (same positions as the hardware).
const (
	UARTIETXWM = 1 << 0 // stored, never acts: no TX FIFO is modeled
	UARTIERXWM = 1 << 1
	UARTIPRXWM = 1 << 1
)

// UARTRxEmpty is returned by an RXFIFO read when no byte is buffered.
const UARTRxEmpty uint32 = 0x80000000

const uartRxFIFOCap = 8

type UART struct {
	rxFIFO [uartRxFIFOCap]byte
	rxLen  int

	ie     uint32
	txctrl uint32
	rxctrl uint32
	div    uint32

	// Borrowed from the machine; the UART never closes or frees them.
	chr *Chardev
	irq *IRQ
}

// NewUART wires a UART into the machine: registers its window on the bus at
// [base, base+UARTSpan) and installs its handlers on the character backend.
// All registers start zeroed and the FIFO empty.
func NewUART(bus *Bus, base uint32, chr *Chardev, irq *IRQ) *UART {
	u := &UART{chr: chr, irq: irq}
	bus.Map(base, UARTSpan, "uart", u)
	u.installHandlers()
	return u
}

// installHandlers (re)registers the UART's callbacks with the backend. It is
// also the backend's mode-change hook, so after a transport change the new
// transport keeps calling back into the same device. Idempotent.
func (u *UART) installHandlers() {
	if u.chr == nil {
		return
	}
	u.chr.SetHandlers(u.canReceive, u.receive, u.installHandlers)
}

// updateIRQ sets the line as a pure function of (ie, rxLen).
func (u *UART) updateIRQ() {
	if u.irq == nil {
		return
	}
	u.irq.Set(u.ie&UARTIERXWM != 0 && u.rxLen > 0)
}

// canReceive answers the backend's flow-control query.
func (u *UART) canReceive() bool {
	return u.rxLen < uartRxFIFOCap
}

// receive takes one inbound byte from the backend. On overrun the byte is
// dropped with a warning; real hardware loses data the same way.
func (u *UART) receive(b byte) {
	if u.rxLen >= uartRxFIFOCap {
		fmt.Fprintf(os.Stderr, "[warn] uart: rx overrun, dropped byte 0x%02x\n", b)
		return
	}
	u.rxFIFO[u.rxLen] = b
	u.rxLen++
	u.updateIRQ()
}

func (u *UART) Read32(off uint32) uint32 {
	switch off {
	case UARTRegRXFIFO:
		if u.rxLen == 0 {
			return UARTRxEmpty
		}
		b := u.rxFIFO[0]
		copy(u.rxFIFO[:], u.rxFIFO[1:u.rxLen])
		u.rxLen--
		if u.chr != nil {
			u.chr.AcceptInput() // a slot freed up; backend may resume
		}
		u.updateIRQ()
		return uint32(b)
	case UARTRegTXFIFO:
		return 0 // no TX FIFO modeled; reads as never-full
	case UARTRegIE:
		return u.ie
	case UARTRegIP:
		if u.rxLen > 0 {
			return UARTIPRXWM
		}
		return 0
	case UARTRegTXCTRL:
		return u.txctrl
	case UARTRegRXCTRL:
		return u.rxctrl
	case UARTRegDIV:
		return u.div
	}
	hwError("uart: bad read: addr=0x%x", off)
	return 0
}

func (u *UART) Write32(off uint32, v uint32) {
	switch off {
	case UARTRegTXFIFO:
		if u.chr != nil {
			u.chr.Write([]byte{byte(v)})
		}
	case UARTRegIE:
		u.ie = v
		u.updateIRQ()
	case UARTRegTXCTRL:
		u.txctrl = v
	case UARTRegRXCTRL:
		u.rxctrl = v
	case UARTRegDIV:
		u.div = v
	default:
		hwError("uart: bad write: addr=0x%x v=0x%x", off, v)
	}
}
