package sim

import "fmt"

// Simple address map and read/write helpers.
// RAM:       0x0000_0000 .. size-1
// MMIO:      windows registered by each device at wiring time; the UART
//            claims [0x1000_0000, 0x1000_001C).

const UARTBase = 0x10000000

// Device is a word-addressed MMIO peripheral. Offsets are relative to the
// window base; each device owns its own offset decode.
type Device interface {
	Read32(off uint32) uint32
	Write32(off uint32, v uint32)
}

type mmioWindow struct {
	base uint32
	size uint32
	name string
	dev  Device
}

type Bus struct {
	ram     *RAM
	windows []mmioWindow
}

func NewBus(ram *RAM) *Bus {
	return &Bus{ram: ram}
}

// Map registers dev at [base, base+size). Wrapping or overlapping windows
// are a wiring bug, caught immediately. Bounds are computed in uint64 so
// windows at the top of the address space don't wrap.
func (b *Bus) Map(base, size uint32, name string, dev Device) {
	end := uint64(base) + uint64(size)
	if end > 1<<32 {
		hwError("bus: window %q [0x%x, 0x%x) wraps the address space", name, base, end)
	}
	for _, w := range b.windows {
		if uint64(base) < uint64(w.base)+uint64(w.size) && uint64(w.base) < end {
			hwError("bus: window %q [0x%x, 0x%x) overlaps %q", name, base, end, w.name)
		}
	}
	b.windows = append(b.windows, mmioWindow{base: base, size: size, name: name, dev: dev})
}

func (b *Bus) window(addr uint32) *mmioWindow {
	for i := range b.windows {
		w := &b.windows[i]
		if addr >= w.base && uint64(addr) < uint64(w.base)+uint64(w.size) {
			return w
		}
	}
	return nil
}

// Device windows take 4-byte accesses only; a byte access landing in one is
// a bus-decode defect in the caller.

func (b *Bus) Read8(addr uint32) (uint8, bool) {
	if w := b.window(addr); w != nil {
		hwError("bus: %s: bad 1-byte read: addr=0x%x", w.name, addr)
	}
	return b.ram.Read8(addr)
}

func (b *Bus) Write8(addr uint32, v uint8) bool {
	if w := b.window(addr); w != nil {
		hwError("bus: %s: bad 1-byte write: addr=0x%x v=0x%x", w.name, addr, v)
	}
	return b.ram.Write8(addr, v)
}

func (b *Bus) Read32(addr uint32) (uint32, bool) {
	if w := b.window(addr); w != nil {
		return w.dev.Read32(addr - w.base), true
	}
	// A word starting below a window base must not straddle into it.
	if w := b.window(addr + 3); w != nil {
		hwError("bus: %s: misaligned 4-byte read straddles window: addr=0x%x", w.name, addr)
	}

	// Compose 4 bytes from RAM (little-endian)
	b0, ok := b.ram.Read8(addr)
	if !ok {
		return 0, false
	}
	b1, ok := b.ram.Read8(addr + 1)
	if !ok {
		return 0, false
	}
	b2, ok := b.ram.Read8(addr + 2)
	if !ok {
		return 0, false
	}
	b3, ok := b.ram.Read8(addr + 3)
	if !ok {
		return 0, false
	}
	return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24, true
}

func (b *Bus) Write32(addr uint32, v uint32) bool {
	if w := b.window(addr); w != nil {
		w.dev.Write32(addr-w.base, v)
		return true
	}
	if w := b.window(addr + 3); w != nil {
		hwError("bus: %s: misaligned 4-byte write straddles window: addr=0x%x v=0x%x", w.name, addr, v)
	}

	return b.ram.Write8(addr, uint8(v&0xFF)) &&
		b.ram.Write8(addr+1, uint8((v>>8)&0xFF)) &&
		b.ram.Write8(addr+2, uint8((v>>16)&0xFF)) &&
		b.ram.Write8(addr+3, uint8((v>>24)&0xFF))
}

// hwError reports an emulated-hardware programming error, such as an access
// to an unimplemented register, and terminates emulation.
func hwError(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}
