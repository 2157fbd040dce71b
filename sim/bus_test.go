package sim

import "testing"

// stubDev records the accesses routed to it.
type stubDev struct {
	lastOff uint32
	lastVal uint32
	rv      uint32
}

func (d *stubDev) Read32(off uint32) uint32 {
	d.lastOff = off
	return d.rv
}

func (d *stubDev) Write32(off uint32, v uint32) {
	d.lastOff = off
	d.lastVal = v
}

func TestBusDispatchesWindowWithRelativeOffset(t *testing.T) {
	bus := NewBus(NewRAM(0x1000))
	dev := &stubDev{rv: 0xCAFEBABE}
	bus.Map(0x2000_0000, 0x100, "stub", dev)

	if v, ok := bus.Read32(0x2000_0040); !ok || v != 0xCAFEBABE {
		t.Fatalf("Read32: v=0x%x ok=%v", v, ok)
	}
	if dev.lastOff != 0x40 {
		t.Fatalf("read offset=0x%x, want 0x40", dev.lastOff)
	}

	if !bus.Write32(0x2000_0008, 0x1234) {
		t.Fatal("Write32 to window failed")
	}
	if dev.lastOff != 0x08 || dev.lastVal != 0x1234 {
		t.Fatalf("write off=0x%x val=0x%x", dev.lastOff, dev.lastVal)
	}
}

func TestBusByteAccessToWindowIsFatal(t *testing.T) {
	bus := NewBus(NewRAM(0x1000))
	bus.Map(UARTBase, UARTSpan, "uart", &stubDev{})

	expectHWError(t, "0x10000000", func() { bus.Read8(UARTBase) })
	expectHWError(t, "0x10000004", func() { bus.Write8(UARTBase+4, 0xFF) })
}

func TestBusUnmappedAccess(t *testing.T) {
	bus := NewBus(NewRAM(0x1000))

	if _, ok := bus.Read32(0x1000); ok {
		t.Fatal("Read32 past RAM succeeded")
	}
	if bus.Write32(0xFFFF_FFF0, 1) {
		t.Fatal("Write32 to unmapped address succeeded")
	}
}

func TestBusRAMWordRoundTrip(t *testing.T) {
	ram := NewRAM(0x1000)
	bus := NewBus(ram)

	if !bus.Write32(0x100, 0x04030201) {
		t.Fatal("Write32 failed")
	}
	// Little-endian byte layout.
	for i, want := range []uint8{1, 2, 3, 4} {
		if got, ok := bus.Read8(0x100 + uint32(i)); !ok || got != want {
			t.Fatalf("byte %d: got 0x%x ok=%v, want 0x%x", i, got, ok, want)
		}
	}
	if v, ok := bus.Read32(0x100); !ok || v != 0x04030201 {
		t.Fatalf("Read32: v=0x%x ok=%v", v, ok)
	}
}

func TestBusStraddlingWordAccessIsFatal(t *testing.T) {
	// RAM big enough that the bytes below the window are backed, so a
	// straddling word would otherwise mix RAM and device bytes.
	ram := NewRAM(0x200)
	bus := NewBus(ram)
	bus.Map(0x100, 0x20, "stub", &stubDev{})

	expectHWError(t, "0xfe", func() { bus.Read32(0x0FE) })
	expectHWError(t, "0xfe", func() { bus.Write32(0x0FE, 1) })
}

func TestBusWindowAtTopOfAddressSpace(t *testing.T) {
	bus := NewBus(NewRAM(0x1000))
	dev := &stubDev{rv: 0x55}
	bus.Map(0xFFFF_FF00, 0x100, "high", dev)

	if v, ok := bus.Read32(0xFFFF_FFFC); !ok || v != 0x55 {
		t.Fatalf("Read32: v=0x%x ok=%v", v, ok)
	}
	if dev.lastOff != 0xFC {
		t.Fatalf("offset=0x%x, want 0xfc", dev.lastOff)
	}
}

func TestBusWrappingWindowIsFatal(t *testing.T) {
	bus := NewBus(NewRAM(0x1000))

	expectHWError(t, "wraps", func() {
		bus.Map(0xFFFF_FFF0, 0x1C, "wrap", &stubDev{})
	})
}

func TestBusOverlappingWindowIsFatal(t *testing.T) {
	bus := NewBus(NewRAM(0x1000))
	bus.Map(0x2000_0000, 0x100, "first", &stubDev{})

	expectHWError(t, "first", func() {
		bus.Map(0x2000_0080, 0x100, "second", &stubDev{})
	})
}
