package sim

import (
	"fmt"
	"os"
)

// RAM is flat byte-addressable memory starting at physical address 0.
type RAM struct {
	data []byte
}

func NewRAM(size uint64) *RAM {
	return &RAM{data: make([]byte, size)}
}

func (r *RAM) Size() uint32 { return uint32(len(r.data)) }

func (r *RAM) Read8(addr uint32) (uint8, bool) {
	if uint64(addr) >= uint64(len(r.data)) {
		return 0, false
	}
	return r.data[addr], true
}

func (r *RAM) Write8(addr uint32, v uint8) bool {
	if uint64(addr) >= uint64(len(r.data)) {
		return false
	}
	r.data[addr] = v
	return true
}

// WriteBytes copies p into RAM starting at base (used by loaders and tests).
func (r *RAM) WriteBytes(base uint32, p []byte) error {
	end := uint64(base) + uint64(len(p))
	if end > uint64(len(r.data)) {
		return fmt.Errorf("write of %d bytes at 0x%x exceeds RAM size 0x%x",
			len(p), base, len(r.data))
	}
	copy(r.data[base:end], p)
	return nil
}

// LoadFlat reads a raw binary image and places it at base.
func (r *RAM) LoadFlat(path string, base uint32) error {
	img, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return r.WriteBytes(base, img)
}
