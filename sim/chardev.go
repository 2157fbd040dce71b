package sim

import "io"

// Chardev is the host end of a serial line: a device model registers its
// handlers here, the host feeds bytes in and collects bytes out. Inbound
// bytes the device cannot take yet are queued until the device signals room
// with AcceptInput.
type Chardev struct {
	out io.Writer

	canRx      func() bool
	rx         func(b byte)
	modeChange func()

	pending []byte
}

func NewChardev(out io.Writer) *Chardev {
	return &Chardev{out: out}
}

// SetHandlers registers the consuming device's callbacks: a flow-control
// query, a byte sink, and a hook invoked after a backend transport change so
// the device can re-register the set.
func (c *Chardev) SetHandlers(canRx func() bool, rx func(byte), modeChange func()) {
	c.canRx = canRx
	c.rx = rx
	c.modeChange = modeChange
}

// Feed queues inbound host bytes and delivers as many as the device will
// take right now. The rest wait for AcceptInput.
func (c *Chardev) Feed(p []byte) {
	c.pending = append(c.pending, p...)
	c.deliver()
}

// AcceptInput resumes delivery of queued bytes. Devices call it when they
// free buffer space.
func (c *Chardev) AcceptInput() {
	c.deliver()
}

// Pending reports inbound bytes queued but not yet taken by the device.
func (c *Chardev) Pending() int { return len(c.pending) }

func (c *Chardev) deliver() {
	if c.rx == nil {
		return
	}
	for len(c.pending) > 0 {
		if c.canRx != nil && !c.canRx() {
			return
		}
		b := c.pending[0]
		c.pending = c.pending[1:]
		c.rx(b)
	}
}

// Write transmits device output to the host. The line has no flow control
// toward the host, so short writes and errors lose data rather than stall
// the machine.
func (c *Chardev) Write(p []byte) (int, error) {
	if c.out == nil {
		return len(p), nil
	}
	return c.out.Write(p)
}

// ChangeBackend swaps the outbound transport and notifies the device so it
// re-registers its handlers with us.
func (c *Chardev) ChangeBackend(out io.Writer) {
	c.out = out
	if c.modeChange != nil {
		c.modeChange()
	}
}
