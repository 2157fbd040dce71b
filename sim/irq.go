package sim

// IRQ is a level-held interrupt line. Devices raise and lower it; whoever
// owns the machine decides what a raised line means. Set is idempotent:
// OnChange fires only when the level actually flips.
type IRQ struct {
	name  string
	level bool

	// OnChange, if set, is invoked with the new level after each change.
	OnChange func(level bool)
}

func NewIRQ(name string) *IRQ {
	return &IRQ{name: name}
}

func (q *IRQ) Name() string { return q.name }

func (q *IRQ) Level() bool { return q.level }

func (q *IRQ) Raise() { q.Set(true) }

func (q *IRQ) Lower() { q.Set(false) }

func (q *IRQ) Set(level bool) {
	if q.level == level {
		return
	}
	q.level = level
	if q.OnChange != nil {
		q.OnChange(level)
	}
}
