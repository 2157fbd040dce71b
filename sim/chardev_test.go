package sim

import (
	"bytes"
	"testing"
)

func TestChardevQueuesWithoutHandlers(t *testing.T) {
	chr := NewChardev(nil)

	chr.Feed([]byte("abc"))
	if chr.Pending() != 3 {
		t.Fatalf("pending=%d, want 3", chr.Pending())
	}

	var got []byte
	chr.SetHandlers(func() bool { return true }, func(b byte) { got = append(got, b) }, nil)
	chr.AcceptInput()
	if string(got) != "abc" {
		t.Fatalf("delivered %q, want %q", got, "abc")
	}
}

func TestChardevHonorsFlowControl(t *testing.T) {
	chr := NewChardev(nil)

	room := 2
	var got []byte
	chr.SetHandlers(
		func() bool { return len(got) < room },
		func(b byte) { got = append(got, b) },
		nil,
	)

	chr.Feed([]byte{1, 2, 3, 4})
	if len(got) != 2 || chr.Pending() != 2 {
		t.Fatalf("delivered=%d pending=%d, want 2/2", len(got), chr.Pending())
	}

	room = 4
	chr.AcceptInput()
	if len(got) != 4 || chr.Pending() != 0 {
		t.Fatalf("delivered=%d pending=%d, want 4/0", len(got), chr.Pending())
	}
}

func TestChardevWriteWithoutTransport(t *testing.T) {
	chr := NewChardev(nil)
	if n, err := chr.Write([]byte{1, 2}); n != 2 || err != nil {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestChardevChangeBackendFiresHook(t *testing.T) {
	chr := NewChardev(nil)

	fired := 0
	chr.SetHandlers(nil, nil, func() { fired++ })

	out := new(bytes.Buffer)
	chr.ChangeBackend(out)
	if fired != 1 {
		t.Fatalf("mode-change hook fired %d times, want 1", fired)
	}
	chr.Write([]byte("hi"))
	if out.String() != "hi" {
		t.Fatalf("new transport got %q", out.String())
	}
}
