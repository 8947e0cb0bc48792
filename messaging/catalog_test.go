package messaging

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testMessage(t *testing.T, name string, id uint32) *Message {
	t.Helper()
	m := NewMessage(name, id)
	mustAdd(t, m, mustSignal(t, "value", 8), 0)
	return m
}

func TestCatalog_AddDuplicateName(t *testing.T) {
	c := NewCatalog()
	if err := c.AddMessage(testMessage(t, "engine", 0x100)); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}
	err := c.AddMessage(testMessage(t, "engine", 0x200))
	if !errors.Is(err, ErrDuplicateMessage) {
		t.Fatalf("expected ErrDuplicateMessage, got %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestCatalog_AddEqualContentDistinctNames(t *testing.T) {
	c := NewCatalog()
	for _, name := range []string{"a", "b"} {
		if err := c.AddMessage(testMessage(t, name, 0x100)); err != nil {
			t.Fatalf("AddMessage(%s): %v", name, err)
		}
	}
	if diff := cmp.Diff([]string{"a", "b"}, c.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog_Remove(t *testing.T) {
	c := NewCatalog()
	m := testMessage(t, "engine", 0x100)
	if err := c.AddMessage(m); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}
	if err := c.RemoveMessage(m); err != nil {
		t.Fatalf("RemoveMessage: %v", err)
	}
	if err := c.RemoveMessage(m); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
	if _, ok := c.LookupMessage("engine"); ok {
		t.Fatal("removed message still found")
	}
	// the name is free again
	if err := c.AddMessage(m); err != nil {
		t.Fatalf("re-add: %v", err)
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := NewCatalog()
	engine := testMessage(t, "engine", 0x100)
	brake := testMessage(t, "brake", 0x200)
	_ = c.AddMessage(engine)
	_ = c.AddMessage(brake)

	if got, ok := c.LookupMessage("brake"); !ok || got != brake {
		t.Fatal("LookupMessage(brake) failed")
	}
	if got, ok := c.LookupMessage("steering"); ok || got != nil {
		t.Fatal("expected absent message")
	}
	if got, ok := c.LookupID(0x100); !ok || got != engine {
		t.Fatal("LookupID(0x100) failed")
	}
	if msgs := c.Messages(); len(msgs) != 2 || msgs[0] != engine || msgs[1] != brake {
		t.Fatalf("Messages() = %v", msgs)
	}
}

func TestCatalog_Decode(t *testing.T) {
	c := NewCatalog()
	first := testMessage(t, "first", 0x100)
	second := testMessage(t, "second", 0x100)
	_ = c.AddMessage(first)
	_ = c.AddMessage(second)

	msg, ok, err := c.Decode(frameOf(0x100, 0x2A))
	if err != nil || !ok {
		t.Fatalf("Decode: ok=%v err=%v", ok, err)
	}
	if msg != first {
		t.Fatalf("dispatched to %s, want first", msg.Name())
	}
	if v, _ := first.LookupSignal("value"); v.RawValue() != 0x2A {
		t.Fatalf("raw = %#x", v.RawValue())
	}
	if v, _ := second.LookupSignal("value"); v.RawValue() != 0 {
		t.Fatal("second message decoded too")
	}
}

func TestCatalog_DecodeUnknownID(t *testing.T) {
	c := NewCatalog()
	_ = c.AddMessage(testMessage(t, "engine", 0x100))

	msg, ok, err := c.Decode(frameOf(0x7FF, 0x01))
	if err != nil || ok || msg != nil {
		t.Fatalf("unknown id: msg=%v ok=%v err=%v", msg, ok, err)
	}
	d, ok, err := c.Unpack(frameOf(0x7FF, 0x01))
	if err != nil || ok || d.Name != "" {
		t.Fatalf("unknown id unpack: %+v ok=%v err=%v", d, ok, err)
	}
}

func TestCatalog_DecodeInvalidFrame(t *testing.T) {
	c := NewCatalog()
	_ = c.AddMessage(testMessage(t, "engine", 0x100))

	f := frameOf(0x100)
	f.Length = 12
	if _, ok, err := c.Decode(f); !ok || !errors.Is(err, ErrInvalidFrame) {
		t.Fatalf("expected ErrInvalidFrame, got ok=%v err=%v", ok, err)
	}
}

func TestCatalog_Unpack(t *testing.T) {
	c := NewCatalog()
	_ = c.AddMessage(testMessage(t, "engine", 0x100))

	d, ok, err := c.Unpack(frameOf(0x100, 0x07))
	if err != nil || !ok {
		t.Fatalf("Unpack: ok=%v err=%v", ok, err)
	}
	if v, found := d.Lookup("value"); !found || v.Raw != 7 {
		t.Fatalf("value = %+v", v)
	}
}

func TestCatalog_Concurrent(t *testing.T) {
	c := NewCatalog()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = c.AddMessage(NewMessage(fmt.Sprintf("m%d", i), uint32(i)))
		}(i)
		go func(i int) {
			defer wg.Done()
			c.LookupMessage(fmt.Sprintf("m%d", i))
			_, _, _ = c.Unpack(frameOf(uint32(i)))
		}(i)
	}
	wg.Wait()
	if c.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", c.Len())
	}
}
