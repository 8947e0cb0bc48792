package messaging

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.einride.tech/can"
)

// Catalog is an ordered set of messages keyed by name. Adding, removing and
// looking up messages is safe for concurrent use; decoding into the same
// message from several goroutines is not (see Message).
type Catalog struct {
	mu       sync.RWMutex
	messages []*Message
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

func (c *Catalog) AddMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: nil message", ErrInvalidLayout)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(msg.name) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateMessage, msg.name)
	}
	c.messages = append(c.messages, msg)
	return nil
}

// RemoveMessage removes the message with msg's name.
func (c *Catalog) RemoveMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: nil message", ErrMessageNotFound)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(msg.name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, msg.name)
	}
	c.messages = append(c.messages[:i], c.messages[i+1:]...)
	return nil
}

func (c *Catalog) indexOf(name string) int {
	for i, m := range c.messages {
		if m.name == name {
			return i
		}
	}
	return -1
}

func (c *Catalog) LookupMessage(name string) (*Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(name); i >= 0 {
		return c.messages[i], true
	}
	return nil, false
}

// LookupID returns the first message with the given identifier.
func (c *Catalog) LookupID(id uint32) (*Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, m := range c.messages {
		if m.id == id {
			return m, true
		}
	}
	return nil, false
}

// Decode dispatches frame to the first message claiming its identifier.
// ok is false, with a nil error, when no message does.
func (c *Catalog) Decode(frame can.Frame) (msg *Message, ok bool, err error) {
	m, found := c.LookupID(frame.ID)
	if !found {
		return nil, false, nil
	}
	msg, err = m.Decode(frame)
	if err != nil {
		return nil, true, err
	}
	return msg, true, nil
}

// Unpack is the side-effect free form of Decode.
func (c *Catalog) Unpack(frame can.Frame) (d Decoded, ok bool, err error) {
	m, found := c.LookupID(frame.ID)
	if !found {
		return Decoded{}, false, nil
	}
	d, err = m.Unpack(frame)
	return d, true, err
}

// Messages returns the messages in insertion order.
func (c *Catalog) Messages() []*Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Names returns the message names sorted alphabetically.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, m.name)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

func (c *Catalog) String() string {
	var b strings.Builder
	b.WriteString("Catalog:\n")
	for _, m := range c.Messages() {
		b.WriteString(m.String())
	}
	return b.String()
}
