// Package loader builds message catalogs from description files.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cansig/messaging"
	"cansig/utils"
)

var log = utils.Logger

// Load reads a catalog, choosing the format from the file extension:
// .json, .csv or .xlsx.
func Load(path string) (*messaging.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cat *messaging.Catalog
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		cat, err = ParseJSON(f)
	case ".csv":
		cat, err = ParseCSV(f)
	case ".xlsx":
		cat, err = ParseXLSX(f, DefaultSheet)
	default:
		return nil, fmt.Errorf("%s: unsupported catalog format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Debugf("loaded %d messages from %s", cat.Len(), path)
	return cat, nil
}

// builder accumulates messages while a description is parsed.
type builder struct {
	cat    *messaging.Catalog
	byName map[string]*messaging.Message
}

func newBuilder() *builder {
	return &builder{
		cat:    messaging.NewCatalog(),
		byName: map[string]*messaging.Message{},
	}
}

// message returns the message called name, creating it on first use.
func (b *builder) message(name string, id uint32, order messaging.ByteOrder) (*messaging.Message, error) {
	if m, ok := b.byName[name]; ok {
		if m.ID() != id {
			return nil, fmt.Errorf("message %s has inconsistent id (0x%X vs 0x%X)", name, m.ID(), id)
		}
		if m.ByteOrder() != order {
			return nil, fmt.Errorf("message %s has inconsistent byte order (%s vs %s)", name, m.ByteOrder(), order)
		}
		return m, nil
	}

	m := messaging.NewMessage(name, id, messaging.WithByteOrder(order))
	if err := b.cat.AddMessage(m); err != nil {
		return nil, err
	}
	b.byName[name] = m
	return m, nil
}

type signalDef struct {
	Name      string
	StartBit  int
	BitLength int
	Factor    float64
	Offset    float64
	Unit      string
}

func (b *builder) signal(m *messaging.Message, def signalDef) error {
	sig, err := messaging.NewSignal(def.Name, def.BitLength,
		messaging.WithFactor(def.Factor),
		messaging.WithOffset(def.Offset),
		messaging.WithUnit(def.Unit))
	if err != nil {
		return fmt.Errorf("message %s: %w", m.Name(), err)
	}
	if err := m.AddSignal(sig, def.StartBit); err != nil {
		return err
	}
	return nil
}
