// Package publish forwards decoded messages to external consumers.
package publish

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"

	"cansig/messaging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Publisher receives every decoded message.
type Publisher interface {
	Publish(ctx context.Context, d messaging.Decoded) error
	Close() error
}

// Payload renders d as a flat JSON object:
//
//	{"name": "ENGINE", "id": 256, "t": 1692179443894, "rpm": 2500, "temp": 60}
//
// t is ts in Unix milliseconds. Signal names collide with the fixed keys
// only if a signal is called name, id or t; the fixed keys win.
func Payload(d messaging.Decoded, ts time.Time) ([]byte, error) {
	out := make(map[string]any, len(d.Signals)+3)
	for _, s := range d.Signals {
		out[s.Name] = s.Value
	}
	out["name"] = d.Name
	out["id"] = d.ID
	out["t"] = ts.UnixMilli()
	return json.Marshal(out)
}
