// Package ordernum generates the human-readable order numbers stamped on
// every order at creation. Numbers are globally unique and immutable; the
// remote store additionally enforces uniqueness with an index, which is what
// makes fallback reconciliation idempotent.
package ordernum

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const prefix = "ORD-"

// Generator produces order numbers. The zero value is not usable; call New.
type Generator struct {
	now func() time.Time
}

// New builds a generator backed by the wall clock.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock builds a generator with an injected clock for tests.
func NewWithClock(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

// Next returns a new order number, e.g. ORD-20260829142233-7f3a.
// The timestamp component keeps numbers roughly sortable by creation time;
// the random suffix disambiguates same-second creations across nodes.
func (g *Generator) Next() string {
	ts := g.now().UTC().Format("20060102150405")
	suffix := make([]byte, 2)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand never fails on supported platforms; fall back to nanos.
		return fmt.Sprintf("%s%s-%04x", prefix, ts, g.now().UnixNano()&0xffff)
	}
	return prefix + ts + "-" + hex.EncodeToString(suffix)
}

// Valid reports whether the value looks like a generated order number.
func Valid(value string) bool {
	if !strings.HasPrefix(value, prefix) {
		return false
	}
	rest := strings.TrimPrefix(value, prefix)
	parts := strings.SplitN(rest, "-", 2)
	if len(parts) != 2 || len(parts[0]) != 14 || len(parts[1]) == 0 {
		return false
	}
	if _, err := time.Parse("20060102150405", parts[0]); err != nil {
		return false
	}
	return true
}
