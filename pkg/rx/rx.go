package rx

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Rx numbers are human-facing identifiers printed on pharmacy labels:
// "RX" + order timestamp + short random suffix, e.g. RX20250901143210QK7.
const (
	prefix       = "RX"
	timeLayout   = "20060102150405"
	suffixLen    = 3
	suffixChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generator produces unique prescription/charge numbers.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewGeneratorAt pins the clock, for tests.
func NewGeneratorAt(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next returns a fresh rx number. The random suffix keeps two orders
// submitted within the same second distinct.
func (g *Generator) Next() (string, error) {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate rx suffix: %w", err)
	}
	for i, b := range buf {
		buf[i] = suffixChars[int(b)%len(suffixChars)]
	}
	return prefix + g.now().Format(timeLayout) + string(buf), nil
}
