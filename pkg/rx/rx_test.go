package rx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFormat(t *testing.T) {
	fixed := time.Date(2025, 9, 1, 14, 32, 10, 0, time.UTC)
	gen := NewGeneratorAt(func() time.Time { return fixed })

	number, err := gen.Next()
	require.NoError(t, err)

	assert.Len(t, number, len("RX20250901143210")+suffixLen)
	assert.Equal(t, "RX20250901143210", number[:16])
	for _, c := range number[16:] {
		assert.Contains(t, suffixChars, string(c))
	}
}

func TestNextUniqueWithinSecond(t *testing.T) {
	fixed := time.Date(2025, 9, 1, 14, 32, 10, 0, time.UTC)
	gen := NewGeneratorAt(func() time.Time { return fixed })

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		number, err := gen.Next()
		require.NoError(t, err)
		seen[number] = true
	}
	// 36^3 suffixes; 50 draws colliding down to a handful would mean
	// the suffix is not random at all.
	assert.Greater(t, len(seen), 10)
}
