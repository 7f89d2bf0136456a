// internal/domain/order/number_test.go
package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		s, err := randomDigits(8)
		require.NoError(t, err)
		require.Len(t, s, 8)
		for _, r := range s {
			assert.True(t, r >= '0' && r <= '9', "unexpected rune %q in %s", r, s)
		}
	}
}

func TestNewRefundReference(t *testing.T) {
	ref := newRefundReference()
	assert.Regexp(t, `^RF-[0-9A-F]{12}$`, ref)

	// References must not repeat
	assert.NotEqual(t, ref, newRefundReference())
}
