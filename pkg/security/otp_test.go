package security

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTPRange(t *testing.T) {
	for range 1000 {
		code, err := NewOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestNewPlaceholderPassword(t *testing.T) {
	p1, err := NewPlaceholderPassword()
	require.NoError(t, err)
	p2, err := NewPlaceholderPassword()
	require.NoError(t, err)

	assert.Len(t, p1, 10)
	assert.NotEqual(t, p1, p2)
}
