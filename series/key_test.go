package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKey(t *testing.T) {
	key, err := EncodeKey([]any{"hello", int64(42), int32(-1)})
	require.NoError(t, err)
	assert.Equal(t, Key("s5:helloi2:42j2:-1"), key)
}

func TestEncodeKeyEmpty(t *testing.T) {
	key, err := EncodeKey(nil)
	require.NoError(t, err)
	assert.Equal(t, Key(""), key)
}

// Length prefixes keep adjacent string values from colliding.
func TestEncodeKeyInjective(t *testing.T) {
	a, err := EncodeKey([]any{"ab", "c"})
	require.NoError(t, err)
	b, err := EncodeKey([]any{"a", "bc"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEncodeKeyRejectsInvalidTypes(t *testing.T) {
	_, err := EncodeKey([]any{3.14})
	assert.Error(t, err)

	_, err = EncodeKey([]any{true})
	assert.Error(t, err)
}
