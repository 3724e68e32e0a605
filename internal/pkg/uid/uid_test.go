package uid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_Generate(t *testing.T) {
	gen := NewUUID()
	a, b := gen.Generate(), gen.Generate()

	assert.True(t, IsUUID(a))
	assert.True(t, IsUUID(b))
	assert.NotEqual(t, a, b)
}

func TestIsUUID(t *testing.T) {
	assert.False(t, IsUUID(""))
	assert.False(t, IsUUID("not-a-uuid"))
	assert.False(t, IsUUID("{0190c1a4-7f8e-7b3d-9a2f-3c4d5e6f7a8b}"))
	assert.True(t, IsUUID("0190c1a4-7f8e-7b3d-9a2f-3c4d5e6f7a8b"))
}

func TestSnowflake(t *testing.T) {
	gen, err := NewSnowflakeWithNode(7)
	require.NoError(t, err)

	seen := make(map[int64]struct{}, 1000)
	prev := int64(0)
	for range 1000 {
		id := gen.Generate()
		assert.Greater(t, id, prev)
		prev = id
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1000)

	_, err = NewSnowflakeWithNode(4096)
	assert.Error(t, err)
}
