package idgen

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULIDGenerator_Generate(t *testing.T) {
	gen := NewULIDGenerator()

	id := gen.Generate()
	_, err := ulid.ParseStrict(id)
	require.NoError(t, err)
	assert.Len(t, id, 26)
}

func TestULIDGenerator_Monotonic(t *testing.T) {
	gen := NewULIDGenerator()

	prev := gen.Generate()
	for i := 0; i < 1000; i++ {
		next := gen.Generate()
		assert.Greater(t, next, prev)
		prev = next
	}
}
