package ext

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("Math", MustDescriptor("Sub", &recorder{}), MustDescriptor("Add", &recorder{})))
	require.NoError(t, r.Register("Str", MustDescriptor("Len", &recorder{})))

	assert.Equal(t, []string{"Math", "Str"}, r.Sets())

	descs, ok := r.Set("Math")
	require.True(t, ok)
	require.Len(t, descs, 2)
	assert.Equal(t, "Add", descs[0].Name)
	assert.Equal(t, "Sub", descs[1].Name)

	_, ok = r.Set("Nope")
	assert.False(t, ok)

	assert.Error(t, r.Register("Math", nil))
}

func TestRegistry_ReplacesSameName(t *testing.T) {
	r := NewRegistry()
	first := MustDescriptor("F", &recorder{})
	second := MustDescriptor("F", &recorder{}, ArgNumber)
	require.NoError(t, r.Register("S", first))
	require.NoError(t, r.Register("S", second))

	descs, _ := r.Set("S")
	require.Len(t, descs, 1)
	assert.Same(t, second, descs[0])
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("S", MustDescriptor("F", &recorder{})))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			descs, ok := r.Set("S")
			assert.True(t, ok)
			assert.Len(t, descs, 1)
		}()
	}
	wg.Wait()
}
