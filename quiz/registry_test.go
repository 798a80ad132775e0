package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry(10)
	r.Put("p1", PollRef{ChatID: 5, Question: 0})

	ref, err := r.Lookup("p1")
	require.NoError(t, err)
	assert.Equal(t, PollRef{ChatID: 5, Question: 0}, ref)

	ref, err = r.Resolve("p1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), ref.ChatID)
	assert.Equal(t, 0, r.Len())

	_, err = r.Resolve("p1")
	require.ErrorIs(t, err, ErrUnknownPoll)
}

func TestRegistryUnknownPoll(t *testing.T) {
	r := NewRegistry(10)

	_, err := r.Lookup("nope")
	require.ErrorIs(t, err, ErrUnknownPoll)
	assert.Contains(t, err.Error(), "nope")
}

func TestRegistryEvictsOldestOverCapacity(t *testing.T) {
	r := NewRegistry(2)
	r.Put("a", PollRef{ChatID: 1})
	r.Put("b", PollRef{ChatID: 2})
	r.Put("c", PollRef{ChatID: 3})

	assert.Equal(t, 2, r.Len())
	_, err := r.Lookup("a")
	require.ErrorIs(t, err, ErrUnknownPoll)
	_, err = r.Lookup("c")
	require.NoError(t, err)
}

func TestRegistryReinsertAfterResolve(t *testing.T) {
	r := NewRegistry(2)
	r.Put("a", PollRef{ChatID: 1})
	_, err := r.Resolve("a")
	require.NoError(t, err)

	r.Put("b", PollRef{ChatID: 2})
	r.Put("a", PollRef{ChatID: 1, Question: 1})
	r.Put("c", PollRef{ChatID: 3})

	// b is the oldest live entry now
	_, err = r.Lookup("b")
	require.ErrorIs(t, err, ErrUnknownPoll)
	ref, err := r.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, 1, ref.Question)
}

func TestRegistryEvictChat(t *testing.T) {
	r := NewRegistry(10)
	r.Put("a", PollRef{ChatID: 1, Question: 0})
	r.Put("b", PollRef{ChatID: 1, Question: 1})
	r.Put("c", PollRef{ChatID: 2, Question: 0})

	assert.Equal(t, 2, r.EvictChat(1))
	assert.Equal(t, 1, r.Len())
	_, err := r.Lookup("c")
	require.NoError(t, err)
	assert.Equal(t, 0, r.EvictChat(1))
}

func TestRegistryDefaultCapacity(t *testing.T) {
	r := NewRegistry(0)
	assert.Equal(t, DefaultRegistrySize, r.capacity)
}
