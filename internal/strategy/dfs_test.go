package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DFSOrder(t *testing.T) {
	var s Strategy[string] = NewDFS[string]()
	assert.False(t, s.HasNext())
	_, err := s.Pop()
	assert.Equal(t, ErrEmpty, err)

	require.Nil(t, s.Push("then", "else"))
	assert.Equal(t, 2, s.Size())

	first, err := s.Pop()
	require.Nil(t, err)
	assert.Equal(t, "then", first)

	require.Nil(t, s.Push("nested-then", "nested-else"))
	var order []string
	for s.HasNext() {
		next, _ := s.Pop()
		order = append(order, next)
	}
	assert.Equal(t, []string{"nested-then", "nested-else", "else"}, order)
}

func Test_BoundedDFS(t *testing.T) {
	dfs := NewBoundedDFS[int](3)
	require.Nil(t, dfs.Push(1, 2))
	require.Nil(t, dfs.Push(3))
	assert.NotNil(t, dfs.Push(4))
	assert.Equal(t, 3, dfs.Pushed())
	assert.Equal(t, 3, dfs.Size())
}
