// Package strategy 实现状态处理的策略
package strategy

import (
	"github.com/pkg/errors"
)

var ErrEmpty = errors.New("state queue is empty")

var _ Strategy[int] = (*DFS[int])(nil)

// DFS 深度优先搜索策略
type DFS[T any] struct {
	states []T
	limit  int
	pushed int
}

func NewDFS[T any]() *DFS[T] {
	return &DFS[T]{
		states: make([]T, 0),
	}
}

// NewBoundedDFS returns a DFS that refuses to accept more than limit states
// over its lifetime.
func NewBoundedDFS[T any](limit int) *DFS[T] {
	dfs := NewDFS[T]()
	dfs.limit = limit
	return dfs
}

func (dfs *DFS[T]) Size() int {
	return len(dfs.states)
}

func (dfs *DFS[T]) HasNext() bool {
	return len(dfs.states) > 0
}

// Pushed is the number of states accepted so far.
func (dfs *DFS[T]) Pushed() int {
	return dfs.pushed
}

func (dfs *DFS[T]) Pop() (T, error) {
	var zero T
	if len(dfs.states) <= 0 {
		return zero, ErrEmpty
	}
	state := dfs.states[len(dfs.states)-1]
	dfs.states = dfs.states[:len(dfs.states)-1]
	return state, nil
}

// Push adds states so that the first one given is popped first.
func (dfs *DFS[T]) Push(states ...T) error {
	if dfs.limit > 0 && dfs.pushed+len(states) > dfs.limit {
		return errors.Errorf("more than %d states", dfs.limit)
	}
	dfs.pushed += len(states)
	for i := len(states) - 1; i >= 0; i-- {
		dfs.states = append(dfs.states, states[i])
	}
	return nil
}
