// Package strategy 实现状态处理的策略
package strategy

// Strategy is a worklist of pending states.
type Strategy[T any] interface {
	Size() int
	HasNext() bool
	Pop() (T, error)
	Push(...T) error
}
