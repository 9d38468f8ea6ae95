package parser

import "sql-explain/expression"

// stack 是调度场算法使用的运算符栈和操作数栈
type stack[T any] struct {
	items []T
}

func (s *stack[T]) push(v T) {
	s.items = append(s.items, v)
}

func (s *stack[T]) pop() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, true
}

func (s *stack[T]) peek() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

func (s *stack[T]) size() int {
	return len(s.items)
}

// queueItem 是逆波兰队列中的元素：操作数或者运算符
type queueItem struct {
	expr expression.Expression
	op   tokenType
}

// popOperators 把栈顶优先级不低于 t 的运算符移入队列，遇到左括号停止
func popOperators(ops *stack[token], t tokenType, queue []queueItem) []queueItem {
	for {
		top, ok := ops.peek()
		if !ok || top.Type == _Lparen || opGreat(t, top.Type) {
			return queue
		}
		ops.pop()
		queue = append(queue, queueItem{op: top.Type})
	}
}
