// Package list provides a generic doubly linked list whose nodes are
// handed out to callers, so that a node can be detached in O(1) by the
// owner of the handle.
//
// Unlike container/list, the payload is a type parameter and a node always
// knows which list it belongs to. Operations given a node from a different
// list, or a node already detached, are no-ops.
package list

// Node is a list membership record carrying one value.
type Node[T any] struct {
	Value T

	prev, next *Node[T]
	list       *List[T]
}

// List is a doubly linked list of Node[T]. The zero value is an empty list
// ready to use.
type List[T any] struct {
	head, tail *Node[T]
	len        int
}

// New returns an empty list.
func New[T any]() *List[T] {
	return &List[T]{}
}

// Len returns the number of nodes in the list.
func (l *List[T]) Len() int {
	return l.len
}

// Head returns the first node, or nil if the list is empty.
func (l *List[T]) Head() *Node[T] {
	return l.head
}

// Tail returns the last node, or nil if the list is empty.
func (l *List[T]) Tail() *Node[T] {
	return l.tail
}

// Next returns the node after n, or nil at the end of the list.
func (l *List[T]) Next(n *Node[T]) *Node[T] {
	if n == nil || n.list != l {
		return nil
	}
	return n.next
}

// Prev returns the node before n, or nil at the start of the list.
func (l *List[T]) Prev(n *Node[T]) *Node[T] {
	if n == nil || n.list != l {
		return nil
	}
	return n.prev
}

// InsertHead adds v at the front of the list.
func (l *List[T]) InsertHead(v T) *Node[T] {
	n := &Node[T]{Value: v}
	l.linkHead(n)
	return n
}

// InsertTail adds v at the back of the list.
func (l *List[T]) InsertTail(v T) *Node[T] {
	n := &Node[T]{Value: v}
	l.linkTail(n)
	return n
}

// InsertBefore adds v in front of mark. A nil mark, or a mark owned by
// another list, appends v at the tail.
func (l *List[T]) InsertBefore(mark *Node[T], v T) *Node[T] {
	n := &Node[T]{Value: v}
	if mark == nil || mark.list != l {
		l.linkTail(n)
		return n
	}
	l.linkBefore(n, mark)
	return n
}

// Remove detaches n from the list and returns its value. The value itself
// is left untouched; only the membership record is dropped.
func (l *List[T]) Remove(n *Node[T]) T {
	if n == nil || n.list != l {
		var zero T
		return zero
	}
	l.unlink(n)
	return n.Value
}

// MoveBefore moves n so it sits directly in front of mark. A nil mark moves
// n to the tail. Both nodes must belong to l.
func (l *List[T]) MoveBefore(n, mark *Node[T]) {
	if n == nil || n.list != l || n == mark {
		return
	}
	if mark != nil && mark.list != l {
		return
	}
	l.unlink(n)
	if mark == nil {
		l.linkTail(n)
		return
	}
	l.linkBefore(n, mark)
}

// ChangeList moves n from l to the head of dst.
func (l *List[T]) ChangeList(dst *List[T], n *Node[T]) {
	if dst == nil || n == nil || n.list != l {
		return
	}
	l.unlink(n)
	dst.linkHead(n)
}

// Clear detaches every node. Nodes still held by callers become inert.
func (l *List[T]) Clear() {
	for n := l.head; n != nil; {
		next := n.next
		n.prev, n.next, n.list = nil, nil, nil
		n = next
	}
	l.head, l.tail, l.len = nil, nil, 0
}

// Find returns the first node whose value satisfies match, or nil.
func (l *List[T]) Find(match func(T) bool) *Node[T] {
	for n := l.head; n != nil; n = n.next {
		if match(n.Value) {
			return n
		}
	}
	return nil
}

// Values returns a snapshot of the values in list order.
func (l *List[T]) Values() []T {
	if l.len == 0 {
		return nil
	}
	out := make([]T, 0, l.len)
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.Value)
	}
	return out
}

// Contains reports whether n is currently linked into l.
func (l *List[T]) Contains(n *Node[T]) bool {
	return n != nil && n.list == l
}

func (l *List[T]) linkHead(n *Node[T]) {
	n.list = l
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	} else {
		l.tail = n
	}
	l.head = n
	l.len++
}

func (l *List[T]) linkTail(n *Node[T]) {
	n.list = l
	n.next = nil
	n.prev = l.tail
	if l.tail != nil {
		l.tail.next = n
	} else {
		l.head = n
	}
	l.tail = n
	l.len++
}

func (l *List[T]) linkBefore(n, mark *Node[T]) {
	n.list = l
	n.next = mark
	n.prev = mark.prev
	if mark.prev != nil {
		mark.prev.next = n
	} else {
		l.head = n
	}
	mark.prev = n
	l.len++
}

func (l *List[T]) unlink(n *Node[T]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next, n.list = nil, nil, nil
	l.len--
}
