package list

import (
	"reflect"
	"testing"
)

func collect[T any](l *List[T]) []T {
	var out []T
	for n := l.Head(); n != nil; n = l.Next(n) {
		out = append(out, n.Value)
	}
	return out
}

func collectReverse[T any](l *List[T]) []T {
	var out []T
	for n := l.Tail(); n != nil; n = l.Prev(n) {
		out = append(out, n.Value)
	}
	return out
}

func TestList_ZeroValue(t *testing.T) {
	var l List[int]
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
	if l.Head() != nil || l.Tail() != nil {
		t.Error("expected nil head and tail on empty list")
	}
	if l.Values() != nil {
		t.Error("expected nil Values() on empty list")
	}
	l.Clear()
}

func TestList_Insert(t *testing.T) {
	l := New[int]()
	l.InsertTail(2)
	l.InsertTail(3)
	l.InsertHead(1)

	if got, want := collect(l), []int{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("forward = %v, want %v", got, want)
	}
	if got, want := collectReverse(l), []int{3, 2, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("reverse = %v, want %v", got, want)
	}
	if l.Len() != 3 {
		t.Errorf("Len() = %d, want 3", l.Len())
	}
}

func TestList_InsertBefore(t *testing.T) {
	tests := []struct {
		name string
		mark int // index of the mark node, -1 for nil
		want []int
	}{
		{"before head", 0, []int{9, 1, 2, 3}},
		{"before middle", 1, []int{1, 9, 2, 3}},
		{"before tail", 2, []int{1, 2, 9, 3}},
		{"nil mark appends", -1, []int{1, 2, 3, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New[int]()
			nodes := []*Node[int]{l.InsertTail(1), l.InsertTail(2), l.InsertTail(3)}
			var mark *Node[int]
			if tt.mark >= 0 {
				mark = nodes[tt.mark]
			}
			l.InsertBefore(mark, 9)
			if got := collect(l); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got := collectReverse(l); len(got) != len(tt.want) {
				t.Errorf("reverse walk has %d nodes, want %d", len(got), len(tt.want))
			}
		})
	}
}

func TestList_Remove(t *testing.T) {
	l := New[string]()
	a := l.InsertTail("a")
	b := l.InsertTail("b")
	c := l.InsertTail("c")

	if v := l.Remove(b); v != "b" {
		t.Errorf("Remove() = %q, want b", v)
	}
	if got, want := collect(l), []string{"a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after middle removal = %v, want %v", got, want)
	}

	// Removing twice is a no-op.
	if v := l.Remove(b); v != "" {
		t.Errorf("second Remove() = %q, want zero value", v)
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}

	l.Remove(a)
	l.Remove(c)
	if l.Len() != 0 || l.Head() != nil || l.Tail() != nil {
		t.Error("expected empty list after removing every node")
	}
}

func TestList_RemoveForeignNode(t *testing.T) {
	l1 := New[int]()
	l2 := New[int]()
	n := l1.InsertTail(1)
	l2.InsertTail(2)

	l2.Remove(n)
	if l1.Len() != 1 || l2.Len() != 1 {
		t.Errorf("foreign Remove changed lengths: %d, %d", l1.Len(), l2.Len())
	}
	if l2.Next(n) != nil || l2.Prev(n) != nil {
		t.Error("expected nil traversal for foreign node")
	}
}

func TestList_MoveBefore(t *testing.T) {
	l := New[int]()
	n1 := l.InsertTail(1)
	n2 := l.InsertTail(2)
	n3 := l.InsertTail(3)

	l.MoveBefore(n3, n1)
	if got, want := collect(l), []int{3, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("after MoveBefore(3, 1) = %v, want %v", got, want)
	}

	l.MoveBefore(n3, nil)
	if got, want := collect(l), []int{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("after MoveBefore(3, nil) = %v, want %v", got, want)
	}

	l.MoveBefore(n2, n2)
	if got, want := collect(l), []int{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("self move changed order: %v", got)
	}
	if l.Len() != 3 {
		t.Errorf("Len() = %d, want 3", l.Len())
	}
}

func TestList_ChangeList(t *testing.T) {
	src := New[int]()
	dst := New[int]()
	n := src.InsertTail(1)
	src.InsertTail(2)
	dst.InsertTail(3)

	src.ChangeList(dst, n)
	if got, want := collect(src), []int{2}; !reflect.DeepEqual(got, want) {
		t.Errorf("src = %v, want %v", got, want)
	}
	if got, want := collect(dst), []int{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("dst = %v, want %v", got, want)
	}
	if !dst.Contains(n) || src.Contains(n) {
		t.Error("node ownership not transferred")
	}
}

func TestList_Clear(t *testing.T) {
	l := New[int]()
	nodes := []*Node[int]{l.InsertTail(1), l.InsertTail(2), l.InsertTail(3)}

	l.Clear()
	if l.Len() != 0 || l.Head() != nil || l.Tail() != nil {
		t.Fatal("expected empty list after Clear()")
	}
	for i, n := range nodes {
		if l.Contains(n) {
			t.Errorf("node %d still attached after Clear()", i)
		}
	}

	// Detached nodes must not corrupt the list when reused.
	l.Remove(nodes[0])
	l.InsertTail(4)
	if got, want := collect(l), []int{4}; !reflect.DeepEqual(got, want) {
		t.Errorf("after reuse = %v, want %v", got, want)
	}
}

func TestList_Find(t *testing.T) {
	l := New[int]()
	l.InsertTail(5)
	target := l.InsertTail(7)
	l.InsertTail(7)

	if n := l.Find(func(v int) bool { return v == 7 }); n != target {
		t.Error("Find() did not return the first match")
	}
	if n := l.Find(func(v int) bool { return v == 42 }); n != nil {
		t.Error("Find() returned a node for a missing value")
	}
}

func TestList_Values(t *testing.T) {
	l := New[int]()
	l.InsertTail(1)
	l.InsertTail(2)

	snap := l.Values()
	l.InsertTail(3)

	if !reflect.DeepEqual(snap, []int{1, 2}) {
		t.Errorf("snapshot changed after insert: %v", snap)
	}
}
