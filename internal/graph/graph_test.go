package graph

import (
	"reflect"
	"testing"
)

func TestTopoSort_FirstAppearanceTieBreak(t *testing.T) {
	g := New()
	g.AddNode("c")
	g.AddNode("a")
	g.AddNode("b")
	// no edges: all three are simultaneously ready, order must follow
	// first-appearance registration order (c, a, b).
	order, _, ok := g.TopoSort()
	if !ok {
		t.Fatalf("expected success")
	}
	if !reflect.DeepEqual(order, []string{"c", "a", "b"}) {
		t.Errorf("order = %v, want [c a b]", order)
	}
}

func TestTopoSort_Dependencies(t *testing.T) {
	g := New()
	g.AddEdge("build", "fetch")
	g.AddEdge("test", "build")
	order, _, ok := g.TopoSort()
	if !ok {
		t.Fatalf("expected success")
	}
	if !reflect.DeepEqual(order, []string{"fetch", "build", "test"}) {
		t.Errorf("order = %v, want [fetch build test]", order)
	}
}

func TestTopoSort_Cycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	_, remaining, ok := g.TopoSort()
	if ok {
		t.Fatalf("expected a cycle to be detected")
	}
	if len(remaining) != 2 {
		t.Errorf("expected both cyclic nodes reported, got %v", remaining)
	}
}
