package graph

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestInDegrees(t *testing.T) {
	g := newEntityGraph("Entity", "Person", "Employee")
	g.AddEdge("Entity", "Person")
	g.AddEdge("Person", "Employee")

	expected := map[string]int{"Entity": 0, "Person": 1, "Employee": 1}
	if got := g.inDegrees(); !reflect.DeepEqual(got, expected) {
		t.Errorf("inDegrees() = %v, expected %v", got, expected)
	}
}

func TestReadyNodesSorted(t *testing.T) {
	g := newEntityGraph("Zeta", "Alpha", "Child")
	g.AddEdge("Alpha", "Child")

	if got := readyNodes(g.inDegrees()); !reflect.DeepEqual(got, []string{"Alpha", "Zeta"}) {
		t.Errorf("Expected [Alpha Zeta], got %v", got)
	}
}

func TestTopologicalSort(t *testing.T) {
	g := newEntityGraph("Entity", "Person", "Employee", "Event", "Incident")
	g.AddEdge("Entity", "Person")
	g.AddEdge("Person", "Employee")
	g.AddEdge("Entity", "Event")
	g.AddEdge("Event", "Incident")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort failed: %v", err)
	}

	expected := []string{"Entity", "Event", "Person", "Incident", "Employee"}
	if !reflect.DeepEqual(order, expected) {
		t.Errorf("TopologicalSort() = %v, expected %v", order, expected)
	}
}

func TestTopologicalSort_ParentsBeforeChildren(t *testing.T) {
	g := coreGraph(t)
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort failed: %v", err)
	}
	if len(order) != g.NodeCount() {
		t.Fatalf("Expected %d types, got %v", g.NodeCount(), order)
	}

	position := make(map[string]int)
	for i, n := range order {
		position[n] = i
	}
	for _, edge := range g.AllEdges() {
		if position[edge.From] >= position[edge.To] {
			t.Errorf("%s must come before %s in %v", edge.From, edge.To, order)
		}
	}
}

func TestTopologicalSort_Cycle(t *testing.T) {
	g := newEntityGraph("A", "B", "C", "D")
	g.AddEdge("A", "B")
	g.AddEdge("B", "C")
	g.AddEdge("C", "B")
	g.AddEdge("C", "D")

	_, err := g.TopologicalSort()
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("Expected ErrCycleDetected, got %v", err)
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Expected *CycleError, got %T", err)
	}
	info := cycleErr.Info
	if !reflect.DeepEqual(info.Unordered, []string{"B", "C", "D"}) {
		t.Errorf("Unexpected unordered types: %v", info.Unordered)
	}
	if !reflect.DeepEqual(info.Members, []string{"B", "C"}) {
		t.Errorf("Unexpected members: %v", info.Members)
	}
	if !reflect.DeepEqual(info.Loop, []string{"B", "C", "B"}) {
		t.Errorf("Unexpected loop: %v", info.Loop)
	}
	if !reflect.DeepEqual(info.Blocked(), []string{"D"}) {
		t.Errorf("Unexpected blocked types: %v", info.Blocked())
	}
	if info.Ordered != 1 || info.Total != 4 {
		t.Errorf("Unexpected counts: ordered=%d total=%d", info.Ordered, info.Total)
	}
}

func TestCycles_Acyclic(t *testing.T) {
	g := coreGraph(t)
	if info := g.Cycles(); info != nil {
		t.Errorf("Expected nil for acyclic graph, got %+v", info)
	}
	if g.HasCycle() {
		t.Error("HasCycle() should be false")
	}
}

func TestCycles_Members(t *testing.T) {
	g := newEntityGraph("Root", "X", "Y", "Z")
	g.AddEdge("Root", "X")
	g.AddEdge("X", "Y")
	g.AddEdge("Y", "Z")
	g.AddEdge("Z", "X")

	info := g.Cycles()
	if info == nil {
		t.Fatal("Expected a cycle")
	}
	if !reflect.DeepEqual(info.Members, []string{"X", "Y", "Z"}) {
		t.Errorf("Members = %v", info.Members)
	}
	if !reflect.DeepEqual(info.Loop, []string{"X", "Y", "Z", "X"}) {
		t.Errorf("Loop = %v", info.Loop)
	}
	if !g.HasCycle() {
		t.Error("HasCycle() should be true")
	}
}

func TestCycles_BridgeBetweenCyclesIsNotMember(t *testing.T) {
	g := newEntityGraph("A", "B", "M", "C", "D")
	g.AddEdge("A", "B")
	g.AddEdge("B", "A")
	g.AddEdge("B", "M")
	g.AddEdge("M", "C")
	g.AddEdge("C", "D")
	g.AddEdge("D", "C")

	info := g.Cycles()
	if info == nil {
		t.Fatal("Expected a cycle")
	}
	if !reflect.DeepEqual(info.Members, []string{"A", "B", "C", "D"}) {
		t.Errorf("Members = %v", info.Members)
	}
	if !reflect.DeepEqual(info.Blocked(), []string{"M"}) {
		t.Errorf("Blocked = %v", info.Blocked())
	}
}

func TestCycleError_Message(t *testing.T) {
	err := &CycleError{Info: &CycleInfo{
		Total:     5,
		Ordered:   2,
		Unordered: []string{"B", "C", "D"},
		Members:   []string{"B", "C"},
		Loop:      []string{"B", "C", "B"},
	}}

	msg := err.Error()
	for _, want := range []string{
		"3 of 5 types",
		"Cycle path: B -> C -> B",
		"Types in cycle: B, C",
		"Types blocked by cycle: D",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error message missing %q:\n%s", want, msg)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Run("forest", func(t *testing.T) {
		if err := coreGraph(t).Validate(); err != nil {
			t.Errorf("Validate() failed on valid forest: %v", err)
		}
	})

	t.Run("multiple parents", func(t *testing.T) {
		g := newEntityGraph("A", "B", "C")
		g.AddEdge("A", "C")
		g.AddEdge("B", "C")

		if err := g.Validate(); !errors.Is(err, ErrMultipleParents) {
			t.Errorf("Expected ErrMultipleParents, got %v", err)
		}
	})

	t.Run("self loop", func(t *testing.T) {
		g := newEntityGraph("A")
		g.AddEdge("A", "A")

		var cycleErr *CycleError
		err := g.Validate()
		if !errors.As(err, &cycleErr) {
			t.Fatalf("Expected *CycleError, got %v", err)
		}
		if !reflect.DeepEqual(cycleErr.Info.Loop, []string{"A", "A"}) {
			t.Errorf("Loop = %v", cycleErr.Info.Loop)
		}
	})
}
