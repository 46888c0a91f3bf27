package arbor

import (
	"errors"
	"maps"
	"testing"
)

// sampleData returns
//
//	Root
//	├── A
//	│   ├── A1
//	│   └── A2
//	├── B
//	│   └── B1
//	│       └── B1a
//	└── C
//
// Pre-order ids: Root=1 A=2 A1=3 A2=4 B=5 B1=6 B1a=7 C=8.
func sampleData() *Data {
	return &Data{Name: "Root", Children: []*Data{
		{Name: "A", Children: []*Data{{Name: "A1"}, {Name: "A2"}}},
		{Name: "B", Children: []*Data{{Name: "B1", Children: []*Data{{Name: "B1a"}}}}},
		{Name: "C"},
	}}
}

func mustBuild(t *testing.T, d *Data, opts ...BuildOption) *Tree {
	t.Helper()
	tree, err := Build(d, opts...)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

func visibleNames(t *Tree) []string {
	var names []string
	for _, n := range t.VisibleNodes(nil) {
		names = append(names, n.Name)
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildAssignsPreOrderIDs(t *testing.T) {
	tree := mustBuild(t, sampleData())
	want := []string{"Root", "A", "A1", "A2", "B", "B1", "B1a", "C"}
	if tree.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", tree.Len(), len(want))
	}
	for i, name := range want {
		n := tree.Node(uint32(i + 1))
		if n == nil || n.Name != name {
			t.Errorf("Node(%d) = %v, want %s", i+1, n, name)
		}
	}
	if tree.Node(0) != nil {
		t.Error("Node(0) should be nil; zero is never a valid id")
	}
	if tree.Node(99) != nil {
		t.Error("Node(99) should be nil")
	}
}

func TestBuildDepthAndParent(t *testing.T) {
	tree := mustBuild(t, sampleData())
	b1a := tree.Find("B1a")
	if b1a.Depth != 3 {
		t.Errorf("B1a depth = %d, want 3", b1a.Depth)
	}
	if b1a.Parent.Name != "B1" || b1a.Parent.Parent.Name != "B" {
		t.Errorf("B1a ancestry wrong")
	}
	if tree.Root().Parent != nil {
		t.Error("root parent should be nil")
	}
}

func TestBuildStartsCollapsed(t *testing.T) {
	tree := mustBuild(t, sampleData())
	if got := visibleNames(tree); !equalStrings(got, []string{"Root"}) {
		t.Errorf("visible = %v, want [Root]", got)
	}
	for _, name := range []string{"Root", "A", "B", "B1"} {
		if !tree.Find(name).Collapsed() {
			t.Errorf("%s should start collapsed", name)
		}
	}
}

func TestBuildRootExpanded(t *testing.T) {
	tree := mustBuild(t, sampleData(), WithRootExpanded())
	if got := visibleNames(tree); !equalStrings(got, []string{"Root", "A", "B", "C"}) {
		t.Errorf("visible = %v, want [Root A B C]", got)
	}
	tree.ExpandAll()
	tree.CollapseAll()
	if got := visibleNames(tree); !equalStrings(got, []string{"Root", "A", "B", "C"}) {
		t.Errorf("after CollapseAll visible = %v, want [Root A B C]", got)
	}
}

func TestBuildRejectsInvalidLiterals(t *testing.T) {
	cyclic := &Data{Name: "R"}
	cyclic.Children = []*Data{{Name: "A", Children: []*Data{cyclic}}}

	shared := &Data{Name: "S"}
	sharedRoot := &Data{Name: "R", Children: []*Data{
		{Name: "A", Children: []*Data{shared}},
		{Name: "B", Children: []*Data{shared}},
	}}

	tests := []struct {
		name string
		data *Data
		want error
	}{
		{"nil root", nil, ErrMissingName},
		{"cycle", cyclic, ErrCycle},
		{"shared", sharedRoot, ErrSharedNode},
		{"nil child", &Data{Name: "R", Children: []*Data{nil}}, ErrNilChild},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Build(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tree != nil {
				t.Error("no tree should be produced for an invalid literal")
			}
		})
	}
}

func TestChildrenDisjoint(t *testing.T) {
	tree := mustBuild(t, sampleData())
	check := func(stage string) {
		tree.Walk(func(n *TreeNode) {
			vis, hid := n.VisibleChildren(), n.HiddenChildren()
			if len(vis) > 0 && len(hid) > 0 {
				t.Errorf("%s: %s has both visible and hidden children", stage, n.Name)
			}
			if len(vis)+len(hid) != len(n.Children()) {
				t.Errorf("%s: %s visible+hidden = %d, want %d", stage, n.Name, len(vis)+len(hid), len(n.Children()))
			}
		})
	}
	check("initial")
	tree.ExpandAll()
	check("expandAll")
	_ = tree.Toggle(tree.Find("B"))
	check("toggle B")
	tree.CollapseAll()
	check("collapseAll")
}

func TestToggleOneLevel(t *testing.T) {
	tree := mustBuild(t, sampleData())
	root := tree.Root()

	if err := tree.Toggle(root); err != nil {
		t.Fatal(err)
	}
	if got := visibleNames(tree); !equalStrings(got, []string{"Root", "A", "B", "C"}) {
		t.Fatalf("visible = %v, want [Root A B C]", got)
	}
	if !tree.Find("A").Collapsed() {
		t.Error("toggle must not expand descendants")
	}

	_ = tree.Toggle(tree.Find("B"))
	_ = tree.Toggle(tree.Find("B1"))
	if got := visibleNames(tree); !equalStrings(got, []string{"Root", "A", "B", "B1", "B1a", "C"}) {
		t.Fatalf("visible = %v", got)
	}

	// Collapsing B hides B1 but keeps B1's own expanded flag.
	_ = tree.Toggle(tree.Find("B"))
	if !tree.Find("B1").Expanded() {
		t.Error("B1 should keep its expanded state when an ancestor collapses")
	}
	_ = tree.Toggle(tree.Find("B"))
	if got := visibleNames(tree); !equalStrings(got, []string{"Root", "A", "B", "B1", "B1a", "C"}) {
		t.Errorf("re-expanding B should restore B1a, got %v", got)
	}
}

func TestToggleLeafIsNoop(t *testing.T) {
	tree := mustBuild(t, sampleData())
	tree.ExpandAll()
	before := tree.VisibilityState()
	if err := tree.Toggle(tree.Find("C")); err != nil {
		t.Fatal(err)
	}
	if !maps.Equal(before, tree.VisibilityState()) {
		t.Error("toggling a leaf changed visibility")
	}
	c := tree.Find("C")
	if c.Expanded() || c.Collapsed() {
		t.Error("a leaf is neither expanded nor collapsed")
	}
}

func TestUnknownNode(t *testing.T) {
	tree := mustBuild(t, sampleData())
	other := mustBuild(t, sampleData())
	foreign := other.Find("A")

	for name, fn := range map[string]func(*TreeNode) error{
		"Toggle":   tree.Toggle,
		"Collapse": tree.Collapse,
		"Expand":   tree.Expand,
	} {
		before := tree.VisibilityState()
		if err := fn(foreign); !errors.Is(err, ErrUnknownNode) {
			t.Errorf("%s(foreign) err = %v, want ErrUnknownNode", name, err)
		}
		if err := fn(nil); !errors.Is(err, ErrUnknownNode) {
			t.Errorf("%s(nil) err = %v, want ErrUnknownNode", name, err)
		}
		if !maps.Equal(before, tree.VisibilityState()) {
			t.Errorf("%s with unknown node changed state", name)
		}
	}
}

func TestExpandAllCollapseAllRoundTrip(t *testing.T) {
	tree := mustBuild(t, sampleData())
	initial := tree.VisibilityState()

	tree.ExpandAll()
	if tree.Len() != len(tree.VisibleNodes(nil)) {
		t.Errorf("ExpandAll should show all %d nodes, got %d", tree.Len(), len(tree.VisibleNodes(nil)))
	}
	tree.CollapseAll()
	if !maps.Equal(initial, tree.VisibilityState()) {
		t.Errorf("round trip state = %v, want %v", tree.VisibilityState(), initial)
	}
}

func TestResetIdempotent(t *testing.T) {
	tree := mustBuild(t, sampleData())
	_ = tree.Toggle(tree.Root())
	_ = tree.Toggle(tree.Find("A"))
	tree.Reset()
	once := tree.VisibilityState()
	tree.Reset()
	if !maps.Equal(once, tree.VisibilityState()) {
		t.Error("Reset is not idempotent")
	}
}

func TestCollapseRecursesIntoHiddenChildren(t *testing.T) {
	tree := mustBuild(t, sampleData())
	tree.ExpandAll()
	if err := tree.Collapse(tree.Find("B")); err != nil {
		t.Fatal(err)
	}
	if !tree.Find("B1").Collapsed() {
		t.Error("Collapse(B) should collapse B1 too")
	}
	if err := tree.Expand(tree.Find("B")); err != nil {
		t.Fatal(err)
	}
	if !tree.Find("B1").Expanded() {
		t.Error("Expand(B) should expand B1 too")
	}
}

func TestFindAndContains(t *testing.T) {
	tree := mustBuild(t, sampleData())
	if tree.Find("nope") != nil {
		t.Error("Find(nope) should be nil")
	}
	a := tree.Find("A")
	if !tree.Contains(a) {
		t.Error("tree should contain its own node")
	}
	impostor := &TreeNode{ID: a.ID, Name: "A"}
	if tree.Contains(impostor) {
		t.Error("a node with a matching id but different identity must not be contained")
	}
}
