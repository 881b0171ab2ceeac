// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package evolution

// StageTree is the branch-aware resolution of a chain: every child is kept.
type StageTree struct {
	Stage    Stage        `json:"stage"`
	Children []*StageTree `json:"children,omitempty"`
}

// ResolveTree resolves every branch of the chain rooted at root.
// It returns nil for a nil root. Nodes reachable twice are only expanded once.
// A node whose first successor is nil or already visited is a leaf, as in
// Resolve, so the first path always matches Resolve.
func ResolveTree(root *Node) *StageTree {
	if root == nil {
		return nil
	}
	return buildTree(root, make(map[*Node]struct{}))
}

func buildTree(n *Node, seen map[*Node]struct{}) *StageTree {
	seen[n] = struct{}{}
	t := &StageTree{Stage: stageOf(n)}
	if len(n.Next) == 0 || n.Next[0] == nil {
		return t
	}
	if _, dup := seen[n.Next[0]]; dup {
		return t
	}
	for _, child := range n.Next {
		if child == nil {
			continue
		}
		if _, dup := seen[child]; dup {
			continue
		}
		t.Children = append(t.Children, buildTree(child, seen))
	}
	return t
}

// Paths flattens the tree into every root-to-leaf path, in input order.
// The first path equals Resolve on the same input.
func (t *StageTree) Paths() [][]Stage {
	if t == nil {
		return [][]Stage{}
	}
	var out [][]Stage
	var walk func(node *StageTree, prefix []Stage)
	walk = func(node *StageTree, prefix []Stage) {
		path := make([]Stage, len(prefix), len(prefix)+1)
		copy(path, prefix)
		path = append(path, node.Stage)
		if len(node.Children) == 0 {
			out = append(out, path)
			return
		}
		for _, c := range node.Children {
			walk(c, path)
		}
	}
	walk(t, nil)
	return out
}

// Branching reports whether any stage has more than one successor.
func (t *StageTree) Branching() bool {
	if t == nil {
		return false
	}
	if len(t.Children) > 1 {
		return true
	}
	for _, c := range t.Children {
		if c.Branching() {
			return true
		}
	}
	return false
}
