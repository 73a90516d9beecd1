package pipeline

import (
	"slices"
)

// trieNode is one state value at one depth.
type trieNode struct {
	children map[uint64]*trieNode
	pipeline Handle
}

func (n *trieNode) child(v uint64) (*trieNode, bool) {
	if c, ok := n.children[v]; ok {
		return c, false
	}
	if n.children == nil {
		n.children = make(map[uint64]*trieNode, 1)
	}
	c := &trieNode{}
	n.children[v] = c
	return c, true
}

// Trie is the default strategy. It keeps the node reached after every slot
// of the previous lookup, so a lookup only walks the suffix starting at the
// lowest dirty slot.
//
// Nodes are never removed; Reset drops the whole tree.
type Trie struct {
	root  *trieNode
	stack [NumStates + 1]*trieNode
	depth int

	nodes     int
	pipelines int
}

// NewTrie creates an empty trie.
func NewTrie() *Trie {
	t := &Trie{}
	t.Reset()
	return t
}

// Lookup walks the trie from dirtyFrom, creating nodes for unseen values.
func (t *Trie) Lookup(states []uint64, dirtyFrom int) (Token, Handle) {
	start := min(max(dirtyFrom, 0), t.depth, len(states))
	n := t.stack[start]
	for i := start; i < len(states); i++ {
		var created bool
		n, created = n.child(states[i])
		if created {
			t.nodes++
		}
		t.stack[i+1] = n
	}
	t.depth = len(states)
	return n, n.pipeline
}

// Store sets the pipeline of the node returned by Lookup.
func (t *Trie) Store(tok Token, h Handle) {
	n, ok := tok.(*trieNode)
	if !ok || n == nil {
		return
	}
	if n.pipeline == nil {
		t.pipelines++
	}
	n.pipeline = h
}

// Len returns the number of stored pipelines.
func (t *Trie) Len() int {
	return t.pipelines
}

// Reset drops every node.
func (t *Trie) Reset() {
	t.root = &trieNode{}
	t.stack = [NumStates + 1]*trieNode{}
	t.stack[0] = t.root
	t.depth = 0
	t.nodes = 0
	t.pipelines = 0
}

// NodeCounts returns the number of nodes (root excluded) and the number of
// nodes holding a pipeline.
func (t *Trie) NodeCounts() (nodes, pipelines int) {
	return t.nodes, t.pipelines
}

// Paths returns the state sequence of every stored pipeline, ordered by
// state values.
func (t *Trie) Paths() [][]uint64 {
	var out [][]uint64
	var walk func(n *trieNode, path []uint64)
	walk = func(n *trieNode, path []uint64) {
		if n.pipeline != nil {
			out = append(out, slices.Clone(path))
		}
		keys := make([]uint64, 0, len(n.children))
		for k := range n.children {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			walk(n.children[k], append(path, k))
		}
	}
	walk(t.root, nil)
	return out
}
