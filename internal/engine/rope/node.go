package rope

import "strings"

// Tree shape constants.
const (
	// MaxChildren is the maximum children per internal node before splitting.
	MaxChildren = 8

	// MaxChunksPerLeaf is the maximum chunks in a leaf node.
	MaxChunksPerLeaf = 4
)

// node is a node of the rope B+ tree. Leaves (height 0) hold chunks,
// internal nodes hold children together with a cached summary per child.
type node struct {
	height  uint8
	summary Summary

	children       []*node
	childSummaries []Summary

	chunks []Chunk
}

func newLeaf(chunks []Chunk) *node {
	n := &node{chunks: chunks}
	for _, c := range chunks {
		n.summary = n.summary.Add(c.summary)
	}
	return n
}

func newInternal(children []*node) *node {
	if len(children) == 0 {
		return newLeaf(nil)
	}
	n := &node{
		height:         children[0].height + 1,
		children:       children,
		childSummaries: make([]Summary, len(children)),
	}
	for i, child := range children {
		n.childSummaries[i] = child.summary
		n.summary = n.summary.Add(child.summary)
	}
	return n
}

func (n *node) isLeaf() bool {
	return n.height == 0
}

// length returns the character count of the subtree.
func (n *node) length() int64 {
	return n.summary.Chars
}

func (n *node) appendTo(sb *strings.Builder) {
	if n.isLeaf() {
		for _, c := range n.chunks {
			sb.WriteString(c.data)
		}
		return
	}
	for _, child := range n.children {
		child.appendTo(sb)
	}
}

// appendRange appends the characters [start, end) of the subtree.
func (n *node) appendRange(sb *strings.Builder, start, end int64) {
	if start >= end {
		return
	}
	if n.isLeaf() {
		var offset int64
		for _, c := range n.chunks {
			cEnd := offset + c.Len()
			if cEnd <= start {
				offset = cEnd
				continue
			}
			if offset >= end {
				break
			}
			sb.WriteString(c.Slice(max(start-offset, 0), min(end, cEnd)-offset))
			offset = cEnd
		}
		return
	}

	var offset int64
	for i, child := range n.children {
		cEnd := offset + n.childSummaries[i].Chars
		if cEnd <= start {
			offset = cEnd
			continue
		}
		if offset >= end {
			break
		}
		child.appendRange(sb, max(start-offset, 0), min(end, cEnd)-offset)
		offset = cEnd
	}
}

// split splits the subtree at a character offset.
func (n *node) split(offset int64) (*node, *node) {
	if offset <= 0 {
		return newLeaf(nil), n
	}
	if offset >= n.length() {
		return n, newLeaf(nil)
	}

	if n.isLeaf() {
		var left, right []Chunk
		var pos int64
		for _, c := range n.chunks {
			switch {
			case pos+c.Len() <= offset:
				left = append(left, c)
			case pos >= offset:
				right = append(right, c)
			default:
				l, r := c.Split(offset - pos)
				if !l.IsEmpty() {
					left = append(left, l)
				}
				if !r.IsEmpty() {
					right = append(right, r)
				}
			}
			pos += c.Len()
		}
		return newLeaf(left), newLeaf(right)
	}

	var left, right []*node
	var pos int64
	for i, child := range n.children {
		cLen := n.childSummaries[i].Chars
		switch {
		case pos+cLen <= offset:
			left = append(left, child)
		case pos >= offset:
			right = append(right, child)
		default:
			l, r := child.split(offset - pos)
			if l.length() > 0 {
				left = append(left, l)
			}
			if r.length() > 0 {
				right = append(right, r)
			}
		}
		pos += cLen
	}
	return joinAll(left), joinAll(right)
}

// buildFromNodes creates a balanced tree over nodes of equal height.
func buildFromNodes(nodes []*node) *node {
	switch len(nodes) {
	case 0:
		return newLeaf(nil)
	case 1:
		return nodes[0]
	}
	level := nodes
	for len(level) > 1 {
		parents := make([]*node, 0, len(level)/MaxChildren+1)
		for i := 0; i < len(level); i += MaxChildren {
			parents = append(parents, newInternal(level[i:min(i+MaxChildren, len(level))]))
		}
		level = parents
	}
	return level[0]
}

// joinAll concatenates nodes of possibly different heights in order.
func joinAll(nodes []*node) *node {
	var out *node
	for _, n := range nodes {
		out = concat(out, n)
	}
	if out == nil {
		return newLeaf(nil)
	}
	return out
}

// concat joins two subtrees, grafting the shorter one onto the facing
// spine of the taller one so the height grows only when the root splits.
func concat(left, right *node) *node {
	if left == nil || left.length() == 0 {
		if right == nil {
			return newLeaf(nil)
		}
		return right
	}
	if right == nil || right.length() == 0 {
		return left
	}

	var parts []*node
	if left.height >= right.height {
		parts = graftRight(left, right)
	} else {
		parts = graftLeft(right, left)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return newInternal(parts)
}

// graftRight appends r (no taller than l) to the right spine of l and
// returns one or two nodes of l's height.
func graftRight(l, r *node) []*node {
	if l.height == r.height {
		return mergeSiblings(l, r)
	}
	last := len(l.children) - 1
	sub := graftRight(l.children[last], r)
	children := make([]*node, 0, len(l.children)+1)
	children = append(children, l.children[:last]...)
	children = append(children, sub...)
	return splitChildren(children)
}

// graftLeft prepends l (no taller than r) to the left spine of r.
func graftLeft(r, l *node) []*node {
	if l.height == r.height {
		return mergeSiblings(l, r)
	}
	sub := graftLeft(r.children[0], l)
	children := make([]*node, 0, len(r.children)+1)
	children = append(children, sub...)
	children = append(children, r.children[1:]...)
	return splitChildren(children)
}

// mergeSiblings combines two adjacent nodes of equal height into one node,
// or two when the combination overflows. Small boundary chunks are merged.
func mergeSiblings(a, b *node) []*node {
	if !a.isLeaf() {
		children := make([]*node, 0, len(a.children)+len(b.children))
		children = append(children, a.children...)
		children = append(children, b.children...)
		return splitChildren(children)
	}

	chunks := make([]Chunk, 0, len(a.chunks)+len(b.chunks))
	chunks = append(chunks, a.chunks...)
	for i, c := range b.chunks {
		if i == 0 && len(chunks) > 0 {
			prev := chunks[len(chunks)-1]
			if len(prev.data)+len(c.data) <= MaxChunkSize {
				chunks[len(chunks)-1] = NewChunk(prev.data + c.data)
				continue
			}
		}
		chunks = append(chunks, c)
	}
	if len(chunks) <= MaxChunksPerLeaf {
		return []*node{newLeaf(chunks)}
	}
	half := len(chunks) / 2
	return []*node{newLeaf(chunks[:half:half]), newLeaf(chunks[half:])}
}

// splitChildren wraps children into one internal node, or two halves when
// there are more than MaxChildren.
func splitChildren(children []*node) []*node {
	if len(children) <= MaxChildren {
		return []*node{newInternal(children)}
	}
	half := len(children) / 2
	return []*node{newInternal(children[:half:half]), newInternal(children[half:])}
}

// leafAt descends to the leaf containing the character at offset and
// returns it with the offset relative to the leaf.
func (n *node) leafAt(offset int64) (*node, int64) {
	for !n.isLeaf() {
		idx := len(n.children) - 1
		for i, s := range n.childSummaries {
			if offset < s.Chars {
				idx = i
				break
			}
			if i < len(n.children)-1 {
				offset -= s.Chars
			}
		}
		n = n.children[idx]
	}
	return n, offset
}
