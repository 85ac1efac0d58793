package wad

import (
	"github.com/pkg/errors"
)

// PlaneSide classifies a point against a node's partition line.
type PlaneSide int

const (
	SideFront PlaneSide = iota
	SideBack
)

// Other returns the opposite side.
func (s PlaneSide) Other() PlaneSide {
	return s ^ 1
}

// subSectorBit marks a node child reference as a leaf.
const subSectorBit = 0x8000

// NodeChild is a BSP child reference as stored on disk: a node index, or a
// subsector index with the 0x8000 bit set.
type NodeChild uint16

// IsSubSector reports whether the reference is a leaf.
func (c NodeChild) IsSubSector() bool {
	return c&subSectorBit != 0
}

// Num returns the referenced index with the leaf bit masked off.
func (c NodeChild) Num() int {
	return int(c &^ subSectorBit)
}

// PointSide classifies the point against the node's partition line. A
// point exactly on the line classifies as SideBack; that is a convention,
// not a derived property, and the traversal order depends on it.
func (n *Node) PointSide(x, y float64) PlaneSide {
	cross := (x-n.X)*n.DY - (y-n.Y)*n.DX
	if cross <= 0 {
		return SideBack
	}
	return SideFront
}

// Child returns the child reference on a side of the partition. The right
// child lies on the front side.
func (n *Node) Child(s PlaneSide) NodeChild {
	if s == SideFront {
		return n.ChildR
	}
	return n.ChildL
}

// BoundBox returns the bounding box of the half-space on a side.
func (n *Node) BoundBox(s PlaneSide) *BoundBox {
	if s == SideFront {
		return &n.BBoxR
	}
	return &n.BBoxL
}

// Visitor receives each convex leaf reached by Traverse together with its
// contiguous run of line segments.
type Visitor func(subSectorNum int, segs []LineSegment)

// BSPTree walks the node tree of a published level. It holds no copies of
// the geometry, only the level snapshot it was built from, so concurrent
// traversals with independent viewpoints are safe even while ChangeMap
// publishes a newer level.
type BSPTree struct {
	level *Level
}

// NewBSPTree returns a tree over the level's node, subsector and seg
// arrays. The root is the last node.
func NewBSPTree(l *Level) *BSPTree {
	return &BSPTree{level: l}
}

// RootNode returns the root node index, or -1 for a map with no nodes.
func (t *BSPTree) RootNode() int {
	return len(t.level.Nodes) - 1
}

// Traverse walks the tree depth first from the root, invoking visit once
// per leaf. At every node the child on the viewpoint's side of the
// partition is visited before the far child; only the order depends on the
// viewpoint, never the set of leaves. A malformed tree (index out of
// range, or more node visits than nodes, which means a cycle) aborts with
// ErrFormat; visits already made are not undone.
func (t *BSPTree) Traverse(x, y float64, visit Visitor) error {
	l := t.level
	if len(l.Nodes) == 0 {
		// Degenerate map: a single implicit subsector.
		if len(l.SubSectors) > 0 {
			visit(0, l.SubSectors[0].LineSegments)
		}
		return nil
	}

	// Iterative walk with an explicit work stack, so depth is bounded by
	// memory rather than call-stack frames.
	budget := len(l.Nodes)
	stack := make([]NodeChild, 0, 64)
	stack = append(stack, NodeChild(len(l.Nodes)-1))
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if ref.IsSubSector() {
			num := ref.Num()
			if num >= len(l.SubSectors) {
				return errors.Wrapf(ErrFormat, "subsector %d out of range [0,%d)", num, len(l.SubSectors))
			}
			visit(num, l.SubSectors[num].LineSegments)
			continue
		}

		num := ref.Num()
		if num >= len(l.Nodes) {
			return errors.Wrapf(ErrFormat, "node %d out of range [0,%d)", num, len(l.Nodes))
		}
		if budget--; budget < 0 {
			return errors.Wrapf(ErrFormat, "more node visits than the %d nodes, tree has a cycle", len(l.Nodes))
		}
		n := &l.Nodes[num]
		near := n.PointSide(x, y)
		// LIFO: push the far child first so the near child pops first.
		stack = append(stack, n.Child(near.Other()), n.Child(near))
	}
	return nil
}
