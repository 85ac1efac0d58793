package wad

import (
	"fmt"
	"io"
)

// PrintTree writes the node tree to out in a clear format, for debugging.
func (t *BSPTree) PrintTree(out io.Writer) {
	var printRecursive func(NodeChild, string)
	printRecursive = func(ref NodeChild, prefix string) {
		if ref.IsSubSector() {
			num := ref.Num()
			if num >= len(t.level.SubSectors) {
				fmt.Fprintf(out, "%s- subsector %d (out of range)\n", prefix, num)
				return
			}
			fmt.Fprintf(out, "%s- subsector %d (%d segs)\n", prefix, num, len(t.level.SubSectors[num].LineSegments))
			return
		}
		num := ref.Num()
		if num >= len(t.level.Nodes) {
			fmt.Fprintf(out, "%s- node %d (out of range)\n", prefix, num)
			return
		}
		n := &t.level.Nodes[num]
		fmt.Fprintf(out, "%s- node %d (%v,%v)+(%v,%v)\n", prefix, num, n.X, n.Y, n.DX, n.DY)
		printRecursive(n.ChildR, prefix+"   ")
		printRecursive(n.ChildL, prefix+"   ")
	}

	if len(t.level.Nodes) == 0 {
		fmt.Fprintln(out, "- no nodes")
		return
	}
	printRecursive(NodeChild(len(t.level.Nodes)-1), "")
}
