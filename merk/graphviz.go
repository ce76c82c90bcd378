package merk

import (
	"context"
	"fmt"
	"io"

	"github.com/grovedb/grovedb/hash"
)

const shortHashChars = 8

// shortHash renders the first shortHashChars hex characters of a hash, for
// compact GraphViz labels.
func shortHash(h hash.Hash) string {
	s := h.Hex()
	if len(s) < shortHashChars {
		return s
	}
	return s[:shortHashChars] + "..."
}

// GraphViz writes a GraphViz "dot" rendering of the subtree to w: one node
// per Merk node, labeled with its key and a shortened hash, with edges to
// whichever children it has. A debugging aid only, not part of any
// authenticated path.
func (m *Merk) GraphViz(ctx context.Context, w io.Writer) error {
	fmt.Fprint(w, "digraph hierarchy {\nnode [fontname=Monospace,fontsize=10,shape=box]\n")
	empties := 0
	err := m.WalkNodes(ctx, func(n VisitedNode) error {
		label := fmt.Sprintf("%s\\n%s", n.Key, shortHash(n.Hash))
		fmt.Fprintf(w, "%q [label=%q,style=filled];\n", n.Hash.Hex(), label)

		left := n.LeftHash.Hex()
		if !n.HasLeft {
			left = fmt.Sprintf("empty%d", empties)
			fmt.Fprintf(w, "%q [style=dashed,label=0];\n", left)
			empties++
		}
		right := n.RightHash.Hex()
		if !n.HasRight {
			right = fmt.Sprintf("empty%d", empties)
			fmt.Fprintf(w, "%q [style=dashed,label=0];\n", right)
			empties++
		}
		fmt.Fprintf(w, "%q -> {%q %q}\n", n.Hash.Hex(), left, right)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprint(w, "}\n")
	return nil
}
