package debug

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/ripple/atom"
)

// Nested is a signal together with the signals it leads to.
type Nested struct {
	Signal   atom.Signal
	Children []Nested
}

// Labels mirrors the tree with debug labels: a plain string for a leaf,
// otherwise a slice whose head is the label.
func (n Nested) Labels() any {
	if len(n.Children) == 0 {
		return atom.LabelOf(n.Signal)
	}
	out := make([]any, 0, len(n.Children)+1)
	out = append(out, atom.LabelOf(n.Signal))
	for _, c := range n.Children {
		out = append(out, c.Labels())
	}
	return out
}

// String renders label[child, child].
func (n Nested) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n Nested) write(sb *strings.Builder) {
	sb.WriteString(atom.LabelOf(n.Signal))
	if len(n.Children) == 0 {
		return
	}
	sb.WriteByte('[')
	for i, c := range n.Children {
		if i > 0 {
			sb.WriteString(", ")
		}
		c.write(sb)
	}
	sb.WriteByte(']')
}

// Digest fingerprints the shape of the tree by signal id. Equal digests in
// the same process mean the same graph.
func (n Nested) Digest() uint64 {
	d := xxhash.New()
	n.digest(d)
	return d.Sum64()
}

func (n Nested) digest(d *xxhash.Digest) {
	d.WriteString(strconv.FormatUint(n.Signal.ID(), 10))
	d.WriteString("(")
	for _, c := range n.Children {
		c.digest(d)
		d.WriteString(",")
	}
	d.WriteString(")")
}

// LabelRows maps rows of signals, as returned by SubscribeGraph, to labels.
func LabelRows(rows [][]atom.Signal) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, s := range row {
			out[i][j] = atom.LabelOf(s)
		}
	}
	return out
}

// LabelEdges renders edges as from -> to pairs of labels.
func LabelEdges(edges []Edge) [][2]string {
	out := make([][2]string, len(edges))
	for i, e := range edges {
		out[i] = [2]string{atom.LabelOf(e.From), atom.LabelOf(e.To)}
	}
	return out
}
