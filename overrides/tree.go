// Package overrides holds the manual override layer of the forecast: per-cell
// values, row locks and column locks, plus the generic tree merge used when a
// persisted snapshot is loaded back into memory.
package overrides

// Tree is a generic string-keyed tree. Interior nodes are Tree or
// map[string]any values; everything else, slices included, is a leaf.
type Tree map[string]any

// asTree returns v as a Tree when it is an interior node.
func asTree(v any) (Tree, bool) {
	switch t := v.(type) {
	case Tree:
		return t, true
	case map[string]any:
		return Tree(t), true
	default:
		return nil, false
	}
}

// Clone returns a deep copy of the interior nodes of t. Leaves are shared.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for k, v := range t {
		if sub, ok := asTree(v); ok {
			out[k] = sub.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// Merge returns the recursive union of target and source. Source keys take
// precedence at every level:
//   - both values interior: merged recursively
//   - source interior, target leaf or missing: source subtree copied in
//   - source leaf: replaces whatever target held
//
// Neither input is modified.
func Merge(target, source Tree) Tree {
	out := target.Clone()
	if out == nil {
		out = make(Tree, len(source))
	}
	for k, sv := range source {
		sub, ok := asTree(sv)
		if !ok {
			out[k] = sv
			continue
		}
		if existing, ok := asTree(out[k]); ok {
			out[k] = Merge(existing, sub)
			continue
		}
		out[k] = sub.Clone()
	}
	return out
}
