package mergeengine

// Coalesce merges adjacent Delete+Insert (or Insert+Delete) pairs covering
// the same position into a single Replace op. The Myers backtrack already
// groups deletes before inserts at a given point, so in practice this
// collapses a Delete run immediately followed by an Insert run; the
// Insert-then-Delete case is handled too for scripts built by other means.
func Coalesce(ops *[]DiffOp) {
	in := *ops
	out := make([]DiffOp, 0, len(in))

	i := 0
	for i < len(in) {
		cur := in[i]
		if i+1 < len(in) {
			next := in[i+1]
			if cur.Kind == OpDelete && next.Kind == OpInsert && cur.OldEnd == next.OldStart && cur.NewStart == next.NewStart {
				out = append(out, DiffOp{
					Kind:     OpReplace,
					OldStart: cur.OldStart, OldEnd: cur.OldEnd,
					NewStart: next.NewStart, NewEnd: next.NewEnd,
				})
				i += 2
				continue
			}
			if cur.Kind == OpInsert && next.Kind == OpDelete && cur.NewEnd == next.NewStart && cur.OldStart == next.OldStart {
				out = append(out, DiffOp{
					Kind:     OpReplace,
					OldStart: next.OldStart, OldEnd: next.OldEnd,
					NewStart: cur.NewStart, NewEnd: cur.NewEnd,
				})
				i += 2
				continue
			}
		}
		out = append(out, cur)
		i++
	}
	*ops = out
}
