package editor

import "slices"

// MoveBefore removes the draft with LocalID dragged and reinserts it at the
// index target occupied before the move. The input is not modified. Missing
// or equal ids return an unchanged copy.
func MoveBefore(cards []Draft, dragged, target string) []Draft {
	out := slices.Clone(cards)
	if dragged == target {
		return out
	}
	from := indexOf(out, dragged)
	to := indexOf(out, target)
	if from < 0 || to < 0 {
		return out
	}
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

func indexOf(cards []Draft, localID string) int {
	return slices.IndexFunc(cards, func(d Draft) bool { return d.LocalID == localID })
}
