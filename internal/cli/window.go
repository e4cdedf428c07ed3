package cli

import (
	"github.com/clipdeck/clipdeck/internal/perf"
)

// listWindow is the range of rows rendered for one frame. Rows in
// [start, end) are rendered; the ones outside [first, last] are overscan
// and only warm the row caches.
type listWindow struct {
	start, end  int
	first, last int
}

// computeWindow finds the rows covering height lines from scrollTop and
// widens that range by overscan rows on each side.
func computeWindow(heights *perf.RowHeightCache, count, scrollTop, height, overscan int) listWindow {
	if count <= 0 || height <= 0 {
		return listWindow{}
	}

	first := heights.IndexAt(scrollTop, count)
	last := first
	y := heights.Offset(first)
	for last < count {
		y += heights.Get(last)
		if y >= scrollTop+height {
			break
		}
		last++
	}
	if last >= count {
		last = count - 1
	}

	return listWindow{
		start: max(0, first-overscan),
		end:   min(count, last+overscan+1),
		first: first,
		last:  last,
	}
}

// scrollToReveal returns the smallest scroll change that keeps row index
// fully visible.
func scrollToReveal(heights *perf.RowHeightCache, index, scrollTop, height int) int {
	top := heights.Offset(index)
	bottom := top + heights.Get(index)
	switch {
	case top < scrollTop:
		return top
	case bottom > scrollTop+height:
		return max(0, bottom-height)
	}
	return scrollTop
}

// clampScroll keeps scrollTop inside the list.
func clampScroll(heights *perf.RowHeightCache, count, scrollTop, height int) int {
	maxTop := heights.Offset(count) - height
	if scrollTop > maxTop {
		scrollTop = maxTop
	}
	return max(0, scrollTop)
}
