package markdown

import "strings"

// windows cuts text into pieces of at most budget tokens. Consecutive
// pieces share up to c.overlap tokens of trailing lines.
func (c *Chunker) windows(text string, budget int) []string {
	if c.tok.Count(text) <= budget {
		return []string{text}
	}
	overlap := min(c.overlap, budget/2)

	var (
		out     []string
		current []string
		costs   []int
		used    int
		carried int // tokens of current that repeat the previous window
	)
	flush := func() {
		out = append(out, strings.TrimSpace(strings.Join(current, "")))

		keep, kept := len(current), 0
		for keep > 0 && kept+costs[keep-1] <= overlap {
			keep--
			kept += costs[keep]
		}
		current = append([]string(nil), current[keep:]...)
		costs = append([]int(nil), costs[keep:]...)
		used, carried = kept, kept
	}

	for _, seg := range c.segments(text, budget) {
		cost := c.tok.Count(seg)
		if used+cost > budget {
			if used > carried {
				flush()
			}
			if used+cost > budget {
				current, costs, used, carried = nil, nil, 0, 0
			}
		}
		current = append(current, seg)
		costs = append(costs, cost)
		used += cost
	}
	if used > carried {
		out = append(out, strings.TrimSpace(strings.Join(current, "")))
	}
	return out
}

// segments splits text into lines (keeping their newline), breaking any
// line that alone exceeds budget into rune runs that fit.
func (c *Chunker) segments(text string, budget int) []string {
	var out []string
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		if c.tok.Count(line) <= budget {
			out = append(out, line)
			continue
		}
		out = append(out, c.splitLong(line, budget)...)
	}
	return out
}

// splitLong breaks a single oversized line into runs of at most budget tokens.
func (c *Chunker) splitLong(line string, budget int) []string {
	var out []string
	runes := []rune(line)
	for len(runes) > 0 {
		lo, hi := 1, len(runes)
		for lo < hi {
			mid := (lo + hi + 1) / 2
			if c.tok.Count(string(runes[:mid])) <= budget {
				lo = mid
			} else {
				hi = mid - 1
			}
		}
		out = append(out, string(runes[:lo]))
		runes = runes[lo:]
	}
	return out
}
