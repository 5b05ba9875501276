package classifier

import (
	"fmt"
	"strings"
)

const (
	NoMatch    = "noMatch"
	MultiMatch = "multiMatch"
)

// qualifies: a zero score never qualifies, so threshold 0 means "any hit".
func (c *Classifier) qualifies(score float64) bool {
	if score <= 0 {
		return false
	}
	if c.opt.MinHitOnly {
		return true
	}
	return score >= c.opt.ScoreThreshold
}

func (c *Classifier) scoreSuffix(score float64) string {
	if !c.opt.WithScore {
		return ""
	}
	return fmt.Sprintf(" %g", score)
}

// multiSuffix lists every per-filter score in filter order.
func (c *Classifier) multiSuffix(hits map[string]float64) string {
	if !c.opt.WithScore {
		return ""
	}
	var sb strings.Builder
	for _, id := range c.filterIDs {
		fmt.Fprintf(&sb, " %g", hits[id])
	}
	return sb.String()
}

// classify reduces one read's hit vector to a category. suffix is the
// id decoration written with the read when score output is on.
func (c *Classifier) classify(hits map[string]float64) (category, suffix string) {
	if c.opt.ScoreThreshold == 1.0 {
		// best hit: ties go to the earlier filter
		best := ""
		bestScore := 0.0
		for _, id := range c.filterIDs {
			if hits[id] > bestScore {
				best, bestScore = id, hits[id]
			}
		}
		if best == "" {
			return NoMatch, ""
		}
		return best, c.scoreSuffix(bestScore)
	}

	if c.opt.Collab {
		sum := 0.0
		top := ""
		topScore := 0.0
		for _, id := range c.filterIDs {
			s := hits[id]
			sum += s
			if s > topScore {
				top, topScore = id, s
			}
		}
		if top != "" && c.qualifies(sum) {
			return top, c.scoreSuffix(topScore)
		}
		return NoMatch, ""
	}

	var winner string
	qualifiers := 0
	for _, id := range c.filterIDs {
		if c.qualifies(hits[id]) {
			qualifiers++
			if qualifiers == 1 {
				winner = id
			}
			if c.opt.Ordered {
				break
			}
		}
	}
	switch {
	case qualifiers == 0:
		return NoMatch, ""
	case qualifiers == 1:
		return winner, c.scoreSuffix(hits[winner])
	default:
		return MultiMatch, c.multiSuffix(hits)
	}
}

// classifyPair reduces the two per-mate categories to one pair category.
func (c *Classifier) classifyPair(hits1, hits2 map[string]float64) (category string, suffix [2]string) {
	c1, s1 := c.classify(hits1)
	c2, s2 := c.classify(hits2)
	suffix = [2]string{s1, s2}
	if c1 == c2 {
		return c1, suffix
	}
	if c.opt.Inclusive {
		if c1 == NoMatch {
			return c2, suffix
		}
		if c2 == NoMatch {
			return c1, suffix
		}
		return MultiMatch, suffix
	}
	if c1 == NoMatch || c2 == NoMatch {
		return NoMatch, suffix
	}
	return MultiMatch, suffix
}
