package classifier

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// ResultsManager accumulates per-category counts. Updated exactly once
// per read (single-end) or per pair, always from the collector goroutine.
type ResultsManager struct {
	filterIDs []string
	counts    map[string]uint64
	total     uint64
}

func NewResultsManager(filterIDs []string) *ResultsManager {
	rm := &ResultsManager{
		filterIDs: filterIDs,
		counts:    make(map[string]uint64, len(filterIDs)+2),
	}
	for _, id := range filterIDs {
		rm.counts[id] = 0
	}
	rm.counts[MultiMatch] = 0
	rm.counts[NoMatch] = 0
	return rm
}

func (rm *ResultsManager) Update(category string) {
	rm.counts[category]++
	rm.total++
}

func (rm *ResultsManager) Total() uint64 {
	return rm.total
}

func (rm *ResultsManager) Count(category string) uint64 {
	return rm.counts[category]
}

// Summary renders the TSV: filters in insertion order, then multiMatch,
// then noMatch. Fractions are of the total read (or pair) count.
func (rm *ResultsManager) Summary() string {
	var sb strings.Builder
	sb.WriteString("id\thits\tfraction\n")
	order := make([]string, 0, len(rm.filterIDs)+2)
	order = append(order, rm.filterIDs...)
	order = append(order, MultiMatch, NoMatch)
	for _, id := range order {
		cnt := rm.counts[id]
		frac := 0.0
		if rm.total > 0 {
			frac = float64(cnt) / float64(rm.total)
		}
		fmt.Fprintf(&sb, "%s\t%d\t%g\n", id, cnt, frac)
	}
	return sb.String()
}

func (rm *ResultsManager) StoreSummary(fn string) {
	fp, err := os.Create(fn)
	if err != nil {
		log.Fatalf("[StoreSummary] create file: %s failed, err: %v\n", fn, err)
	}
	defer fp.Close()
	if _, err := fp.WriteString(rm.Summary()); err != nil {
		log.Fatalf("[StoreSummary] write file: %s failed, err: %v\n", fn, err)
	}
}
