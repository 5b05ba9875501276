package classifier

import (
	"github.com/zyxue/biobloom/bloomfilter"
	"github.com/zyxue/biobloom/kmer"
	"github.com/zyxue/biobloom/utils"
)

// scratch is per-worker scanning state: one k-mer processor per filter
// group plus reusable hash and membership buffers. Never shared.
type scratch struct {
	procs   []*kmer.Processor
	hv      []uint64
	results []bool
	counts  []int
}

func (c *Classifier) newScratch() *scratch {
	sc := &scratch{}
	for _, mf := range c.groups {
		sc.procs = append(sc.procs, kmer.NewProcessor(mf.KmerSize))
	}
	return sc
}

// scoreRead fills hits with the per-filter score of one read, evaluating
// every filter group on its own k-mer size.
func (c *Classifier) scoreRead(seq []byte, sc *scratch, hits map[string]float64) {
	for _, id := range c.filterIDs {
		hits[id] = 0
	}
	for gi, mf := range c.groups {
		if c.opt.MinHitOnly {
			c.evaluateRead(seq, mf, sc.procs[gi], sc, hits)
		} else {
			c.evaluateReadStd(seq, mf, sc.procs[gi], hits)
		}
	}
}

// evaluateRead is the fast path: strict non-overlapping tiles starting at
// the centered offset, one shared hash pass per tile for the whole group.
// Ambiguous tiles are skipped. Score is matching tiles over the dense
// window count, so it stays comparable with the standard path.
func (c *Classifier) evaluateRead(seq []byte, mf *bloomfilter.MultiFilter, proc *kmer.Processor, sc *scratch, hits map[string]float64) {
	k := mf.KmerSize
	seqLen := len(seq)
	sc.counts = sc.counts[:0]
	for range mf.FilterIDs {
		sc.counts = append(sc.counts, 0)
	}
	mod := (seqLen % k) / 2
	for n := 0; (n+1)*k <= seqLen; n++ {
		kb := proc.PrepSeq(seq, n*k+mod)
		if kb == nil {
			continue
		}
		sc.hv = mf.Hash(kb, sc.hv)
		sc.results = mf.MultiContains(sc.hv, sc.results)
		for i, hit := range sc.results {
			if hit {
				sc.counts[i]++
			}
		}
	}
	normalization := float64(utils.MaxInt(1, seqLen-k+1))
	for i, id := range mf.FilterIDs {
		hits[id] = float64(sc.counts[i]) / normalization
	}
}

// evaluateReadStd runs the two-phase scan per filter: a tiled screening
// gate when minHit is set, then the streak-aware dense scan.
func (c *Classifier) evaluateReadStd(seq []byte, mf *bloomfilter.MultiFilter, proc *kmer.Processor, hits map[string]float64) {
	k := mf.KmerSize
	seqLen := len(seq)
	normalization := float64(utils.MaxInt(1, seqLen-k+1))
	threshold := c.opt.ScoreThreshold * normalization

	for _, id := range mf.FilterIDs {
		bf := mf.GetFilter(id)

		pass := c.opt.MinHit == 0
		if !pass {
			screeningHits := 0
			for loc := (seqLen % k) / 2; loc+k <= seqLen; loc += k {
				kb := proc.PrepSeq(seq, loc)
				if kb != nil && bf.Contains(kb) {
					screeningHits++
					if screeningHits >= c.opt.MinHit {
						pass = true
						break
					}
				}
			}
		}
		if !pass {
			continue
		}

		// Dense scan. A hit opens or extends a streak and earns
		// 0.5, 0.75, 0.83, ... so isolated false-positive tiles get
		// little credit. A miss after a long streak jumps a whole
		// tile; an ambiguous window always jumps past itself and
		// drops the streak.
		loc := 0
		score := 0.0
		streak := 0
		for loc+k <= seqLen {
			kb := proc.PrepSeq(seq, loc)
			if kb == nil {
				loc += k + 1
				streak = 0
				continue
			}
			hit := bf.Contains(kb)
			if streak == 0 {
				if hit {
					score += 0.5
					streak = 1
				}
				loc++
			} else if hit {
				streak++
				score += 1 - 1/float64(2*streak)
				loc++
				if score >= threshold {
					break
				}
			} else {
				if streak < c.opt.StreakThreshold {
					loc++
				} else {
					loc += k
				}
				streak = 0
			}
		}
		hits[id] = score / normalization
	}
}
