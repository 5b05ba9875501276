package classifier

import (
	"testing"

	"github.com/zyxue/biobloom/bloomfilter"
	"github.com/zyxue/biobloom/bnt"
	"github.com/zyxue/biobloom/kmer"
)

// genSeq produces a deterministic pseudo-random base string.
func genSeq(seed uint64, n int) []byte {
	s := make([]byte, n)
	x := seed
	for i := range s {
		x = x*6364136223846793005 + 1442695040888963407
		s[i] = bnt.BitNtCharUp[(x>>33)&3]
	}
	return s
}

func insertRef(bf *bloomfilter.BloomFilter, ref []byte) {
	proc := kmer.NewProcessor(bf.KmerSize)
	for i := 0; i+bf.KmerSize <= len(ref); i++ {
		if kb := proc.PrepSeq(ref, i); kb != nil {
			bf.Insert(kb)
		}
	}
}

// newTestClassifier builds a classifier over empty in-memory filters
// sharing one signature; callers fill them through the returned map.
func newTestClassifier(t *testing.T, opt Options, ids []string, hashNum, kmerSize int) (*Classifier, map[string]*bloomfilter.BloomFilter) {
	c := New(opt)
	mf := bloomfilter.NewMultiFilter(hashNum, kmerSize)
	filters := make(map[string]*bloomfilter.BloomFilter)
	for _, id := range ids {
		bf, err := bloomfilter.MakeBloomFilter(1<<18, hashNum, kmerSize)
		if err != nil {
			t.Fatalf("MakeBloomFilter failed: %v", err)
		}
		if err := mf.AddFilter(id, bf); err != nil {
			t.Fatalf("AddFilter failed: %v", err)
		}
		filters[id] = bf
		c.filterIDs = append(c.filterIDs, id)
	}
	c.groups = append(c.groups, mf)
	c.groupIdx[mf.Signature()] = 0
	return c, filters
}

func TestEvaluateReadStdMatch(t *testing.T) {
	opt := Options{ScoreThreshold: 0.15, StreakThreshold: 3, NumCPU: 1}
	c, filters := newTestClassifier(t, opt, []string{"A", "B"}, 3, 25)
	refA := genSeq(1, 300)
	insertRef(filters["A"], refA)

	sc := c.newScratch()
	hits := make(map[string]float64)
	read := refA[100:200]
	c.scoreRead(read, sc, hits)

	if hits["A"] < opt.ScoreThreshold {
		t.Errorf("score for A = %v, expect >= %v", hits["A"], opt.ScoreThreshold)
	}
	if hits["A"] > 1.01 {
		t.Errorf("score for A = %v, expect <= 1 plus overshoot", hits["A"])
	}
	if hits["B"] != 0 {
		t.Errorf("score for B = %v, expect 0", hits["B"])
	}
	cat, _ := c.classify(hits)
	if cat != "A" {
		t.Errorf("category = %s, expect A", cat)
	}
}

func TestEvaluateReadStdNoMatch(t *testing.T) {
	opt := Options{ScoreThreshold: 0.15, StreakThreshold: 3, NumCPU: 1}
	c, filters := newTestClassifier(t, opt, []string{"A"}, 3, 25)
	insertRef(filters["A"], genSeq(1, 300))

	sc := c.newScratch()
	hits := make(map[string]float64)
	c.scoreRead(genSeq(77, 100), sc, hits)
	if cat, _ := c.classify(hits); cat != NoMatch {
		t.Errorf("category = %s, expect %s", cat, NoMatch)
	}
}

func TestShortRead(t *testing.T) {
	opt := Options{ScoreThreshold: 0.15, StreakThreshold: 3, NumCPU: 1}
	c, filters := newTestClassifier(t, opt, []string{"A"}, 3, 25)
	insertRef(filters["A"], genSeq(1, 300))

	sc := c.newScratch()
	hits := make(map[string]float64)
	c.scoreRead([]byte("ACGTACGTAC"), sc, hits) // shorter than the k-mer
	if hits["A"] != 0 {
		t.Errorf("score for A = %v, expect 0", hits["A"])
	}
	if cat, _ := c.classify(hits); cat != NoMatch {
		t.Errorf("category = %s, expect %s", cat, NoMatch)
	}
}

func TestMinHitGate(t *testing.T) {
	opt := Options{ScoreThreshold: 0.15, StreakThreshold: 3, MinHit: 5, NumCPU: 1}
	c, filters := newTestClassifier(t, opt, []string{"A"}, 3, 25)
	refA := genSeq(1, 300)
	insertRef(filters["A"], refA)

	sc := c.newScratch()
	hits := make(map[string]float64)
	// 50 bp holds only two strict tiles, the gate at 5 cannot pass
	c.scoreRead(refA[100:150], sc, hits)
	if hits["A"] != 0 {
		t.Errorf("gated score for A = %v, expect 0", hits["A"])
	}

	c.opt.MinHit = 1
	c.scoreRead(refA[100:150], sc, hits)
	if hits["A"] <= 0 {
		t.Errorf("score for A = %v after passing gate, expect > 0", hits["A"])
	}
}

func TestMinHitOnly(t *testing.T) {
	opt := Options{ScoreThreshold: 0.15, StreakThreshold: 3, MinHitOnly: true, NumCPU: 1}
	c, filters := newTestClassifier(t, opt, []string{"A", "B"}, 3, 25)
	refA := genSeq(1, 300)
	insertRef(filters["A"], refA)

	sc := c.newScratch()
	hits := make(map[string]float64)
	read := refA[100:200] // 4 strict tiles, all present in A
	c.scoreRead(read, sc, hits)

	want := 4.0 / 76.0
	if hits["A"] < want-1e-9 || hits["A"] > want+1e-9 {
		t.Errorf("tile score for A = %v, expect %v", hits["A"], want)
	}
	if hits["B"] != 0 {
		t.Errorf("tile score for B = %v, expect 0", hits["B"])
	}
	if cat, _ := c.classify(hits); cat != "A" {
		t.Errorf("category = %s, expect A", cat)
	}
}

func TestThresholdZeroSingleHit(t *testing.T) {
	opt := Options{ScoreThreshold: 0, StreakThreshold: 3, NumCPU: 1}
	c, filters := newTestClassifier(t, opt, []string{"A"}, 3, 25)

	read := genSeq(5, 80)
	proc := kmer.NewProcessor(25)
	filters["A"].Insert(proc.PrepSeq(read, 10)) // plant one window

	sc := c.newScratch()
	hits := make(map[string]float64)
	c.scoreRead(read, sc, hits)
	if hits["A"] <= 0 {
		t.Errorf("score for A = %v, expect > 0 from the planted window", hits["A"])
	}
	if cat, _ := c.classify(hits); cat != "A" {
		t.Errorf("category = %s, expect A at threshold 0", cat)
	}
}

func TestAmbiguousWindowsSkipped(t *testing.T) {
	opt := Options{ScoreThreshold: 0.15, StreakThreshold: 3, NumCPU: 1}
	c, filters := newTestClassifier(t, opt, []string{"A"}, 3, 25)
	refA := genSeq(1, 300)
	insertRef(filters["A"], refA)

	read := append([]byte(nil), refA[100:200]...)
	read[50] = 'N'
	sc := c.newScratch()
	hits := make(map[string]float64)
	c.scoreRead(read, sc, hits)
	if hits["A"] < opt.ScoreThreshold {
		t.Errorf("score for A = %v with one N, expect still >= %v", hits["A"], opt.ScoreThreshold)
	}
}
