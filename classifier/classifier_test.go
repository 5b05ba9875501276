package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zyxue/biobloom/bloomfilter"
	"github.com/zyxue/biobloom/seqio"
)

const (
	testKmerSize = 25
	testHashNum  = 3
	testBits     = 1 << 18
)

func storeFilter(t *testing.T, dir, id string, ref []byte) string {
	bf, err := bloomfilter.MakeBloomFilter(testBits, testHashNum, testKmerSize)
	if err != nil {
		t.Fatalf("MakeBloomFilter failed: %v", err)
	}
	insertRef(bf, ref)
	fn := filepath.Join(dir, id+".bf")
	if err := bf.Store(fn); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	info := fmt.Sprintf("filter_id\t%s\nkmer_size\t%d\nhash_number\t%d\nfilter_size\t%d\n",
		id, testKmerSize, testHashNum, testBits)
	if err := os.WriteFile(filepath.Join(dir, id+".txt"), []byte(info), 0644); err != nil {
		t.Fatalf("write info failed: %v", err)
	}
	return fn
}

func writeFastq(t *testing.T, fn string, reads ...seqio.ReadInfo) {
	var sb strings.Builder
	for _, ri := range reads {
		fmt.Fprintf(&sb, "@%s\n%s\n+\n%s\n", ri.ID, ri.Seq, strings.Repeat("I", len(ri.Seq)))
	}
	if err := os.WriteFile(fn, []byte(sb.String()), 0644); err != nil {
		t.Fatalf("write fastq failed: %v", err)
	}
}

func TestFilterEndToEnd(t *testing.T) {
	dir := t.TempDir()
	refA := genSeq(1, 400)
	refB := genSeq(2, 400)
	fnA := storeFilter(t, dir, "A", refA)
	fnB := storeFilter(t, dir, "B", refB)

	fq := filepath.Join(dir, "reads.fq")
	writeFastq(t, fq,
		seqio.ReadInfo{ID: "r1", Seq: refA[50:150]},
		seqio.ReadInfo{ID: "r2", Seq: genSeq(99, 100)},
		seqio.ReadInfo{ID: "r3", Seq: refB[200:300]},
	)

	opt := Options{
		Prefix:          filepath.Join(dir, "out"),
		ScoreThreshold:  0.15,
		StreakThreshold: 3,
		NumCPU:          2,
		OutputType:      "fq",
		GzOutput:        true,
	}
	c := New(opt)
	if err := c.LoadFilters([]string{fnA, fnB}); err != nil {
		t.Fatalf("LoadFilters failed: %v", err)
	}
	rm := c.Filter([]string{fq})

	if rm.Total() != 3 {
		t.Fatalf("total = %d, expect 3", rm.Total())
	}
	if rm.Count("A") != 1 || rm.Count("B") != 1 || rm.Count(NoMatch) != 1 || rm.Count(MultiMatch) != 0 {
		t.Errorf("counts A=%d B=%d noMatch=%d multiMatch=%d, expect 1/1/1/0",
			rm.Count("A"), rm.Count("B"), rm.Count(NoMatch), rm.Count(MultiMatch))
	}

	b, err := os.ReadFile(filepath.Join(dir, "out_summary.tsv"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.HasPrefix(string(b), "id\thits\tfraction\n") {
		t.Errorf("summary header wrong:\n%s", b)
	}

	// the matching read landed in A's gzipped output
	rr := seqio.NewRecordReader(filepath.Join(dir, "out_A.fq.gz"))
	ri, err := rr.Read()
	if err != nil {
		t.Fatalf("read A output: %v", err)
	}
	rr.Close()
	if ri.ID != "r1" {
		t.Errorf("A output read id = %s, expect r1", ri.ID)
	}
}

func TestFilterEmptyInput(t *testing.T) {
	dir := t.TempDir()
	fnA := storeFilter(t, dir, "A", genSeq(1, 400))
	fq := filepath.Join(dir, "empty.fq")
	if err := os.WriteFile(fq, nil, 0644); err != nil {
		t.Fatalf("write empty fastq: %v", err)
	}

	opt := Options{Prefix: filepath.Join(dir, "out"), ScoreThreshold: 0.15, StreakThreshold: 3, NumCPU: 2}
	c := New(opt)
	if err := c.LoadFilters([]string{fnA}); err != nil {
		t.Fatalf("LoadFilters failed: %v", err)
	}
	rm := c.Filter([]string{fq})
	if rm.Total() != 0 {
		t.Errorf("total = %d, expect 0", rm.Total())
	}
	b, err := os.ReadFile(filepath.Join(dir, "out_summary.tsv"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.Contains(string(b), "A\t0\t0\n") {
		t.Errorf("empty-input summary missing zero row:\n%s", b)
	}
}

func TestFilterPairStrictAndInclusive(t *testing.T) {
	dir := t.TempDir()
	refA := genSeq(1, 400)
	fnA := storeFilter(t, dir, "A", refA)

	fq1 := filepath.Join(dir, "reads_1.fq")
	fq2 := filepath.Join(dir, "reads_2.fq")
	writeFastq(t, fq1, seqio.ReadInfo{ID: "p1/1", Seq: refA[100:200]})
	writeFastq(t, fq2, seqio.ReadInfo{ID: "p1/2", Seq: genSeq(55, 100)})

	opt := Options{Prefix: filepath.Join(dir, "strict"), ScoreThreshold: 0.15, StreakThreshold: 3, NumCPU: 1}
	c := New(opt)
	if err := c.LoadFilters([]string{fnA}); err != nil {
		t.Fatalf("LoadFilters failed: %v", err)
	}
	rm := c.FilterPair(fq1, fq2)
	if rm.Total() != 1 || rm.Count(NoMatch) != 1 {
		t.Errorf("strict pair counts total=%d noMatch=%d, expect 1/1", rm.Total(), rm.Count(NoMatch))
	}

	opt.Prefix = filepath.Join(dir, "incl")
	opt.Inclusive = true
	c2 := New(opt)
	if err := c2.LoadFilters([]string{fnA}); err != nil {
		t.Fatalf("LoadFilters failed: %v", err)
	}
	rm2 := c2.FilterPair(fq1, fq2)
	if rm2.Total() != 1 || rm2.Count("A") != 1 {
		t.Errorf("inclusive pair counts total=%d A=%d, expect 1/1", rm2.Total(), rm2.Count("A"))
	}
}

func TestLoadFiltersErrors(t *testing.T) {
	dir := t.TempDir()

	c := New(Options{})
	if err := c.LoadFilters([]string{filepath.Join(dir, "x.bloom")}); err == nil {
		t.Errorf("expected error for non-.bf filter path")
	}

	// .bf without its sidecar
	fn := filepath.Join(dir, "orphan.bf")
	if err := os.WriteFile(fn, make([]byte, 8), 0644); err != nil {
		t.Fatalf("write filter: %v", err)
	}
	c = New(Options{})
	err := c.LoadFilters([]string{fn})
	if err == nil {
		t.Fatalf("expected error for missing info file")
	}
	if e, ok := err.(*Error); !ok || e.Kind != FilterIntegrityError {
		t.Errorf("error = %#v, expect FilterIntegrityError", err)
	}

	// size mismatch between .bf and its info
	info := fmt.Sprintf("filter_id\torphan\nkmer_size\t%d\nhash_number\t%d\nfilter_size\t%d\n",
		testKmerSize, testHashNum, testBits)
	if err := os.WriteFile(filepath.Join(dir, "orphan.txt"), []byte(info), 0644); err != nil {
		t.Fatalf("write info: %v", err)
	}
	c = New(Options{})
	err = c.LoadFilters([]string{fn})
	if err == nil {
		t.Fatalf("expected error for filter size mismatch")
	}
	if e, ok := err.(*Error); !ok || e.Kind != FilterIntegrityError {
		t.Errorf("error = %#v, expect FilterIntegrityError", err)
	}

	// unknown main filter id
	refA := genSeq(1, 400)
	fnA := storeFilter(t, dir, "A", refA)
	c = New(Options{MainFilter: "Z"})
	if err := c.LoadFilters([]string{fnA}); err == nil {
		t.Errorf("expected error for unknown stdout filter id")
	}
}
