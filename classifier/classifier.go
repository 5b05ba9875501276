package classifier

import (
	"fmt"
	"os"
	"strings"

	"github.com/zyxue/biobloom/bloomfilter"
	"github.com/zyxue/biobloom/seqio"
)

type Options struct {
	Prefix          string
	ScoreThreshold  float64
	MinHit          int
	StreakThreshold int
	MinHitOnly      bool
	Ordered         bool
	Collab          bool
	Inclusive       bool
	WithScore       bool
	OutputType      string // "", "fa" or "fq"
	GzOutput        bool
	MainFilter      string
	NumCPU          int
	MinLength       int
	Chastity        bool
}

// Classifier owns the loaded filters and drives reads through scoring,
// category reduction and output. Filter load order defines reporting
// order everywhere.
type Classifier struct {
	opt       Options
	groups    []*bloomfilter.MultiFilter
	groupIdx  map[string]int
	filterIDs []string
	infos     []bloomfilter.BloomFilterInfo
}

func New(opt Options) *Classifier {
	if opt.NumCPU < 1 {
		opt.NumCPU = 1
	}
	if opt.StreakThreshold < 1 {
		opt.StreakThreshold = 1
	}
	return &Classifier{opt: opt, groupIdx: make(map[string]int)}
}

func (c *Classifier) FilterIDs() []string {
	return c.filterIDs
}

// LoadFilters reads every .bf with its sidecar .txt and groups filters by
// hash signature. Integrity problems abort the run before any input is
// touched.
func (c *Classifier) LoadFilters(paths []string) error {
	fmt.Printf("[LoadFilters] starting to load filters\n")
	for _, path := range paths {
		if !strings.HasSuffix(path, ".bf") {
			return newError(ConfigError, "filter file %s does not end with .bf", path)
		}
		infoFn := path[:len(path)-2] + "txt"
		info, err := bloomfilter.LoadBloomFilterInfo(infoFn)
		if err != nil {
			return newError(FilterIntegrityError, "%v (a corresponding info file is needed)", err)
		}
		bf, err := bloomfilter.Load(path, info.FilterSize, info.HashNum, info.KmerSize)
		if err != nil {
			return newError(FilterIntegrityError, "%v", err)
		}
		sig := info.Signature()
		gi, ok := c.groupIdx[sig]
		if !ok {
			gi = len(c.groups)
			c.groupIdx[sig] = gi
			c.groups = append(c.groups, bloomfilter.NewMultiFilter(info.HashNum, info.KmerSize))
		}
		if err := c.groups[gi].AddFilter(info.FilterID, bf); err != nil {
			return newError(ConfigError, "%v", err)
		}
		c.filterIDs = append(c.filterIDs, info.FilterID)
		c.infos = append(c.infos, info)
		fmt.Printf("[LoadFilters] loaded filter: %s\n", info.FilterID)
	}
	if len(c.filterIDs) == 0 {
		return newError(ConfigError, "no filter files given")
	}
	if c.opt.MainFilter != "" {
		found := false
		for _, id := range c.filterIDs {
			if id == c.opt.MainFilter {
				found = true
				break
			}
		}
		if !found {
			return newError(ConfigError, "stdout filter %s is not among the loaded filter ids", c.opt.MainFilter)
		}
	}
	fmt.Printf("[LoadFilters] filter loading complete\n")
	return nil
}

type result struct {
	ri       seqio.ReadInfo
	category string
	suffix   string
	ok       bool
}

type pairResult struct {
	pair     [2]seqio.ReadInfo
	category string
	suffix   [2]string
	ok       bool
}

func (c *Classifier) scoringWorker(cs <-chan seqio.ReadInfo, rc chan<- result) {
	sc := c.newScratch()
	hits := make(map[string]float64, len(c.filterIDs))
	for ri := range cs {
		c.scoreRead(ri.Seq, sc, hits)
		cat, suffix := c.classify(hits)
		rc <- result{ri: ri, category: cat, suffix: suffix, ok: true}
	}
	// worker drained, tell the collector
	rc <- result{}
}

func (c *Classifier) scoringWorkerPair(cs <-chan [2]seqio.ReadInfo, rc chan<- pairResult) {
	sc := c.newScratch()
	hits1 := make(map[string]float64, len(c.filterIDs))
	hits2 := make(map[string]float64, len(c.filterIDs))
	for pair := range cs {
		c.scoreRead(pair[0].Seq, sc, hits1)
		c.scoreRead(pair[1].Seq, sc, hits2)
		cat, suffix := c.classifyPair(hits1, hits2)
		rc <- pairResult{pair: pair, category: cat, suffix: suffix, ok: true}
	}
	rc <- pairResult{}
}

// openSinks creates one output file per category (two per category when
// paired), plus the stdout stream when a main filter is set.
func (c *Classifier) openSinks(paired bool) (sinks map[string]*seqio.Writer, mainOut *seqio.Writer) {
	if c.opt.OutputType != "" {
		postfix := ""
		if c.opt.GzOutput {
			postfix = ".gz"
		}
		sinks = make(map[string]*seqio.Writer)
		categories := make([]string, 0, len(c.filterIDs)+2)
		categories = append(categories, c.filterIDs...)
		categories = append(categories, MultiMatch, NoMatch)
		for _, cat := range categories {
			if paired {
				sinks[cat+"1"] = seqio.NewWriter(
					c.opt.Prefix+"_"+cat+"_1."+c.opt.OutputType+postfix, c.opt.GzOutput)
				sinks[cat+"2"] = seqio.NewWriter(
					c.opt.Prefix+"_"+cat+"_2."+c.opt.OutputType+postfix, c.opt.GzOutput)
			} else {
				sinks[cat] = seqio.NewWriter(
					c.opt.Prefix+"_"+cat+"."+c.opt.OutputType+postfix, c.opt.GzOutput)
			}
		}
	}
	if c.opt.MainFilter != "" {
		mainOut = seqio.NewStreamWriter(os.Stdout)
	}
	return sinks, mainOut
}

func (c *Classifier) closeSinks(sinks map[string]*seqio.Writer, mainOut *seqio.Writer) {
	for _, w := range sinks {
		w.Close()
	}
	if mainOut != nil {
		mainOut.Close()
	}
}

func (c *Classifier) writeRead(sinks map[string]*seqio.Writer, mainOut *seqio.Writer, res result) {
	id := res.ri.ID + res.suffix
	if sinks != nil {
		w := sinks[res.category]
		if c.opt.OutputType == "fa" {
			w.WriteFasta(id, res.ri.Seq)
		} else {
			w.WriteFastq(id, res.ri.Seq, res.ri.Qual)
		}
	}
	if mainOut != nil && res.category == c.opt.MainFilter {
		mainOut.WriteFastq(id, res.ri.Seq, res.ri.Qual)
	}
}

// writePair writes both mates as one unit so the two mate files stay in
// lockstep; the stdout stream is interlaced.
func (c *Classifier) writePair(sinks map[string]*seqio.Writer, mainOut *seqio.Writer, res pairResult) {
	id1 := res.pair[0].ID + res.suffix[0]
	id2 := res.pair[1].ID + res.suffix[1]
	if sinks != nil {
		w1 := sinks[res.category+"1"]
		w2 := sinks[res.category+"2"]
		if c.opt.OutputType == "fa" {
			w1.WriteFasta(id1, res.pair[0].Seq)
			w2.WriteFasta(id2, res.pair[1].Seq)
		} else {
			w1.WriteFastq(id1, res.pair[0].Seq, res.pair[0].Qual)
			w2.WriteFastq(id2, res.pair[1].Seq, res.pair[1].Qual)
		}
	}
	if mainOut != nil && res.category == c.opt.MainFilter {
		mainOut.WriteFastq(id1, res.pair[0].Seq, res.pair[0].Qual)
		mainOut.WriteFastq(id2, res.pair[1].Seq, res.pair[1].Qual)
	}
}

func (c *Classifier) storeSummary(rm *ResultsManager) {
	rm.StoreSummary(c.opt.Prefix + "_summary.tsv")
}

// Filter categorizes single-end reads from one or more files.
func (c *Classifier) Filter(inputFiles []string) *ResultsManager {
	rm := NewResultsManager(c.filterIDs)
	cs := make(chan seqio.ReadInfo, 1<<12)
	rc := make(chan result, 1<<12)
	go seqio.LoadReads(inputFiles, cs, c.opt.MinLength, c.opt.Chastity)
	for i := 0; i < c.opt.NumCPU; i++ {
		go c.scoringWorker(cs, rc)
	}
	sinks, mainOut := c.openSinks(false)
	fmt.Printf("[Filter] filtering start\n")
	finished := 0
	for finished < c.opt.NumCPU {
		res := <-rc
		if !res.ok {
			finished++
			continue
		}
		rm.Update(res.category)
		if rm.Total()%1000000 == 0 {
			fmt.Printf("[Filter] currently reading read number: %d\n", rm.Total())
		}
		c.writeRead(sinks, mainOut, res)
	}
	c.closeSinks(sinks, mainOut)
	fmt.Printf("[Filter] total reads: %d\n", rm.Total())
	c.storeSummary(rm)
	return rm
}

func (c *Classifier) runPaired(load func(chan<- [2]seqio.ReadInfo)) *ResultsManager {
	rm := NewResultsManager(c.filterIDs)
	cs := make(chan [2]seqio.ReadInfo, 1<<12)
	rc := make(chan pairResult, 1<<12)
	go load(cs)
	for i := 0; i < c.opt.NumCPU; i++ {
		go c.scoringWorkerPair(cs, rc)
	}
	sinks, mainOut := c.openSinks(true)
	fmt.Printf("[FilterPair] filtering start\n")
	finished := 0
	for finished < c.opt.NumCPU {
		res := <-rc
		if !res.ok {
			finished++
			continue
		}
		rm.Update(res.category)
		if rm.Total()%1000000 == 0 {
			fmt.Printf("[FilterPair] currently reading pair number: %d\n", rm.Total())
		}
		c.writePair(sinks, mainOut, res)
	}
	c.closeSinks(sinks, mainOut)
	fmt.Printf("[FilterPair] total pairs: %d\n", rm.Total())
	c.storeSummary(rm)
	return rm
}

// FilterPair categorizes mate pairs from two files advancing in lockstep.
func (c *Classifier) FilterPair(fn1, fn2 string) *ResultsManager {
	return c.runPaired(func(cs chan<- [2]seqio.ReadInfo) {
		seqio.LoadReadsPair(fn1, fn2, cs, c.opt.MinLength, c.opt.Chastity)
	})
}

// FilterPairSAM categorizes mate pairs from one interleaved SAM/BAM file.
func (c *Classifier) FilterPairSAM(fn string) *ResultsManager {
	return c.runPaired(func(cs chan<- [2]seqio.ReadInfo) {
		seqio.LoadPairedSAM(fn, cs, c.opt.NumCPU, c.opt.MinLength, c.opt.Chastity)
	})
}
