package main

import (
	"log"
	"os"
	"strings"

	"github.com/jwaldrip/odin/cli"
	"github.com/zyxue/biobloom/classifier"
)

const Version = "1.0.0"

var app = cli.New(Version, "Categorize sequencing reads by testing k-mer content against Bloom filters", categorize)

func init() {
	app.DefineStringFlag("p", "", "output prefix, otherwise outputs to the current directory")
	app.DefineStringFlag("f", "", `filter files to use, whitespace separated ("filter1.bf filter2.bf")`)
	app.DefineStringFlag("I", "", "input read files, whitespace separated; with -e give two files or one SAM/BAM")
	app.DefineBoolFlag("e", false, "use paired-end information")
	app.DefineBoolFlag("i", false, "inclusive pairing: one matching mate pulls in the other")
	app.DefineFloat64Flag("s", 0.15, "score threshold between 0 and 1; 1.0 selects the best hit (its score is appended with -w)")
	app.DefineBoolFlag("w", false, "append scores to the output read id")
	app.DefineIntFlag("t", 1, "number of threads")
	app.DefineBoolFlag("g", false, "gzip all output files")
	app.DefineBoolFlag("fa", false, "output categorized reads as FASTA")
	app.DefineBoolFlag("fq", false, "output categorized reads as FASTQ")
	app.DefineBoolFlag("chastity", false, "discard and do not evaluate unchaste reads")
	app.DefineBoolFlag("no-chastity", false, "do not discard unchaste reads [default]")
	app.DefineIntFlag("l", 0, "discard reads shorter than this cutoff")
	app.DefineIntFlag("m", 0, "minimum hit number over the initial tiling needed to continue")
	app.DefineIntFlag("r", 3, "hit streak length needed to jump tiles on a miss")
	app.DefineBoolFlag("o", false, "use only the initial tiling pass to evaluate reads")
	app.DefineBoolFlag("c", false, "ordered filtering: filters listed first have priority")
	app.DefineBoolFlag("collab", false, "collaborative scoring: qualify on the summed score across filters")
	app.DefineStringFlag("d", "", "copy reads matching this filter id to stdout as FASTQ, interlaced when paired")
}

func checkArgs(c cli.Command) (opt classifier.Options, filterFns, inputFns []string) {
	opt.Prefix = c.Flag("p").String()
	filterFns = strings.Fields(c.Flag("f").String())
	if len(filterFns) == 0 {
		log.Fatalf("[checkArgs] need filter files (-f)\n")
	}
	inputFns = strings.Fields(c.Flag("I").String())
	if len(inputFns) == 0 {
		log.Fatalf("[checkArgs] need input read files (-I)\n")
	}

	opt.ScoreThreshold = c.Flag("s").Get().(float64)
	if opt.ScoreThreshold < 0 || opt.ScoreThreshold > 1 {
		log.Fatalf("[checkArgs] argument 's': %v must be between 0 and 1\n", opt.ScoreThreshold)
	}
	opt.MinHit = c.Flag("m").Get().(int)
	if opt.MinHit < 0 {
		log.Fatalf("[checkArgs] argument 'm': %v must be >= 0\n", opt.MinHit)
	}
	opt.StreakThreshold = c.Flag("r").Get().(int)
	if opt.StreakThreshold < 1 {
		log.Fatalf("[checkArgs] argument 'r': %v must be >= 1\n", opt.StreakThreshold)
	}
	opt.MinLength = c.Flag("l").Get().(int)
	if opt.MinLength < 0 {
		log.Fatalf("[checkArgs] argument 'l': %v must be >= 0\n", opt.MinLength)
	}
	opt.NumCPU = c.Flag("t").Get().(int)
	if opt.NumCPU < 1 {
		log.Fatalf("[checkArgs] argument 't': %v must be >= 1\n", opt.NumCPU)
	}

	opt.MinHitOnly = c.Flag("o").Get().(bool)
	opt.Ordered = c.Flag("c").Get().(bool)
	opt.Collab = c.Flag("collab").Get().(bool)
	opt.Inclusive = c.Flag("i").Get().(bool)
	opt.WithScore = c.Flag("w").Get().(bool)
	opt.GzOutput = c.Flag("g").Get().(bool)
	opt.MainFilter = c.Flag("d").String()
	opt.Chastity = c.Flag("chastity").Get().(bool) && !c.Flag("no-chastity").Get().(bool)

	fa := c.Flag("fa").Get().(bool)
	fq := c.Flag("fq").Get().(bool)
	if fa && fq {
		log.Fatalf("[checkArgs] fasta (-fa) and fastq (-fq) output types cannot both be set\n")
	} else if fa {
		opt.OutputType = "fa"
	} else if fq {
		opt.OutputType = "fq"
	}
	if opt.WithScore && opt.OutputType == "" {
		log.Fatalf("[checkArgs] -w cannot be used without an output method (-fa or -fq)\n")
	}
	if opt.Ordered && opt.MinHit > 0 {
		log.Fatalf("[checkArgs] -c and -m cannot both be set\n")
	}
	if opt.Collab && opt.MinHit > 0 {
		log.Fatalf("[checkArgs] -collab and -m cannot both be set\n")
	}

	// the output directory must already exist
	if idx := strings.LastIndexByte(opt.Prefix, '/'); idx >= 0 {
		dir := opt.Prefix[:idx]
		fi, err := os.Stat(dir)
		if err != nil {
			log.Fatalf("[checkArgs] output folder does not exist: %s\n", dir)
		}
		if !fi.IsDir() {
			log.Fatalf("[checkArgs] output folder is not a directory: %s\n", dir)
		}
	}
	return opt, filterFns, inputFns
}

func isSAMLike(fn string) bool {
	return strings.HasSuffix(fn, ".sam") || strings.HasSuffix(fn, ".bam")
}

func categorize(c cli.Command) {
	opt, filterFns, inputFns := checkArgs(c)
	paired := c.Flag("e").Get().(bool)

	cls := classifier.New(opt)
	if err := cls.LoadFilters(filterFns); err != nil {
		log.Fatalf("[categorize] %v\n", err)
	}

	if paired {
		if len(inputFns) == 1 && isSAMLike(inputFns[0]) {
			cls.FilterPairSAM(inputFns[0])
		} else if len(inputFns) == 2 {
			cls.FilterPair(inputFns[0], inputFns[1])
		} else {
			log.Fatalf("[categorize] paired-end mode needs two read files or one SAM/BAM file (-I)\n")
		}
	} else {
		cls.Filter(inputFns)
	}
}

func main() {
	app.Start()
}
