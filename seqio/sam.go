package seqio

import (
	"fmt"
	"log"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/cespare/xxhash"
)

type pendingRead struct {
	baseID string
	ri     ReadInfo
	mate   uint8
}

func samReadInfo(r *sam.Record) (ri ReadInfo, mate uint8) {
	mate = 1
	if r.Flags&sam.Read2 != 0 {
		mate = 2
	}
	ri.ID = fmt.Sprintf("%s/%d", r.Name, mate)
	ri.Seq = r.Seq.Expand()
	if len(r.Qual) > 0 && r.Qual[0] != 0xff {
		ri.Qual = make([]byte, len(r.Qual))
		for i, q := range r.Qual {
			ri.Qual[i] = q + 33
		}
	}
	return ri, mate
}

// LoadPairedSAM streams mate pairs out of one name-interleaved SAM or BAM
// file. The first-seen mate of each pair waits in a map keyed by the hash
// of its mate-stripped name until the second arrives; poorly ordered input
// therefore costs memory in proportion to how far apart mates sit.
// Secondary, supplementary and unpaired records are skipped.
func LoadPairedSAM(fn string, cs chan<- [2]ReadInfo, numCPU, minLength int, chastity bool) {
	fp, err := os.Open(fn)
	if err != nil {
		log.Fatalf("[LoadPairedSAM] open file: %s failed, err: %v\n", fn, err)
	}
	defer fp.Close()

	format := GetReadsFileFormat(fn)
	var read func() (*sam.Record, error)
	if format == "bam" {
		bamfp, err := bam.NewReader(fp, numCPU/5+1)
		if err != nil {
			log.Fatalf("[LoadPairedSAM] create bam.NewReader err: %v\n", err)
		}
		defer bamfp.Close()
		read = bamfp.Read
	} else {
		samfp, err := sam.NewReader(fp)
		if err != nil {
			log.Fatalf("[LoadPairedSAM] create sam.NewReader err: %v\n", err)
		}
		read = samfp.Read
	}

	unPairedReads := make(map[uint64]pendingRead)
	for {
		r, err := read()
		if err != nil {
			break
		}
		if r.Flags&(sam.Secondary|sam.Supplementary) != 0 {
			continue
		}
		if r.Flags&sam.Paired == 0 {
			continue
		}
		ri, mate := samReadInfo(r)
		key := xxhash.Sum64String(r.Name)
		p, ok := unPairedReads[key]
		if !ok {
			unPairedReads[key] = pendingRead{baseID: r.Name, ri: ri, mate: mate}
			continue
		}
		if p.baseID != r.Name {
			log.Fatalf("[LoadPairedSAM] read id hash collision between %s and %s\n", p.baseID, r.Name)
		}
		delete(unPairedReads, key)
		var pair [2]ReadInfo
		if p.mate == 1 {
			pair = [2]ReadInfo{p.ri, ri}
		} else {
			pair = [2]ReadInfo{ri, p.ri}
		}
		if !keepRead(pair[0], minLength, chastity) || !keepRead(pair[1], minLength, chastity) {
			continue
		}
		cs <- pair
	}
	if len(unPairedReads) > 0 {
		fmt.Printf("[LoadPairedSAM] file: %s left %d reads without a mate\n", fn, len(unPairedReads))
	}
	close(cs)
}
