package kmer

import (
	"bytes"

	"github.com/zyxue/biobloom/bnt"
)

// Processor packs a fixed-width window of bases into the canonical 2-bit
// representation used for filter hashing. The forward and the
// reverse-complement packings are both built and the lexicographically
// smaller byte string wins, so membership is strand agnostic.
//
// The two scratch buffers are reused on every call; one Processor per
// worker, never shared.
type Processor struct {
	KmerSize        int
	KmerSizeInBytes int
	fw              []byte
	rv              []byte
}

func NewProcessor(kmerSize int) *Processor {
	n := (kmerSize + bnt.NumBaseInByte - 1) / bnt.NumBaseInByte
	return &Processor{
		KmerSize:        kmerSize,
		KmerSizeInBytes: n,
		fw:              make([]byte, n),
		rv:              make([]byte, n),
	}
}

// PrepSeq packs seq[pos:pos+KmerSize]. It returns nil if the window runs
// past the sequence or holds a base outside ACGT. The returned slice
// aliases an internal buffer and is only valid until the next call.
//
// Packing is 2 bits per base, high-order base first within each byte;
// the unused low bits of the last byte stay zero.
func (p *Processor) PrepSeq(seq []byte, pos int) []byte {
	if pos < 0 || pos+p.KmerSize > len(seq) {
		return nil
	}
	for i := range p.fw {
		p.fw[i] = 0
		p.rv[i] = 0
	}
	k := p.KmerSize
	for i := 0; i < k; i++ {
		code := bnt.Base2Bnt[seq[pos+i]]
		if code > bnt.BaseMask {
			return nil
		}
		p.fw[i>>2] |= code << uint(6-bnt.NumBitsInBase*(i&3))
		j := k - 1 - i
		p.rv[j>>2] |= bnt.BntRev[code] << uint(6-bnt.NumBitsInBase*(j&3))
	}
	if bytes.Compare(p.fw, p.rv) <= 0 {
		return p.fw
	}
	return p.rv
}
