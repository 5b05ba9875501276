package bloomfilter

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dgryski/go-metro"
)

// bit k lives in byte k/8; the mask table must match the one used by the
// filter builder or membership queries read the wrong bits
var bitMask = [8]byte{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80}

// BloomFilter is a fixed-size bit array queried with HashNum seeded hash
// probes per packed k-mer. It gives false positives but never false
// negatives. The categorizer only reads filters; Insert exists for
// building and for tests.
type BloomFilter struct {
	Size            uint64 // length in bits, always a multiple of 8
	SizeInBytes     uint64
	HashNum         int
	KmerSize        int
	KmerSizeInBytes int
	filter          []byte
}

func MakeBloomFilter(filterSize uint64, hashNum, kmerSize int) (*BloomFilter, error) {
	if filterSize == 0 || filterSize%8 != 0 {
		return nil, fmt.Errorf("filter size %d is not a positive multiple of 8", filterSize)
	}
	if hashNum < 1 {
		return nil, fmt.Errorf("hash number %d must be >= 1", hashNum)
	}
	if kmerSize < 1 {
		return nil, fmt.Errorf("kmer size %d must be >= 1", kmerSize)
	}
	bf := &BloomFilter{
		Size:            filterSize,
		SizeInBytes:     filterSize / 8,
		HashNum:         hashNum,
		KmerSize:        kmerSize,
		KmerSizeInBytes: (kmerSize + 3) / 4,
	}
	bf.filter = make([]byte, bf.SizeInBytes)
	return bf, nil
}

// Load reads a raw bit array from a .bf file. The file must hold exactly
// filterSize/8 bytes, the size promised by the sidecar info file.
func Load(path string, filterSize uint64, hashNum, kmerSize int) (*BloomFilter, error) {
	bf, err := MakeBloomFilter(filterSize, hashNum, kmerSize)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("filter file %s could not be read: %v", path, err)
	}
	if fi.Size() != int64(bf.SizeInBytes) {
		return nil, fmt.Errorf("%s does not match size given by its information file. Size: %d/%d bytes",
			path, fi.Size(), bf.SizeInBytes)
	}
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filter file %s could not be read: %v", path, err)
	}
	defer fp.Close()
	if _, err := io.ReadFull(bufio.NewReaderSize(fp, 1<<20), bf.filter); err != nil {
		return nil, fmt.Errorf("filter file %s could not be read: %v", path, err)
	}
	return bf, nil
}

// Store writes the bit array verbatim, no header and no compression
// (random bits compress poorly anyway).
func (bf *BloomFilter) Store(path string) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	buffp := bufio.NewWriterSize(fp, 1<<20)
	if _, err := buffp.Write(bf.filter); err != nil {
		return err
	}
	return buffp.Flush()
}

// Hash fills hv with the HashNum probe hashes for a packed k-mer. Probe i
// is seeded with i, so filters sharing a hash number can reuse one hash
// pass. hv is reused across calls by workers.
func (bf *BloomFilter) Hash(kb []byte, hv []uint64) []uint64 {
	hv = hv[:0]
	for i := 0; i < bf.HashNum; i++ {
		hv = append(hv, metro.Hash64(kb, uint64(i)))
	}
	return hv
}

func (bf *BloomFilter) Insert(kb []byte) {
	for i := 0; i < bf.HashNum; i++ {
		pos := metro.Hash64(kb, uint64(i)) % bf.Size
		bf.filter[pos/8] |= bitMask[pos%8]
	}
}

func (bf *BloomFilter) Contains(kb []byte) bool {
	for i := 0; i < bf.HashNum; i++ {
		pos := metro.Hash64(kb, uint64(i)) % bf.Size
		m := bitMask[pos%8]
		if bf.filter[pos/8]&m != m {
			return false
		}
	}
	return true
}

// ContainsHash tests membership against probe hashes precomputed by Hash.
func (bf *BloomFilter) ContainsHash(hv []uint64) bool {
	for _, h := range hv {
		pos := h % bf.Size
		m := bitMask[pos%8]
		if bf.filter[pos/8]&m != m {
			return false
		}
	}
	return true
}
