package bloomfilter

import "fmt"

// MultiFilter groups filters that share a (hashNum, kmerSize) signature so
// a k-mer is hashed once and tested against every member. FilterIDs keeps
// insertion order; that order is observable in the summary and in
// ordered-mode tie breaks.
type MultiFilter struct {
	HashNum  int
	KmerSize int

	FilterIDs []string
	filters   map[string]*BloomFilter
}

func NewMultiFilter(hashNum, kmerSize int) *MultiFilter {
	return &MultiFilter{
		HashNum:  hashNum,
		KmerSize: kmerSize,
		filters:  make(map[string]*BloomFilter),
	}
}

func (mf *MultiFilter) Signature() string {
	return fmt.Sprintf("%d:%d", mf.HashNum, mf.KmerSize)
}

func (mf *MultiFilter) AddFilter(id string, bf *BloomFilter) error {
	if bf.HashNum != mf.HashNum || bf.KmerSize != mf.KmerSize {
		return fmt.Errorf("filter %s signature %d:%d does not match group signature %s",
			id, bf.HashNum, bf.KmerSize, mf.Signature())
	}
	if _, ok := mf.filters[id]; ok {
		return fmt.Errorf("duplicate filter id %s", id)
	}
	mf.FilterIDs = append(mf.FilterIDs, id)
	mf.filters[id] = bf
	return nil
}

func (mf *MultiFilter) GetFilter(id string) *BloomFilter {
	return mf.filters[id]
}

// Hash computes the shared probe hashes for a packed k-mer, reusing hv.
func (mf *MultiFilter) Hash(kb []byte, hv []uint64) []uint64 {
	return mf.filters[mf.FilterIDs[0]].Hash(kb, hv)
}

// MultiContains tests precomputed probe hashes against every member.
// results is indexed like FilterIDs and reused across calls.
func (mf *MultiFilter) MultiContains(hv []uint64, results []bool) []bool {
	results = results[:0]
	for _, id := range mf.FilterIDs {
		results = append(results, mf.filters[id].ContainsHash(hv))
	}
	return results
}
