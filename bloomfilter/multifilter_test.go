package bloomfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiFilter(t *testing.T) {
	mf := NewMultiFilter(3, 25)
	a, _ := MakeBloomFilter(1<<14, 3, 25)
	b, _ := MakeBloomFilter(1<<15, 3, 25) // sizes may differ within a group

	assert.NoError(t, mf.AddFilter("a", a))
	assert.NoError(t, mf.AddFilter("b", b))
	assert.Equal(t, []string{"a", "b"}, mf.FilterIDs)
	assert.Equal(t, "3:25", mf.Signature())

	kmers := randKmers(3, 10, a.KmerSizeInBytes)
	for _, kb := range kmers {
		a.Insert(kb)
	}

	var hv []uint64
	var results []bool
	for _, kb := range kmers {
		hv = mf.Hash(kb, hv)
		results = mf.MultiContains(hv, results)
		assert.True(t, results[0], "member of a reported absent")
		assert.False(t, results[1], "absent k-mer reported in empty filter b")
	}
}

func TestMultiFilterRejects(t *testing.T) {
	mf := NewMultiFilter(3, 25)
	a, _ := MakeBloomFilter(1<<14, 3, 25)
	assert.NoError(t, mf.AddFilter("a", a))

	dup, _ := MakeBloomFilter(1<<14, 3, 25)
	assert.Error(t, mf.AddFilter("a", dup), "duplicate id must be rejected")

	wrongHash, _ := MakeBloomFilter(1<<14, 4, 25)
	assert.Error(t, mf.AddFilter("c", wrongHash))

	wrongKmer, _ := MakeBloomFilter(1<<14, 3, 21)
	assert.Error(t, mf.AddFilter("d", wrongKmer))
}
