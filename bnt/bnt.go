package bnt

// 2-bit nucleotide codes: A=0, C=1, G=2, T=3, upper or lower case. Any other input byte maps
// to AmbiguousBase, which callers must treat as not packable.
const (
	NumBitsInBase = 2
	NumBaseInByte = 4
	BaseMask      = 0x3
	AmbiguousBase = 4
)

var Base2Bnt [256]byte

// BntRev maps a base code to its complement code
var BntRev = [4]byte{3, 2, 1, 0}

// BitNtCharUp maps a base code back to the uppercase base character
var BitNtCharUp = [4]byte{'A', 'C', 'G', 'T'}

func init() {
	for i := 0; i < len(Base2Bnt); i++ {
		Base2Bnt[i] = AmbiguousBase
	}
	Base2Bnt['A'], Base2Bnt['a'] = 0, 0
	Base2Bnt['C'], Base2Bnt['c'] = 1, 1
	Base2Bnt['G'], Base2Bnt['g'] = 2, 2
	Base2Bnt['T'], Base2Bnt['t'] = 3, 3
}
