package bloomfilter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// BloomFilterInfo is the sidecar (.txt) pairing with a .bf file. Only the
// four fields below are required; builder statistics lines are ignored.
type BloomFilterInfo struct {
	FilterID   string
	KmerSize   int
	HashNum    int
	FilterSize uint64 // bits
}

// Signature identifies filters that can share one hash pass per k-mer.
func (info BloomFilterInfo) Signature() string {
	return fmt.Sprintf("%d:%d", info.HashNum, info.KmerSize)
}

// LoadBloomFilterInfo parses "key value" (or "key=value") lines.
func LoadBloomFilterInfo(fn string) (info BloomFilterInfo, err error) {
	fp, err := os.Open(fn)
	if err != nil {
		return info, fmt.Errorf("info file %s could not be read: %v", fn, err)
	}
	defer fp.Close()
	reader := bufio.NewReader(fp)
	var seenID, seenKmer, seenHash, seenSize bool
	eof := false
	for !eof {
		var line string
		line, err = reader.ReadString('\n')
		if err == io.EOF {
			err = nil
			eof = true
		} else if err != nil {
			return info, fmt.Errorf("info file %s read failed: %v", fn, err)
		}
		fields := strings.Fields(strings.ReplaceAll(line, "=", " "))
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "filter_id":
			info.FilterID = fields[1]
			seenID = true
		case "kmer_size":
			if info.KmerSize, err = strconv.Atoi(fields[1]); err != nil {
				return info, fmt.Errorf("info file %s: kmer_size %q not an integer", fn, fields[1])
			}
			seenKmer = true
		case "hash_number":
			if info.HashNum, err = strconv.Atoi(fields[1]); err != nil {
				return info, fmt.Errorf("info file %s: hash_number %q not an integer", fn, fields[1])
			}
			seenHash = true
		case "filter_size":
			if info.FilterSize, err = strconv.ParseUint(fields[1], 10, 64); err != nil {
				return info, fmt.Errorf("info file %s: filter_size %q not an integer", fn, fields[1])
			}
			seenSize = true
		default:
			// build statistics, ignored
		}
	}
	if !seenID || !seenKmer || !seenHash || !seenSize {
		return info, fmt.Errorf("info file %s missing required keys (filter_id, kmer_size, hash_number, filter_size)", fn)
	}
	return info, nil
}
