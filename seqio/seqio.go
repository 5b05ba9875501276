package seqio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/google/brotli/go/cbrotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ReadInfo is one sequencing read. Seq holds raw base characters; bases
// outside ACGT are carried through and skipped at scoring time.
type ReadInfo struct {
	ID         string
	Seq        []byte
	Qual       []byte
	Annotation string
}

// GetReadsFileFormat maps a file name to fa|fq|sam|bam by suffix,
// ignoring a trailing .gz/.br/.zst compression extension.
func GetReadsFileFormat(fn string) (format string) {
	sfn := strings.Split(fn, ".")
	tmp := sfn[len(sfn)-1]
	if tmp == "gz" || tmp == "br" || tmp == "zst" {
		if len(sfn) < 3 {
			log.Fatalf("[GetReadsFileFormat] reads file: %v need suffix end with '*.fa[.gz|.br|.zst] | *.fq[.gz|.br|.zst] | *.sam | *.bam'\n", fn)
		}
		tmp = sfn[len(sfn)-2]
	}
	switch tmp {
	case "fa", "fasta":
		format = "fa"
	case "fq", "fastq":
		format = "fq"
	case "sam":
		format = "sam"
	case "bam":
		format = "bam"
	default:
		log.Fatalf("[GetReadsFileFormat] reads file: %v need suffix end with '*.fa[.gz|.br|.zst] | *.fq[.gz|.br|.zst] | *.sam | *.bam'\n", fn)
	}
	return format
}

// openReadsFile opens fn and stacks the decompressor its suffix asks for.
// The returned closer releases the decompressor and the file.
func openReadsFile(fn string) (io.Reader, func()) {
	fp, err := os.Open(fn)
	if err != nil {
		log.Fatalf("[openReadsFile] open file: %s failed, err: %v\n", fn, err)
	}
	sfn := strings.Split(fn, ".")
	switch sfn[len(sfn)-1] {
	case "gz":
		gzfp, err := gzip.NewReader(fp)
		if err != nil {
			log.Fatalf("[openReadsFile] gzip reader for file: %s failed, err: %v\n", fn, err)
		}
		return gzfp, func() { gzfp.Close(); fp.Close() }
	case "br":
		brfp := cbrotli.NewReader(fp)
		return brfp, func() { brfp.Close(); fp.Close() }
	case "zst":
		zfp, err := zstd.NewReader(fp)
		if err != nil {
			log.Fatalf("[openReadsFile] zstd reader for file: %s failed, err: %v\n", fn, err)
		}
		return zfp, func() { zfp.Close(); fp.Close() }
	default:
		return fp, func() { fp.Close() }
	}
}

// RecordReader streams ReadInfo records from one FASTA or FASTQ file.
type RecordReader struct {
	fn     string
	format string
	buffp  *bufio.Reader // fq
	fafp   *fasta.Reader // fa
	closer func()
}

func NewRecordReader(fn string) *RecordReader {
	format := GetReadsFileFormat(fn)
	if format != "fa" && format != "fq" {
		log.Fatalf("[NewRecordReader] reads file: %s format: %s not allowed here, need FASTA or FASTQ\n", fn, format)
	}
	r, closer := openReadsFile(fn)
	rr := &RecordReader{fn: fn, format: format, closer: closer}
	if format == "fa" {
		rr.fafp = fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant))
	} else {
		rr.buffp = bufio.NewReaderSize(r, 1<<20)
	}
	return rr
}

func (rr *RecordReader) Close() {
	rr.closer()
}

// Read returns the next record or io.EOF. Broken trailing records are
// fatal, matching the integrity guarantees of the upstream decoders.
func (rr *RecordReader) Read() (ri ReadInfo, err error) {
	if rr.format == "fa" {
		s, err := rr.fafp.Read()
		if err != nil {
			if err == io.EOF {
				return ri, io.EOF
			}
			log.Fatalf("[RecordReader] read file: %s error: %v\n", rr.fn, err)
		}
		l := s.(*linear.Seq)
		ri.ID = l.ID
		ri.Annotation = l.Desc
		ri.Seq = make([]byte, len(l.Seq))
		for j, v := range l.Seq {
			ri.Seq[j] = byte(v)
		}
		return ri, nil
	}
	return rr.readFastq()
}

func (rr *RecordReader) readFastq() (ri ReadInfo, err error) {
	var b [4][]byte
	i := 0
	for ; i < 4; i++ {
		var line []byte
		line, err = rr.buffp.ReadBytes('\n')
		b[i] = bytes.TrimRight(line, "\r\n")
		if err != nil {
			// a last record without a trailing newline is still whole
			if err == io.EOF && i == 3 && len(line) > 0 {
				i = 4
				err = nil
			}
			break
		}
	}
	if err != nil {
		if err == io.EOF {
			if i == 0 && len(b[0]) == 0 {
				return ri, io.EOF
			}
			log.Fatalf("[RecordReader] file: %s found broken record at end of file\n", rr.fn)
		} else {
			log.Fatalf("[RecordReader] file: %s encounter err: %v\n", rr.fn, err)
		}
	}
	if len(b[0]) == 0 || b[0][0] != '@' {
		log.Fatalf("[RecordReader] file: %s record header %q does not start with '@'\n", rr.fn, b[0])
	}
	flist := strings.Fields(string(b[0][1:]))
	if len(flist) == 0 {
		log.Fatalf("[RecordReader] file: %s found record with empty id\n", rr.fn)
	}
	ri.ID = flist[0]
	ri.Annotation = strings.Join(flist[1:], " ")
	ri.Seq = b[1]
	ri.Qual = b[3]
	return ri, nil
}

// IsChaste reports whether a read passed the instrument chastity filter.
// A CASAVA 1.8 annotation looks like "1:N:0:ATCACG"; 'Y' in the second
// field marks a failed read. Annotations in any other shape pass.
func IsChaste(annotation string) bool {
	fields := strings.Fields(annotation)
	if len(fields) == 0 {
		return true
	}
	parts := strings.Split(fields[0], ":")
	if len(parts) >= 2 && parts[1] == "Y" {
		return false
	}
	return true
}

// BaseReadID strips the trailing /1 or /2 mate suffix: everything after
// the last '/' goes, the whole id stays when there is none.
func BaseReadID(id string) string {
	idx := strings.LastIndexByte(id, '/')
	if idx < 0 {
		return id
	}
	return id[:idx]
}

func keepRead(ri ReadInfo, minLength int, chastity bool) bool {
	if len(ri.Seq) < minLength {
		return false
	}
	if chastity && !IsChaste(ri.Annotation) {
		return false
	}
	return true
}

// LoadReads streams every record of the given files into cs and closes it.
// Reads below minLength, and unchaste reads when chastity is set, are
// dropped before they reach scoring and are not counted.
func LoadReads(fns []string, cs chan<- ReadInfo, minLength int, chastity bool) {
	for _, fn := range fns {
		rr := NewRecordReader(fn)
		for {
			ri, err := rr.Read()
			if err == io.EOF {
				break
			}
			if !keepRead(ri, minLength, chastity) {
				continue
			}
			cs <- ri
		}
		rr.Close()
	}
	close(cs)
}

// LoadReadsPair advances two readers in lockstep and streams mate pairs.
// Mate ids must agree after stripping the /1 or /2 suffix; disagreement is
// fatal. If one file ends before the other a warning is printed and the
// pairs already sent stand.
func LoadReadsPair(fn1, fn2 string, cs chan<- [2]ReadInfo, minLength int, chastity bool) {
	rr1 := NewRecordReader(fn1)
	rr2 := NewRecordReader(fn2)
	defer rr1.Close()
	defer rr2.Close()
	for {
		ri1, err1 := rr1.Read()
		ri2, err2 := rr2.Read()
		if err1 == io.EOF || err2 == io.EOF {
			if err1 != err2 {
				fmt.Printf("[LoadReadsPair] error: one input ended early, files %s and %s may be different lengths\n", fn1, fn2)
			}
			break
		}
		if BaseReadID(ri1.ID) != BaseReadID(ri2.ID) {
			log.Fatalf("[LoadReadsPair] read IDs do not match: %s vs %s\n", ri1.ID, ri2.ID)
		}
		if !keepRead(ri1, minLength, chastity) || !keepRead(ri2, minLength, chastity) {
			continue
		}
		cs <- [2]ReadInfo{ri1, ri2}
	}
	close(cs)
}
