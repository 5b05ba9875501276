package seqio

import (
	"bufio"
	"io"
	"log"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Writer is a buffered, optionally gzipped sink for categorized reads.
// One Writer per output file, written from a single goroutine.
type Writer struct {
	fn    string
	fp    *os.File
	gz    *gzip.Writer
	buffp *bufio.Writer
}

func NewWriter(fn string, gzOut bool) *Writer {
	fp, err := os.Create(fn)
	if err != nil {
		log.Fatalf("[NewWriter] create file: %s failed, err: %v\n", fn, err)
	}
	w := &Writer{fn: fn, fp: fp}
	if gzOut {
		w.gz = gzip.NewWriter(fp)
		w.buffp = bufio.NewWriterSize(w.gz, 1<<20)
	} else {
		w.buffp = bufio.NewWriterSize(fp, 1<<20)
	}
	return w
}

// NewStreamWriter wraps an already-open stream (stdout); Close flushes
// but does not close the underlying stream.
func NewStreamWriter(out io.Writer) *Writer {
	return &Writer{fn: "<stream>", buffp: bufio.NewWriterSize(out, 1<<20)}
}

func (w *Writer) WriteFasta(id string, seq []byte) {
	w.buffp.WriteByte('>')
	w.buffp.WriteString(id)
	w.buffp.WriteByte('\n')
	w.buffp.Write(seq)
	w.buffp.WriteByte('\n')
}

func (w *Writer) WriteFastq(id string, seq, qual []byte) {
	w.buffp.WriteByte('@')
	w.buffp.WriteString(id)
	w.buffp.WriteByte('\n')
	w.buffp.Write(seq)
	w.buffp.WriteString("\n+\n")
	w.buffp.Write(qual)
	w.buffp.WriteByte('\n')
}

func (w *Writer) Close() {
	if err := w.buffp.Flush(); err != nil {
		log.Fatalf("[Writer] flush file: %s failed, err: %v\n", w.fn, err)
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			log.Fatalf("[Writer] close gzip stream of file: %s failed, err: %v\n", w.fn, err)
		}
	}
	if w.fp != nil {
		if err := w.fp.Close(); err != nil {
			log.Fatalf("[Writer] close file: %s failed, err: %v\n", w.fn, err)
		}
	}
}
