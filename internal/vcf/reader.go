package vcf

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// fixedColumns is the number of columns before the first sample column.
const fixedColumns = 9

// Reader reads a VCF file one record at a time.
type Reader struct {
	reader      *bufio.Reader
	file        *os.File
	gzipReader  *gzip.Reader
	path        string
	lineNumber  int
	sampleCount int
	columnsSeen bool
	done        bool
}

// NewReader opens the VCF file at path.
// A ".gz" suffix selects gzip decompression; "-" reads stdin.
func NewReader(path string) (*Reader, error) {
	if path == "-" {
		return NewReaderFromReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	r := &Reader{file: file, path: path}

	if strings.HasSuffix(path, ".gz") {
		r.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, &IOError{Path: path, Err: fmt.Errorf("create gzip reader: %w", err)}
		}
		r.reader = bufio.NewReader(r.gzipReader)
	} else {
		r.reader = bufio.NewReader(file)
	}

	return r, nil
}

// NewReaderFromReader creates a reader over an already open stream.
func NewReaderFromReader(in io.Reader) *Reader {
	return &Reader{
		reader: bufio.NewReader(in),
		path:   "-",
	}
}

// Next returns the next record. After the last line it returns a record
// of KindEOF, and keeps doing so on further calls.
func (r *Reader) Next() (Record, error) {
	for {
		if r.done {
			return Record{Kind: KindEOF}, nil
		}

		line, err := r.reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Record{}, &IOError{Path: r.path, Err: err}
			}
			r.done = true
			if line == "" {
				return Record{Kind: KindEOF}, nil
			}
		}
		r.lineNumber++

		line = strings.TrimRight(line, "\n")
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		return r.parseLine(line)
	}
}

func (r *Reader) parseLine(line string) (Record, error) {
	if strings.HasPrefix(line, "##") {
		return Record{Kind: KindMeta, Meta: line}, nil
	}

	fields := splitFields(line)

	if strings.HasPrefix(line, "#") {
		if r.columnsSeen {
			return Record{}, &ParseError{Line: r.lineNumber, Message: "duplicate #CHROM header line"}
		}
		if len(fields) < fixedColumns {
			return Record{}, &ParseError{
				Line:    r.lineNumber,
				Message: fmt.Sprintf("expected at least %d header columns, found %d", fixedColumns, len(fields)),
			}
		}
		r.columnsSeen = true
		r.sampleCount = len(fields) - fixedColumns
		return Record{Kind: KindColumns, Fields: fields}, nil
	}

	if !r.columnsSeen {
		return Record{}, &ParseError{Line: r.lineNumber, Message: "expected #CHROM header line"}
	}

	v, err := r.parseVariant(fields)
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: KindVariant, Variant: v}, nil
}

// parseVariant builds a Variant from the tab separated fields of a data line.
func (r *Reader) parseVariant(fields []string) (*Variant, error) {
	if len(fields) < fixedColumns {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", fixedColumns, len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	samples := fields[fixedColumns:]
	if len(samples) != r.sampleCount {
		return nil, &LocusError{Kind: ArityMismatch, Chrom: fields[0], Pos: pos}
	}

	return &Variant{
		Chrom:   fields[0],
		Pos:     pos,
		ID:      fields[2],
		Ref:     fields[3],
		Alt:     fields[4],
		Qual:    fields[5],
		Filter:  fields[6],
		Info:    fields[7],
		Format:  fields[8],
		Samples: samples,
	}, nil
}

func splitFields(line string) []string {
	fields := strings.Split(line, "\t")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// SampleCount returns the number of sample columns declared by the
// #CHROM line, and whether that line has been read yet.
func (r *Reader) SampleCount() (int, bool) {
	return r.sampleCount, r.columnsSeen
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close closes the reader and underlying file.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
