package vcf

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts0\ts1\ts2\n"

func readAll(t *testing.T, r *Reader) []Record {
	t.Helper()
	var recs []Record
	for {
		rec, err := r.Next()
		require.NoError(t, err)
		recs = append(recs, rec)
		if rec.Kind == KindEOF {
			return recs
		}
	}
}

func kinds(recs []Record) []RecordKind {
	out := make([]RecordKind, len(recs))
	for i, r := range recs {
		out[i] = r.Kind
	}
	return out
}

func TestReader_S1(t *testing.T) {
	r, err := NewReader(findTestFile(t, "s1.vcf"))
	require.NoError(t, err)
	defer r.Close()

	recs := readAll(t, r)
	assert.Equal(t, []RecordKind{
		KindMeta, KindMeta, KindMeta, KindColumns,
		KindVariant, KindVariant, KindVariant, KindEOF,
	}, kinds(recs))

	cols := recs[3]
	assert.Len(t, cols.Fields, 12)
	n, ok := r.SampleCount()
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	v := recs[4].Variant
	require.NotNil(t, v)
	assert.Equal(t, "chr1", v.Chrom)
	assert.Equal(t, int64(100), v.Pos)
	assert.Equal(t, "A", v.Ref)
	assert.Equal(t, "G", v.Alt)
	assert.Equal(t, "GT", v.Format)
	assert.Equal(t, []string{"0/0", "0/1", "1/1"}, v.Samples)
	assert.Equal(t, "chr1-100", v.VariantID())
	assert.True(t, v.IsSNV())

	// EOF is sticky.
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, KindEOF, rec.Kind)
}

func TestReader_TrimsAndCRLF(t *testing.T) {
	in := "##meta\r\n" + strings.TrimSuffix(header, "\n") + "\r\n" +
		"chr2 \t 7\t.\tA\tC\t.\t.\t.\tGT\t0/0 \t 1/1\t0/1\r\n" +
		"\n" +
		"chr2\t8\t.\tA\tC\t.\t.\t.\tGT\t0/0\t1/1\t0/1"
	r := NewReaderFromReader(strings.NewReader(in))

	recs := readAll(t, r)
	require.Equal(t, []RecordKind{KindMeta, KindColumns, KindVariant, KindVariant, KindEOF}, kinds(recs))

	v := recs[2].Variant
	assert.Equal(t, "chr2", v.Chrom)
	assert.Equal(t, int64(7), v.Pos)
	assert.Equal(t, []string{"0/0", "1/1", "0/1"}, v.Samples)

	// Final line without a trailing newline is still returned.
	assert.Equal(t, int64(8), recs[3].Variant.Pos)
}

func TestReader_ArityMismatch(t *testing.T) {
	in := header + "chr1\t100\t.\tA\tG\t.\t.\t.\tGT\t0/0\t0/1\n"
	r := NewReaderFromReader(strings.NewReader(in))

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, KindColumns, rec.Kind)

	_, err = r.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArityMismatch))

	var le *LocusError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "chr1", le.Chrom)
	assert.Equal(t, int64(100), le.Pos)
	assert.Equal(t, "ArityMismatch(chr1, 100)", le.Error())
}

func TestReader_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"variant before header", "chr1\t100\t.\tA\tG\t.\t.\t.\tGT\t0/0\n"},
		{"bad position", header + "chr1\tabc\t.\tA\tG\t.\t.\t.\tGT\t0/0\t0/0\t0/0\n"},
		{"too few columns", header + "chr1\t100\t.\tA\tG\n"},
		{"duplicate header", header + header},
		{"short header", "#CHROM\tPOS\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReaderFromReader(strings.NewReader(tt.in))
			var err error
			for err == nil {
				var rec Record
				rec, err = r.Next()
				if rec.Kind == KindEOF {
					break
				}
			}
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
		})
	}
}

func TestReader_Gzip(t *testing.T) {
	plain, err := os.ReadFile(findTestFile(t, "s1.vcf"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "s1.vcf.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	gz, err := NewReader(path)
	require.NoError(t, err)
	defer gz.Close()
	txt, err := NewReader(findTestFile(t, "s1.vcf"))
	require.NoError(t, err)
	defer txt.Close()

	assert.Equal(t, readAll(t, txt), readAll(t, gz))
}

func TestReader_MissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "absent.vcf"))
	var ioe *IOError
	require.True(t, errors.As(err, &ioe))
	assert.True(t, os.IsNotExist(errors.Unwrap(err)))
}

func TestReader_CorruptGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.vcf.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0644))

	_, err := NewReader(path)
	var ioe *IOError
	assert.True(t, errors.As(err, &ioe))
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "expected 9 columns, found 7",
	}

	expected := "vcf parse error at line 42: expected 9 columns, found 7"
	if err.Error() != expected {
		t.Errorf("Error message mismatch: got %q, want %q", err.Error(), expected)
	}
}

func TestLocusError_Is(t *testing.T) {
	err := &LocusError{Kind: InvalidGenotype, Chrom: "3", Pos: 9}
	assert.True(t, errors.Is(err, ErrInvalidGenotype))
	assert.False(t, errors.Is(err, ErrFormatMissingGT))
	assert.Equal(t, "InvalidGenotype", InvalidGenotype.String())
}

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	// Try different relative paths
	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
