package genotype

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Counts holds the number of samples carrying each code at one variant.
type Counts struct {
	HomRef  int
	Het     int
	HomAlt  int
	Missing int
}

// Count tallies the codes of a genotype vector.
func Count(codes []Code) Counts {
	var c Counts
	for _, code := range codes {
		switch code {
		case HomRef:
			c.HomRef++
		case Het:
			c.Het++
		case HomAlt:
			c.HomAlt++
		default:
			c.Missing++
		}
	}
	return c
}

// IsPolymorphic reports whether at least two distinct called codes occur.
// Missing calls are ignored.
func IsPolymorphic(codes []Code) bool {
	c := Count(codes)
	distinct := 0
	for _, n := range []int{c.HomRef, c.Het, c.HomAlt} {
		if n > 0 {
			distinct++
		}
	}
	return distinct >= 2
}

// MissingIndices returns the sorted sample indices whose code is Missing.
func MissingIndices(codes []Code) []int {
	var idx []int
	for i, c := range codes {
		if c == Missing {
			idx = append(idx, i)
		}
	}
	return idx
}

// FormatVector renders codes as comma-joined decimal text ("0,1,3").
func FormatVector(codes []Code) string {
	var sb strings.Builder
	sb.Grow(2 * len(codes))
	for i, c := range codes {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(c)))
	}
	return sb.String()
}

// ParseVector parses comma-joined decimal text produced by FormatVector.
func ParseVector(text string) ([]Code, error) {
	if text == "" {
		return nil, nil
	}
	fields := strings.Split(text, ",")
	codes := make([]Code, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("genotype vector field %d: %w", i, err)
		}
		if n < 0 || n > math.MaxUint8 || !Code(n).Valid() {
			return nil, fmt.Errorf("genotype vector field %d: invalid code %d", i, n)
		}
		codes[i] = Code(n)
	}
	return codes, nil
}

// FormatIndices renders indices as comma-joined decimal text.
// An empty list renders as the empty string.
func FormatIndices(idx []int) string {
	parts := make([]string, len(idx))
	for i, n := range idx {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
