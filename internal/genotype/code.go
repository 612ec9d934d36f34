// Package genotype provides the pseudo-binary genotype codec.
//
// A diploid biallelic call is stored as one small integer so that two
// codes can be combined with simple arithmetic:
//
//	0/0 -> 0   (two reference alleles)
//	0/1 -> 1   (heterozygous, also 1/0)
//	1/1 -> 3   (two alternate alleles)
//	any other call -> 7 (missing)
package genotype

import "strings"

// Code is a pseudo-binary genotype code.
type Code uint8

// Genotype codes.
const (
	HomRef  Code = 0
	Het     Code = 1
	HomAlt  Code = 3
	Missing Code = 7
)

// Decode maps the two allele tokens of a diploid call to a Code.
func Decode(a, b string) Code {
	switch {
	case a == "0" && b == "0":
		return HomRef
	case a == "0" && b == "1", a == "1" && b == "0":
		return Het
	case a == "1" && b == "1":
		return HomAlt
	}
	return Missing
}

// DecodeCall decodes a GT sub-field such as "0/1" or "1|1".
// The unphased separator is searched first, then the phased one.
// It returns false when the call carries neither separator.
func DecodeCall(call string) (Code, bool) {
	a, b, ok := strings.Cut(call, "/")
	if !ok {
		a, b, ok = strings.Cut(call, "|")
	}
	if !ok {
		return Missing, false
	}
	return Decode(a, b), true
}

// Dosage returns the reference-allele dosage for a code.
// Missing has no dosage.
func Dosage(c Code) (float64, bool) {
	switch c {
	case HomRef:
		return 2, true
	case Het:
		return 1, true
	case HomAlt:
		return 0, true
	}
	return 0, false
}

// Valid reports whether c is one of the four defined codes.
func (c Code) Valid() bool {
	return c == HomRef || c == Het || c == HomAlt || c == Missing
}
