// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"strings"
	"unicode"

	"github.com/spaolacci/murmur3"
)

// SimilarityMetric identifies the text similarity used for duplicate detection.
// Changing the tokenization or the set measure requires a new version.
const SimilarityMetric = "token-jaccard-v1"

// TokenSet is a set of hashed word tokens.
type TokenSet map[uint64]struct{}

// Tokenize lower-cases text, splits it on anything that is not a letter or
// digit, and hashes each token with murmur3.
func Tokenize(text string) TokenSet {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(TokenSet, len(fields))
	for _, f := range fields {
		set[murmur3.Sum64([]byte(f))] = struct{}{}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets have similarity 0.
func Jaccard(a, b TokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for h := range small {
		if _, ok := large[h]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// TokenJaccard is the token-jaccard-v1 similarity of two texts.
func TokenJaccard(a, b string) float64 {
	return Jaccard(Tokenize(a), Tokenize(b))
}
