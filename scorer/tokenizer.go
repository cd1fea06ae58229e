//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//

package scorer

import (
	"regexp"
	"strings"
)

var (
	// currencyNumberRE matches a currency-prefixed number, e.g. "$6,745.50".
	currencyNumberRE = regexp.MustCompile(`[$€£¥]\s*\d[\d,]*(?:\.\d+)?`)
	// percentNumberRE matches a percent-suffixed number, e.g. "85 %".
	percentNumberRE = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?\s*%`)
	// groupedNumberRE matches a number with thousands separators, e.g. "6,745".
	groupedNumberRE = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?`)
	// numberDecorRE matches the decoration stripped from matched numbers.
	numberDecorRE = regexp.MustCompile(`[$€£¥%,\s]+`)
	// nonAlphaNumRE matches one or more non-alphanumeric characters for tokenization.
	nonAlphaNumRE = regexp.MustCompile(`[^a-z0-9]+`)
	// spacesRE matches one or more whitespace characters for token splitting.
	spacesRE = regexp.MustCompile(`\s+`)
	// validTokenRE matches a token consisting only of lowercase ASCII letters and digits.
	validTokenRE = regexp.MustCompile(`^[a-z0-9]+$`)
)

// Normalize lowercases, trims surrounding whitespace, strips thousands
// separators and currency/percent decoration from embedded numbers, and
// collapses internal whitespace. Numeric-heavy pipelines produce formatting
// variance that is not a correctness signal, so "$6,745" and "6745"
// normalize to the same string.
func Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, re := range []*regexp.Regexp{currencyNumberRE, percentNumberRE, groupedNumberRE} {
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			return numberDecorRE.ReplaceAllString(match, "")
		})
	}
	return strings.Join(strings.Fields(text), " ")
}

// Tokenize normalizes text, replaces punctuation with spaces, and splits on
// whitespace, keeping only alphanumeric tokens.
func Tokenize(text string) []string {
	text = nonAlphaNumRE.ReplaceAllString(Normalize(text), " ")
	parts := spacesRE.Split(text, -1)
	tokens := make([]string, 0, len(parts))
	for _, token := range parts {
		if token == "" || !validTokenRE.MatchString(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// tokenOverlapF1 computes the bag-of-tokens F-measure between produced and
// expected token lists.
func tokenOverlapF1(produced, expected []string) float64 {
	if len(produced) == 0 || len(expected) == 0 {
		return 0
	}
	counts := make(map[string]int, len(expected))
	for _, token := range expected {
		counts[token]++
	}
	overlap := 0
	for _, token := range produced {
		if counts[token] > 0 {
			counts[token]--
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}
	precision := float64(overlap) / float64(len(produced))
	recall := float64(overlap) / float64(len(expected))
	return 2 * precision * recall / (precision + recall)
}
