// Package extract pulls lowercase word tokens out of single message parts.
// Every function constructs its own parser state, so calls are safe from
// concurrent workers.
package extract

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// rawTextElements are elements whose text content is never user-visible
// prose and is skipped during extraction.
var rawTextElements = map[string]bool{
	"script": true,
	"style":  true,
}

// HTMLTokens strips markup from an HTML part and returns its lowercase word
// tokens, deduplicated while preserving encounter order. A nil part or
// markup the tokenizer cannot process yields an empty token list; extraction
// failures are recoverable, never fatal.
func HTMLTokens(payload []byte) []string {
	if payload == nil {
		return nil
	}

	z := html.NewTokenizer(bytes.NewReader(payload))
	var fragments []string
	rawDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return nil
			}
			return dedup(splitFragments(fragments))

		case html.StartTagToken:
			name, _ := z.TagName()
			if rawTextElements[string(name)] {
				rawDepth++
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if rawTextElements[string(name)] && rawDepth > 0 {
				rawDepth--
			}

		case html.TextToken:
			if rawDepth > 0 {
				continue
			}
			text := strings.TrimSpace(string(z.Text()))
			if text == "" {
				continue
			}
			fragments = append(fragments, strings.ToLower(text))
		}
	}
}

// PlainTokens lowercases a plain-text part and splits it on whitespace.
// Unlike the HTML path there is no deduplication; plain text parts are
// short enough that the extra pass is not worth it.
func PlainTokens(payload []byte) []string {
	if payload == nil {
		return nil
	}
	return strings.Fields(strings.ToLower(string(payload)))
}

// splitFragments breaks text-node fragments into individual words.
func splitFragments(fragments []string) []string {
	var words []string
	for _, f := range fragments {
		words = append(words, strings.Fields(f)...)
	}
	return words
}

// dedup removes duplicate tokens while preserving first-encounter order.
func dedup(tokens []string) []string {
	if len(tokens) == 0 {
		return tokens
	}
	seen := make(map[string]bool, len(tokens))
	kept := tokens[:0]
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		kept = append(kept, tok)
	}
	return kept
}
