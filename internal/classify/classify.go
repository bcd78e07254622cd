// Package classify evaluates single messages against a search query.
package classify

import (
	"strings"

	"github.com/nhle/mailtriage/internal/extract"
	"github.com/nhle/mailtriage/internal/match"
	"github.com/nhle/mailtriage/internal/model"
)

// Classify decides whether the message matches the query and returns its
// identity key alongside the verdict. Header lines selected by the query are
// checked first with the substring policy; body text parts are then walked in
// document order with the ratio policy. Classification is a pure function of
// message and query, so repeated calls agree.
func Classify(msg *model.Message, q model.MatchQuery) (model.MessageKey, bool) {
	key := msg.Key()

	if q.SearchSubject && headerMatch(msg.Subject, q) {
		return key, true
	}
	if q.SearchTo && headerMatch(msg.To, q) {
		return key, true
	}
	if q.SearchFrom && headerMatch(msg.From, q) {
		return key, true
	}

	if q.AllMatch {
		// In all-mode hits accumulate across parts: terms scattered over
		// separate body parts still satisfy the query.
		satisfied := make([]bool, len(q.Terms))
		for _, part := range msg.Parts {
			tokens, ok := partTokens(part)
			if !ok {
				continue
			}
			match.MarkRatioHits(tokens, q.Terms, satisfied)
			if match.AllSatisfied(satisfied) {
				return key, true
			}
		}
		return key, false
	}

	for _, part := range msg.Parts {
		tokens, ok := partTokens(part)
		if !ok {
			continue
		}
		if match.Ratio(tokens, q.Terms, false) {
			return key, true
		}
	}
	return key, false
}

// headerMatch runs the substring policy over a single lowercased header line.
func headerMatch(line string, q model.MatchQuery) bool {
	return match.Specific([]string{strings.ToLower(line)}, q.Terms, q.AllMatch)
}

// partTokens extracts tokens from a body part, reporting false for parts
// that are not searchable text.
func partTokens(p model.Part) ([]string, bool) {
	if p.MainType() != "text" {
		return nil, false
	}
	switch p.SubType() {
	case "html":
		return extract.HTMLTokens(p.Body), true
	case "plain":
		return extract.PlainTokens(p.Body), true
	}
	return nil, false
}
