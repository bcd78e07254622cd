// Package search fans message classification out across a worker pool and
// commits the matched set to the store as tags.
package search

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/nhle/mailtriage/internal/classify"
	"github.com/nhle/mailtriage/internal/model"
	"github.com/nhle/mailtriage/internal/progress"
	"github.com/nhle/mailtriage/internal/store"
)

// Result summarizes one search pass over the corpus.
type Result struct {
	// Matched holds the identity keys of every matching message.
	Matched []model.MessageKey

	MatchedCount   int
	UnmatchedCount int
	Total          int

	// Percent is matched/total on a 0-100 scale; 0 for an empty corpus.
	Percent float64

	// Tag is the comma-joined tag string committed to matched messages.
	Tag string
}

// Coordinator runs classification in parallel and tags the matches.
type Coordinator struct {
	store   store.Store
	workers int
	sink    progress.Sink
}

// New creates a Coordinator. workers <= 0 means one per CPU core; the
// matching phase is CPU-bound, so the pool defaults to full parallelism.
func New(st store.Store, workers int, sink progress.Sink) *Coordinator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if sink == nil {
		sink = progress.Discard()
	}
	return &Coordinator{store: st, workers: workers, sink: sink}
}

// Search classifies every message against the query, tallies the verdicts
// and merges the query's tag string onto each match. Results are collected
// in completion order; the matched set is deterministic even though arrival
// order is not. An empty corpus yields a defined zero result.
func (c *Coordinator) Search(ctx context.Context, msgs []store.StoredMessage, q model.MatchQuery) (*Result, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	result := &Result{Total: len(msgs), Tag: q.TagString()}
	if len(msgs) == 0 {
		c.sink.Report("No messages to search.")
		return result, nil
	}

	c.sink.Report("Searching messages...")

	type verdict struct {
		key     model.MessageKey
		matched bool
	}

	jobs := make(chan *model.Message)
	verdicts := make(chan verdict)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range jobs {
				key, matched := classify.Classify(msg, q)
				select {
				case verdicts <- verdict{key: key, matched: matched}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, m := range msgs {
			select {
			case jobs <- m.Message:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(verdicts)
	}()

	step := 100.0 / float64(len(msgs))
	for v := range verdicts {
		if v.matched {
			result.Matched = append(result.Matched, v.key)
			result.MatchedCount++
		} else {
			result.UnmatchedCount++
		}
		c.sink.Increment(step)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	result.Percent = float64(result.MatchedCount) / float64(result.Total) * 100

	c.sink.Report("Finished processing emails.")
	c.sink.Report(fmt.Sprintf("Processed %d messages.", result.Total))
	c.sink.Report(fmt.Sprintf("%.1f%% (%d/%d) of messages match",
		result.Percent, result.MatchedCount, result.Total))

	if err := c.store.TagMerge(ctx, result.Matched, result.Tag); err != nil {
		return result, fmt.Errorf("tagging matches: %w", err)
	}

	return result, nil
}

// Describe renders the query for confirmation prompts and status lines.
func Describe(q model.MatchQuery) string {
	mode := "any"
	if q.AllMatch {
		mode = "all"
	}
	var scopes []string
	if q.SearchSubject {
		scopes = append(scopes, "subject")
	}
	if q.SearchTo {
		scopes = append(scopes, "to")
	}
	if q.SearchFrom {
		scopes = append(scopes, "from")
	}
	scopes = append(scopes, "body")
	return fmt.Sprintf("terms=[%s] mode=%s scope=%s",
		strings.Join(q.Terms, ", "), mode, strings.Join(scopes, ","))
}
