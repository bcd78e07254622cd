// Package fetch downloads mailbox messages with a pool of workers, each
// holding its own authenticated session.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nhle/mailtriage/internal/model"
	"github.com/nhle/mailtriage/internal/parse"
	"github.com/nhle/mailtriage/internal/progress"
)

// Fetched pairs a parsed message with the server identifier it came from.
// The identifier is session-relative and must not be persisted as identity.
type Fetched struct {
	Message *model.Message
	ID      uint32
}

// WorkerReport is the structured outcome of one fetch worker. Workers that
// cannot start contribute zero results; rather than vanishing silently they
// leave their terminal error here for the caller to inspect.
type WorkerReport struct {
	// Delivered is how many messages this worker fetched and handed off.
	Delivered int

	// Failed counts individual messages this worker could not fetch or
	// parse; the worker moves on to the next job after each failure.
	Failed int

	// Err is the error that stopped the worker before or during its
	// loop; nil for a clean exit.
	Err error
}

// Result is the outcome of one fetch pass. Messages arrive in completion
// order; callers must not assume it matches the enumerated identifier order.
type Result struct {
	Messages []Fetched
	Expected int
	Workers  []WorkerReport
}

// Missing is the number of enumerated messages that never arrived, due to
// lost workers or individual fetch failures.
func (r *Result) Missing() int {
	return r.Expected - len(r.Messages)
}

// FailedWorkers returns the reports of workers that stopped on an error.
func (r *Result) FailedWorkers() []WorkerReport {
	var failed []WorkerReport
	for _, w := range r.Workers {
		if w.Err != nil {
			failed = append(failed, w)
		}
	}
	return failed
}

// Fetcher retrieves messages from a mailbox with a bounded worker pool.
type Fetcher struct {
	dialer  Dialer
	mailbox string
	workers int
	sink    progress.Sink
	logger  *slog.Logger
}

// New creates a Fetcher. workers is clamped to at least one; sink and
// logger may be nil.
func New(dialer Dialer, mailbox string, workers int, sink progress.Sink, logger *slog.Logger) *Fetcher {
	if workers < 1 {
		workers = 1
	}
	if sink == nil {
		sink = progress.Discard()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		dialer:  dialer,
		mailbox: mailbox,
		workers: workers,
		sink:    sink,
		logger:  logger,
	}
}

// Enumerate lists the identifiers of messages to fetch, optionally limited
// to those arriving since the given time. It uses its own short-lived
// session.
func (f *Fetcher) Enumerate(ctx context.Context, since time.Time) ([]uint32, error) {
	sess, err := f.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	count, err := sess.Select(f.mailbox)
	if err != nil {
		return nil, err
	}
	f.sink.Report(fmt.Sprintf("There are %d messages in %s", count, f.mailbox))

	ids, err := sess.Search(since)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Fetch retrieves the given messages concurrently. Each worker dials its
// own session and selects the mailbox; a worker that cannot start records
// its error and contributes nothing, degrading the result rather than
// failing it. Compare len(result.Messages) against result.Expected to
// detect an under-count.
func (f *Fetcher) Fetch(ctx context.Context, ids []uint32) (*Result, error) {
	result := &Result{Expected: len(ids)}
	if len(ids) == 0 {
		f.sink.Report("No messages to fetch.")
		return result, nil
	}

	f.sink.Report(fmt.Sprintf("Downloading %d messages...", len(ids)))

	jobs := make(chan uint32)
	results := make(chan Fetched)
	done := make(chan struct{})
	reports := make([]WorkerReport, f.workers)

	var wg sync.WaitGroup
	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go func(rep *WorkerReport) {
			defer wg.Done()
			f.runWorker(ctx, jobs, results, rep)
		}(&reports[i])
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			select {
			case jobs <- id:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
		close(results)
	}()

	step := 100.0 / float64(len(ids))
	for fetched := range results {
		result.Messages = append(result.Messages, fetched)
		f.sink.Increment(step)
	}

	result.Workers = reports
	for i, rep := range reports {
		if rep.Err != nil {
			f.logger.Warn("fetch worker stopped",
				"worker", i, "delivered", rep.Delivered, "error", rep.Err)
		}
	}

	if missing := result.Missing(); missing > 0 {
		f.sink.Report(fmt.Sprintf("Finished with %d of %d messages (%d missing).",
			len(result.Messages), result.Expected, missing))
	} else {
		f.sink.Report("Finished!")
	}

	return result, ctx.Err()
}

// runWorker owns one session for the lifetime of the job stream.
func (f *Fetcher) runWorker(ctx context.Context, jobs <-chan uint32, results chan<- Fetched, rep *WorkerReport) {
	sess, err := f.dialer.Dial(ctx)
	if err != nil {
		rep.Err = err
		return
	}
	defer sess.Close()

	if _, err := sess.Select(f.mailbox); err != nil {
		rep.Err = err
		return
	}

	for id := range jobs {
		raw, err := sess.Fetch(id)
		if err != nil {
			// An individual failure is recorded, not fatal; the next
			// job may still succeed.
			rep.Failed++
			f.logger.Debug("fetch failed", "id", id, "error", err)
			continue
		}

		msg, err := parse.Message(raw)
		if err != nil {
			rep.Failed++
			continue
		}

		select {
		case results <- Fetched{Message: msg, ID: id}:
			rep.Delivered++
		case <-ctx.Done():
			rep.Err = ctx.Err()
			return
		}
	}
}
