package methyl

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// WorkItem holds a record read from the input, or the error reading it.
type WorkItem struct {
	Seq    int
	Record *Record
	Err    error
}

// WorkResult holds the conversion output for a single record.
type WorkResult struct {
	Seq    int
	Record *Record
	Result *Result
	Err    error
}

// ParallelConvert converts work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (c *Converter) ParallelConvert(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				if item.Err != nil {
					results <- WorkResult{Seq: item.Seq, Err: item.Err}
					continue
				}
				res, err := c.Convert(item.Record)
				results <- WorkResult{
					Seq:    item.Seq,
					Record: item.Record,
					Result: res,
					Err:    err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed. After fn fails no further
// results reach fn; convertParallel's fn also stops the record reader, so
// the drain below only has to absorb items already in flight.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

func (c *Converter) convertParallel(r RecordReader, w CallWriter) error {
	workers := c.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	items := make(chan WorkItem, 2*workers)
	done := make(chan struct{})
	stop := sync.OnceFunc(func() { close(done) })
	defer stop()

	var readErr error
	go func() {
		defer close(items)
		seq := 0
		for {
			rec, err := r.Next()
			if err != nil && !errors.Is(err, ErrMalformedRecord) {
				readErr = fmt.Errorf("read record: %w", err)
				return
			}
			if err == nil && rec == nil {
				return
			}
			select {
			case items <- WorkItem{Seq: seq, Record: rec, Err: err}:
				seq++
			case <-done:
				return
			}
		}
	}()

	results := c.ParallelConvert(items, workers)
	if err := OrderedCollect(results, func(wr WorkResult) error {
		if err := c.collect(wr, w); err != nil {
			stop()
			return err
		}
		return nil
	}); err != nil {
		return err
	}

	// results is closed only after items is closed, so readErr is settled.
	return readErr
}
