package translate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 3
)

// sends one prompt to a model and returns its raw text reply
type completeFunc func(ctx context.Context, prompt string) (string, error)

// batcher splits items into requests and fans them out over a worker pool.
// Providers embed it and supply complete.
type batcher struct {
	provider string
	options  Options
	complete completeFunc
}

func (b *batcher) batchSize() int {
	if b.options.BatchSize > 0 {
		return b.options.BatchSize
	}
	return DefaultBatchSize
}

func (b *batcher) split(items []TranslationItem) [][]TranslationItem {
	size := b.batchSize()
	var batches [][]TranslationItem
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

func (b *batcher) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	var allResults []TranslationResult
	for i, batch := range b.split(items) {
		results, err := b.translateBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d failed: %w", i, err)
		}
		allResults = append(allResults, results...)
	}

	sortResults(allResults)
	return allResults, nil
}

// Items are split into batches of BatchSize (default 50). Each batch becomes
// one API request. Workers (up to concurrency) pull batches from a shared queue.
func (b *batcher) TranslateWithConcurrency(
	ctx context.Context,
	items []TranslationItem,
	concurrency int,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	batches := b.split(items)
	if len(batches) == 1 {
		return b.translateBatch(ctx, batches[0])
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		Index   int
		Results []TranslationResult
		Error   error
	}

	workChan := make(chan int)
	resultChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(batches); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case batchIdx, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					results, err := b.translateBatch(ctx, batches[batchIdx])
					if err != nil {
						cancel()
					}
					resultChan <- batchResult{
						Index:   batchIdx,
						Results: results,
						Error:   err,
					}
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var (
		allResults []TranslationResult
		firstErr   error
		completed  int
	)
	for result := range resultChan {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("batch %d failed: %w", result.Index, result.Error)
			}
			continue
		}
		completed++
		allResults = append(allResults, result.Results...)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	// a cancelled parent context stops the workers before every batch ran
	if completed != len(batches) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("only %d of %d batches completed", completed, len(batches))
	}

	sortResults(allResults)
	return allResults, nil
}

func (b *batcher) translateBatch(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	reply, err := b.complete(ctx, BuildPrompt(b.options, items))
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	if reply == "" {
		return nil, fmt.Errorf("no text in %s response", b.provider)
	}
	return parseReply(reply, items)
}

func sortResults(results []TranslationResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Sequence < results[j].Sequence
	})
}
