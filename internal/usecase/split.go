package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"textsplit/internal/port"
)

// SplitUseCase splits caller-supplied texts, fanning batches out to a
// bounded set of workers.
type SplitUseCase struct {
	splitter port.TextSplitter
	workers  int
}

func NewSplitUseCase(splitter port.TextSplitter, workers int) *SplitUseCase {
	if workers <= 0 {
		workers = 1
	}
	return &SplitUseCase{
		splitter: splitter,
		workers:  workers,
	}
}

func (u *SplitUseCase) Split(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return u.splitter.SplitText(text)
}

// SplitMany splits every text independently and concatenates the chunks in
// input order. Cancellation is observed between texts, never inside one.
func (u *SplitUseCase) SplitMany(ctx context.Context, texts []string) ([]string, error) {
	results := make([][]string, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)
	for i, text := range texts {
		i, text := i, text
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunks, err := u.splitter.SplitText(text)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			results[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all := []string{}
	for _, chunks := range results {
		all = append(all, chunks...)
	}
	return all, nil
}
