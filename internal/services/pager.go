package services

import (
	"context"
	"fmt"
	"iter"

	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/shared"
)

// maxFirstPageAttempts bounds retries while the playlist size is still unknown.
const maxFirstPageAttempts = 3

// Paginate walks fetch from offset 0 until the declared total is reached.
//
// Errors are yielded in place of an item. A cancelled ctx yields ctx.Err() and ends the sequence.
func Paginate(ctx context.Context, limit int, fetch PageFunc) iter.Seq2[models.PlaylistItem, error] {
	if limit < 1 || limit > MaxBatch {
		limit = MaxBatch
	}

	return func(yield func(models.PlaylistItem, error) bool) {
		offset, total, failures := 0, -1, 0

		for {
			if err := ctx.Err(); err != nil {
				yield(models.PlaylistItem{}, err)
				return
			}

			page, err := fetch(ctx, offset, limit)
			if err != nil {
				if ctx.Err() != nil {
					yield(models.PlaylistItem{}, ctx.Err())
					return
				}
				if !yield(models.PlaylistItem{}, fmt.Errorf("%w: page at offset %d: %v", shared.ErrAPIRequest, offset, err)) {
					return
				}

				if total < 0 {
					failures++
					if failures >= maxFirstPageAttempts {
						return
					}
					continue
				}

				offset += limit
				if offset >= total {
					return
				}
				continue
			}

			total = page.Total
			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}

			offset += limit
			if len(page.Items) == 0 || offset >= total {
				return
			}
		}
	}
}
