// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package reembed

import (
	"context"

	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage"
)

const (
	// DefaultBatchSize is the default number of segments to process in each batch
	DefaultBatchSize = 100
)

// SegmentIterator walks a dataset's segments in batches.
type SegmentIterator struct {
	repo      storage.SegmentRepository
	batchSize int
}

// NewSegmentIterator creates a new segment iterator.
// batchSize: number of segments per batch; values <= 0 select DefaultBatchSize
func NewSegmentIterator(repo storage.SegmentRepository, batchSize int) *SegmentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &SegmentIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of datasetID's segments, in ID order.
// Iteration stops on the first error from fn. Context cancellation is
// checked between batches.
func (it *SegmentIterator) ForEach(ctx context.Context, datasetID core.ID, fn func([]*core.Segment) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	segments, err := it.repo.GetSegmentsByDataset(ctx, datasetID)
	if err != nil {
		return err
	}

	for i := 0; i < len(segments); i += it.batchSize {
		end := min(i+it.batchSize, len(segments))

		if err := fn(segments[i:end]); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}
