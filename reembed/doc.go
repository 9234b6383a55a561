// Package reembed provides functionality for reembedding a dataset's segments
// after its embedding model changes.
//
// This package supports batch processing of segments, progress tracking,
// retry logic with exponential backoff, and vector normalization so stored
// vectors can be ranked by dot product. The retry and normalization helpers
// are shared with ingestion.
package reembed
