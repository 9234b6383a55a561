// Package ingestion turns source files into searchable dataset segments.
//
// The Pipeline type manages the ingestion workflow for a document:
//   - Loading text from plain text, markdown or PDF files
//   - Splitting it into overlapping sentence chunks
//   - Storing the chunks as segments through the dataset's document store
//   - Generating embeddings asynchronously
//
// Embedding runs on a worker pool. Failures during async processing mark the
// document as errored and are logged, but do not fail the Ingest call.
package ingestion
