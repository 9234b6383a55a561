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


// Package storage provides the storage abstraction layer for probe.
//
// This package defines repository interfaces that decouple storage implementation
// from retrieval logic. Datasets, documents, segments, and the query log each have
// their own repository; the badger subpackage implements all of them on one
// BadgerDB instance.
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return concrete types that
// satisfy these interfaces. Consumers should depend on the interfaces:
//
//	var segments storage.SegmentRepository = repos.Segments
//
// # Architecture
//
//   - Repository: transaction support and resource release shared by all repositories
//   - DatasetRepository: datasets and their saved retrieval settings
//   - DocumentRepository: documents and availability counts
//   - SegmentRepository: segments, index node lookup, vector and term search
//   - QueryLogRepository: append-only query log
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines. The hit-testing service
// calls FindSimilar and FindByTerms from concurrent strategies.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
