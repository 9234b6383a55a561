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


package badger

import "errors"

// Repositories bundles every repository opened on one backend.
type Repositories struct {
	Backend   *Backend
	Datasets  *DatasetRepository
	Documents *DocumentRepository
	Segments  *SegmentRepository
	QueryLogs *QueryLogRepository
}

// OpenRepositories opens all repositories on backend.
// On error, repositories opened so far are closed; the backend is left open.
func OpenRepositories(backend *Backend) (*Repositories, error) {
	repos := &Repositories{Backend: backend}

	var err error
	if repos.Datasets, err = NewDatasetRepository(backend); err != nil {
		return nil, err
	}
	if repos.Documents, err = NewDocumentRepository(backend); err != nil {
		repos.closeRepositories()
		return nil, err
	}
	if repos.Segments, err = NewSegmentRepository(backend); err != nil {
		repos.closeRepositories()
		return nil, err
	}
	if repos.QueryLogs, err = NewQueryLogRepository(backend); err != nil {
		repos.closeRepositories()
		return nil, err
	}
	return repos, nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must call Close when done.
func NewMemoryRepositories() (*Repositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	repos, err := OpenRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return repos, nil
}

// Close releases every repository's sequence, then closes the backend.
func (r *Repositories) Close() error {
	err := r.closeRepositories()
	return errors.Join(err, r.Backend.Close())
}

func (r *Repositories) closeRepositories() error {
	var errs []error
	if r.QueryLogs != nil {
		errs = append(errs, r.QueryLogs.Close())
	}
	if r.Segments != nil {
		errs = append(errs, r.Segments.Close())
	}
	if r.Documents != nil {
		errs = append(errs, r.Documents.Close())
	}
	if r.Datasets != nil {
		errs = append(errs, r.Datasets.Close())
	}
	return errors.Join(errs...)
}
