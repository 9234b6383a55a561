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


package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// Model invocation errors. Provider implementations wrap their failures in
// one of these so callers can match with errors.Is regardless of provider.
var (
	// ErrModelNotInitialized indicates missing or rejected provider credentials.
	ErrModelNotInitialized = errors.New("provider token not initialized")

	// ErrModelQuotaExceeded indicates the provider's quota or rate limit was hit.
	ErrModelQuotaExceeded = errors.New("provider quota exceeded")

	// ErrModelCurrentlyUnsupported indicates the model can't serve this request.
	ErrModelCurrentlyUnsupported = errors.New("model currently not supported")

	// ErrModelInvocation indicates any other provider failure.
	ErrModelInvocation = errors.New("model invocation failed")

	// ErrUnknownProvider indicates no provider is registered under a name.
	ErrUnknownProvider = errors.New("unknown model provider")
)

// ClassifyStatus wraps err in the model error matching an HTTP status code.
func ClassifyStatus(statusCode int, err error) error {
	var sentinel error
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrModelNotInitialized
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		sentinel = ErrModelQuotaExceeded
	case http.StatusNotFound, http.StatusNotImplemented:
		sentinel = ErrModelCurrentlyUnsupported
	default:
		sentinel = ErrModelInvocation
	}
	if err == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
