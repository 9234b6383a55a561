// Package extdata is a registry of named functions that enrich dataset
// segments with data from outside the index.
package extdata

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
	_ "time/tzdata"
)

var (
	// ErrUnknownFunction is returned by Invoke for names with no entry.
	ErrUnknownFunction = errors.New("unknown extended data function")

	// ErrMissingParameter is returned when a required parameter is empty or absent.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrDuplicateFunction is returned by Register for names already taken.
	ErrDuplicateFunction = errors.New("extended data function already registered")
)

// TimeFormat is the layout of query_current_time results.
const TimeFormat = "2006-01-02 15:04:05 MST"

// Handler computes an entry's result from its parameters.
type Handler func(ctx context.Context, params map[string]string) (any, error)

// Entry describes one registered function.
type Entry struct {
	Handler         Handler
	Description     string
	ParameterFormat string // Empty when the function takes no parameters
}

// Listing is the public view of an entry.
type Listing struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

// Registry maps function names to entries. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
	zone    *time.Location
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now for time-dependent functions.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates a registry holding the built-in functions.
func NewRegistry(opts ...Option) *Registry {
	zone, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// tzdata is embedded, so this only happens with a corrupt build.
		panic(err)
	}

	r := &Registry{
		entries: make(map[string]Entry),
		now:     time.Now,
		zone:    zone,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.entries["query_current_time"] = Entry{
		Handler:     r.currentTime,
		Description: "Current time",
	}
	r.entries["query_weather"] = Entry{
		Handler:         queryWeather,
		Description:     "Look up the weather for a location",
		ParameterFormat: "{location='*****'}",
	}
	return r
}

// Register adds an entry under name.
func (r *Registry) Register(name string, entry Entry) error {
	if name == "" || entry.Handler == nil {
		return fmt.Errorf("extended data function needs a name and handler")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFunction, name)
	}
	r.entries[name] = entry
	return nil
}

// List returns every entry sorted by name.
func (r *Registry) List() []Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := slices.Sorted(maps.Keys(r.entries))
	listings := make([]Listing, len(names))
	for i, name := range names {
		listings[i] = Listing{Value: name, Name: r.entries[name].Description}
	}
	return listings
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// Invoke calls the function registered under name.
func (r *Registry) Invoke(ctx context.Context, name string, params map[string]string) (any, error) {
	entry, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return entry.Handler(ctx, params)
}

func (r *Registry) currentTime(ctx context.Context, params map[string]string) (any, error) {
	return r.now().In(r.zone).Format(TimeFormat), nil
}

// queryWeather validates its location. No weather provider is wired, so the
// result is always nil.
func queryWeather(ctx context.Context, params map[string]string) (any, error) {
	if params["location"] == "" {
		return nil, fmt.Errorf("%w: location", ErrMissingParameter)
	}
	return nil, nil
}
