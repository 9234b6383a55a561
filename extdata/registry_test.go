package extdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []Listing{
		{Value: "query_current_time", Name: "Current time"},
		{Value: "query_weather", Name: "Look up the weather for a location"},
	}, r.List())
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	entry, ok := r.Lookup("query_weather")
	require.True(t, ok)
	assert.Equal(t, "{location='*****'}", entry.ParameterFormat)

	entry, ok = r.Lookup("query_current_time")
	require.True(t, ok)
	assert.Empty(t, entry.ParameterFormat)

	_, ok = r.Lookup("query_bing")
	assert.False(t, ok)
}

func TestRegistry_Invoke(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC)
	r := NewRegistry(WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	t.Run("current time in China Standard Time", func(t *testing.T) {
		got, err := r.Invoke(ctx, "query_current_time", nil)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-02 00:30:00 CST", got)
	})

	t.Run("weather requires a location", func(t *testing.T) {
		_, err := r.Invoke(ctx, "query_weather", map[string]string{})
		assert.ErrorIs(t, err, ErrMissingParameter)
	})

	t.Run("weather has no result", func(t *testing.T) {
		got, err := r.Invoke(ctx, "query_weather", map[string]string{"location": "Beijing"})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown function", func(t *testing.T) {
		_, err := r.Invoke(ctx, "query_user_balance", nil)
		assert.ErrorIs(t, err, ErrUnknownFunction)
	})
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	echo := Entry{
		Description:     "Echo a value",
		ParameterFormat: "{value='*'}",
		Handler: func(ctx context.Context, params map[string]string) (any, error) {
			return params["value"], nil
		},
	}

	require.NoError(t, r.Register("echo", echo))
	assert.ErrorIs(t, r.Register("echo", echo), ErrDuplicateFunction)
	assert.Error(t, r.Register("", echo))
	assert.Error(t, r.Register("nil_handler", Entry{}))

	got, err := r.Invoke(context.Background(), "echo", map[string]string{"value": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", got)

	listings := r.List()
	require.Len(t, listings, 3)
	assert.Equal(t, "echo", listings[0].Value)
}
