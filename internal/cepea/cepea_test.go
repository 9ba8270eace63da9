package cepea

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStrategy struct {
	name  string
	quote *Quote
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(ctx context.Context) (*Quote, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	q := *s.quote
	return &q, nil
}

func TestChain_FirstSuccessWins(t *testing.T) {
	primary := &stubStrategy{name: "browser", quote: &Quote{Arabica: 10, Robusta: 20, Date: time.Now()}}
	secondary := &stubStrategy{name: "http", quote: &Quote{Arabica: 1, Robusta: 2}}

	q, err := NewChain(nil, primary, secondary).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "browser", q.Tier)
	assert.Equal(t, 10.0, q.Arabica)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls)
}

func TestChain_FallsThroughOnError(t *testing.T) {
	primary := &stubStrategy{name: "browser", err: errors.New("launch failed")}
	secondary := &stubStrategy{name: "http", err: errors.New("timeout")}

	q, err := NewChain(nil, primary, secondary, StaticStrategy{}).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, "static", q.Tier)
	assert.True(t, q.IsFallback)
	assert.Equal(t, 2560.75, q.Arabica)
	assert.Equal(t, 1678.9, q.Robusta)
}

func TestChain_FallbackResultStopsChain(t *testing.T) {
	primary := &stubStrategy{name: "browser", quote: &Quote{Arabica: 10, IsFallback: true}}
	secondary := &stubStrategy{name: "http", quote: &Quote{Arabica: 1, Robusta: 2}}

	q, err := NewChain(nil, primary, secondary).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "browser", q.Tier)
	assert.True(t, q.IsFallback)
	assert.Equal(t, 0, secondary.calls)
}

func TestChain_AllFailed(t *testing.T) {
	primary := &stubStrategy{name: "browser", err: errors.New("launch failed")}

	_, err := NewChain(nil, primary).Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllStrategiesFailed)
	assert.Contains(t, err.Error(), "launch failed")
}
