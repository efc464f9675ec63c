package distcache

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/metric"
	"github.com/c360/propstream/pkg/retry"
	"github.com/c360/propstream/properties"
	"github.com/c360/propstream/testutil"
)

// MockClient is a testify mock of the cache contract
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Put(ctx context.Context, key, value string, ks, vs Serializer) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func newTestDistributor(t *testing.T, opts ...Option) *Distributor {
	t.Helper()
	d, err := NewDistributor("test", append([]Option{WithLogger(testutil.QuietLogger())}, opts...)...)
	require.NoError(t, err)
	return d
}

func TestDistributor_PublishAllEntries(t *testing.T) {
	d := newTestDistributor(t)
	client := new(MockClient)
	client.On("Put", mock.Anything, "a", "1").Return(nil).Once()
	client.On("Put", mock.Anything, "b", "2").Return(nil).Once()

	store := properties.NewStore(map[string]string{"a": "1", "b": "2"})
	require.NoError(t, d.Publish(context.Background(), store, client))

	client.AssertExpectations(t)
}

func TestDistributor_EmptyStoreIsNoop(t *testing.T) {
	d := newTestDistributor(t)
	client := new(MockClient)

	require.NoError(t, d.Publish(context.Background(), properties.EmptyStore(), client))
	require.NoError(t, d.Publish(context.Background(), nil, client))

	client.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestDistributor_NilClient(t *testing.T) {
	d := newTestDistributor(t)

	err := d.Publish(context.Background(), properties.NewStore(map[string]string{"a": "1"}), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
	assert.True(t, errors.IsFatal(err))
}

func TestDistributor_AbortsOnFirstFailure(t *testing.T) {
	d := newTestDistributor(t)
	client := new(MockClient)
	cause := stderrors.New("cache unavailable")
	client.On("Put", mock.Anything, "a", "1").Return(nil).Once()
	client.On("Put", mock.Anything, "b", "2").Return(cause).Once()

	store := properties.NewStore(map[string]string{"a": "1", "b": "2", "c": "3"})
	err := d.Publish(context.Background(), store, client)

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPublish)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `key "b"`)
	assert.True(t, errors.IsFatal(err))

	client.AssertExpectations(t)
	client.AssertNotCalled(t, "Put", mock.Anything, "c", "3")
}

func TestDistributor_RetriesPut(t *testing.T) {
	d := newTestDistributor(t, WithRetry(retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
	}))
	client := new(MockClient)
	client.On("Put", mock.Anything, "a", "1").Return(stderrors.New("timeout")).Twice()
	client.On("Put", mock.Anything, "a", "1").Return(nil).Once()

	store := properties.NewStore(map[string]string{"a": "1"})
	require.NoError(t, d.Publish(context.Background(), store, client))
	client.AssertNumberOfCalls(t, "Put", 3)
}

func TestDistributor_SerializationFailureIsNotRetried(t *testing.T) {
	d := newTestDistributor(t, WithRetry(retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
	}))
	kv := testutil.NewMockKVStore()
	client := NewKVClient(kv)

	store := properties.NewStore(map[string]string{"bad": "\xff"})
	err := d.Publish(context.Background(), store, client)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerialization)
	assert.ErrorIs(t, err, errors.ErrPublish)
	assert.Empty(t, kv.Entries())
	assert.Zero(t, kv.Revision())
}

func TestDistributor_RateLimit(t *testing.T) {
	_, err := NewDistributor("test", WithRateLimit(10, 0))
	assert.Error(t, err)

	d := newTestDistributor(t, WithRateLimit(1, 1))
	client := new(MockClient)
	client.On("Put", mock.Anything, "a", "1").Return(nil).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// The burst admits "a"; "b" would wait a full second and runs out of context.
	store := properties.NewStore(map[string]string{"a": "1", "b": "2"})
	err = d.Publish(ctx, store, client)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPublish)
	assert.Contains(t, err.Error(), `key "b"`)
	client.AssertExpectations(t)
}

func TestDistributor_Metrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	d := newTestDistributor(t, WithMetrics(registry))

	// A second distributor shares the same collectors
	_, err := NewDistributor("other", WithMetrics(registry))
	require.NoError(t, err)

	client := new(MockClient)
	client.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	store := properties.NewStore(map[string]string{"a": "1", "b": "2"})
	require.NoError(t, d.Publish(context.Background(), store, client))

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, values["propstream_distcache_puts_total"])
	assert.Equal(t, 1.0, values["propstream_distcache_publishes_total"])
	assert.Equal(t, 2.0, values["propstream_distcache_published_entries"])
}
