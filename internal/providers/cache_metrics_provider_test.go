package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCacheProvider_CountsHitsAndMisses(t *testing.T) {
	metrics := &testMetrics{}
	c := NewInstrumentedCacheProvider(cacheConfig(true, 1), &testLogger{}, metrics)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, metrics.cacheMisses)

	c.Set("k", []byte("v"))
	_, ok = c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 1, metrics.cacheHits)
}

func TestInstrumentedCacheProvider_DisabledSkipsWrapping(t *testing.T) {
	metrics := &testMetrics{}
	c := NewInstrumentedCacheProvider(cacheConfig(false, 1), &testLogger{}, metrics)

	_, ok := c.Get("k")
	assert.False(t, ok)
	// No phantom misses when the cache is off.
	assert.Equal(t, 0, metrics.cacheMisses)
}
