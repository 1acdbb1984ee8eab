package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedIsDeterministic(t *testing.T) {
	c := NewStaticClient(128)

	a, err := c.Embed(context.Background(), "func fibonacci(n u32) -> u32")
	require.NoError(t, err)
	b, err := c.Embed(context.Background(), "func fibonacci(n u32) -> u32")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestStaticEmbedIsUnitLength(t *testing.T) {
	c := NewStaticClient(64)
	v, err := c.Embed(context.Background(), "some representative chunk of source code")
	require.NoError(t, err)

	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5)
}

func TestStaticEmbedEmptyTextIsZeroVector(t *testing.T) {
	c := NewStaticClient(32)
	v, err := c.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestStaticEmbedDifferentTextDiffers(t *testing.T) {
	c := NewStaticClient(128)
	a, _ := c.Embed(context.Background(), "function one")
	b, _ := c.Embed(context.Background(), "completely unrelated text about rendering")
	assert.NotEqual(t, a, b)
}

func TestCachedClientServesFromCacheAndCountsMisses(t *testing.T) {
	inner := &countingClient{StaticClient: NewStaticClient(16)}
	cached := NewCachedClient(inner, 10)

	_, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	_, err = cached.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}

type countingClient struct {
	*StaticClient
	calls int
}

func (c *countingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.StaticClient.Embed(ctx, text)
}
