package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStreamIsDeterministic(t *testing.T) {
	a := NewStream(42)
	b := NewStream(42)

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.nextUint64(), b.nextUint64())
	}
}

func TestNewStreamDiffersBySeed(t *testing.T) {
	a := NewStream(1)
	b := NewStream(2)
	assert.NotEqual(t, a.nextUint64(), b.nextUint64())
}

func TestUniform01InRange(t *testing.T) {
	s := NewStream(7)
	for i := 0; i < 1000; i++ {
		v := s.Uniform01()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestUniformIntBounds(t *testing.T) {
	s := NewStream(7)
	for i := 0; i < 1000; i++ {
		v := s.UniformInt(5, 9)
		assert.GreaterOrEqual(t, v, int64(5))
		assert.LessOrEqual(t, v, int64(9))
	}
}

func TestUniformIntDegenerateRange(t *testing.T) {
	s := NewStream(7)
	assert.Equal(t, int64(5), s.UniformInt(5, 5))
	assert.Equal(t, int64(5), s.UniformInt(5, 3))
}

func TestPoissonZeroLambda(t *testing.T) {
	s := NewStream(7)
	assert.Equal(t, int64(0), s.Poisson(0))
	assert.Equal(t, int64(0), s.Poisson(-1))
}

func TestPoissonMeanApproximatesLambda(t *testing.T) {
	s := NewStream(123)
	const lambda = 3.0
	const n = 20000

	var total int64
	for i := 0; i < n; i++ {
		total += s.Poisson(lambda)
	}
	mean := float64(total) / n
	assert.InDelta(t, lambda, mean, 0.1)
}

func TestExponentialPositive(t *testing.T) {
	s := NewStream(7)
	for i := 0; i < 1000; i++ {
		assert.Greater(t, s.Exponential(2.0), 0.0)
	}
}

func TestNormalMeanApproximatesMu(t *testing.T) {
	s := NewStream(99)
	const mu, sigma = 10.0, 2.0
	const n = 20000

	var total float64
	for i := 0; i < n; i++ {
		total += s.Normal(mu, sigma)
	}
	mean := total / n
	assert.InDelta(t, mu, mean, 0.2)
}

func TestLogNormalPositive(t *testing.T) {
	s := NewStream(7)
	for i := 0; i < 1000; i++ {
		assert.Greater(t, s.LogNormal(0, 1), 0.0)
	}
}
