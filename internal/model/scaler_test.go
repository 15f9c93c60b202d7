package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMaxScaler(t *testing.T) {
	t.Run("scales columns into unit range", func(t *testing.T) {
		s, err := NewMinMaxScaler([]string{"a", "b"}, []float64{0, 10}, []float64{10, 30})
		require.NoError(t, err)

		out, err := s.Transform([]float64{5, 20})
		require.NoError(t, err)
		assert.Equal(t, []float64{0.5, 0.5}, out)
	})

	t.Run("values outside the fitted range extrapolate", func(t *testing.T) {
		s, err := NewMinMaxScaler([]string{"a"}, []float64{0}, []float64{10})
		require.NoError(t, err)

		out, err := s.Transform([]float64{15})
		require.NoError(t, err)
		assert.Equal(t, []float64{1.5}, out)
	})

	t.Run("degenerate column maps to zero", func(t *testing.T) {
		s, err := NewMinMaxScaler([]string{"flat", "b"}, []float64{7, 0}, []float64{7, 2})
		require.NoError(t, err)

		out, err := s.Transform([]float64{7, 1})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0.5}, out)
	})

	t.Run("length mismatch at construction", func(t *testing.T) {
		_, err := NewMinMaxScaler([]string{"a", "b"}, []float64{0}, []float64{1, 2})
		assert.Error(t, err)
	})

	t.Run("length mismatch at transform", func(t *testing.T) {
		s, err := NewMinMaxScaler([]string{"a"}, []float64{0}, []float64{1})
		require.NoError(t, err)

		_, err = s.Transform([]float64{1, 2})
		assert.Error(t, err)
	})
}
