package features

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/temcen/bookrec/internal/apperrors"
)

// MinMaxScaler maps each column onto [0,1] using bounds fit once. A constant
// column maps to 0.
type MinMaxScaler struct {
	Min    []float64
	Max    []float64
	Fitted bool
}

func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{}
}

// Fit records per-column bounds of m, replacing any previous fit.
func (s *MinMaxScaler) Fit(m *Matrix) error {
	d := m.Dense()
	if d == nil {
		return apperrors.State("cannot fit scaler on an empty matrix")
	}

	_, cols := d.Dims()
	s.Min = make([]float64, cols)
	s.Max = make([]float64, cols)
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, d)
		s.Min[j] = floats.Min(col)
		s.Max[j] = floats.Max(col)
	}
	s.Fitted = true
	return nil
}

// Transform scales m with the fitted bounds, returning a new matrix.
func (s *MinMaxScaler) Transform(m *Matrix) (*Matrix, error) {
	if !s.Fitted {
		return nil, apperrors.State("scaler used before fit")
	}
	if m.Width() != len(s.Min) {
		return nil, apperrors.State("scaler fit on %d columns, got %d", len(s.Min), m.Width())
	}

	out := m.Clone()
	for _, row := range out.Rows {
		s.scaleRow(row)
	}
	return out, nil
}

// TransformVector scales a single row in place.
func (s *MinMaxScaler) TransformVector(v []float64) error {
	if !s.Fitted {
		return apperrors.State("scaler used before fit")
	}
	if len(v) != len(s.Min) {
		return apperrors.State("scaler fit on %d columns, got %d", len(s.Min), len(v))
	}
	s.scaleRow(v)
	return nil
}

// FitTransform fits on m and returns the scaled copy.
func (s *MinMaxScaler) FitTransform(m *Matrix) (*Matrix, error) {
	if err := s.Fit(m); err != nil {
		return nil, err
	}
	return s.Transform(m)
}

// Width reports how many columns the scaler was fit on.
func (s *MinMaxScaler) Width() int {
	return len(s.Min)
}

func (s *MinMaxScaler) scaleRow(row []float64) {
	for j, v := range row {
		span := s.Max[j] - s.Min[j]
		if span == 0 {
			row[j] = v - s.Min[j]
			continue
		}
		row[j] = (v - s.Min[j]) / span
	}
}
