package embedding

import (
	"errors"
	"math"
	"testing"
)

func TestCosineDistance_Identity(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.5, 0.5, 0.5},
		{-3, 7, 2.5, 0.1},
	}

	for _, v := range vectors {
		d := CosineDistance(v, v)
		if math.Abs(d) > 1e-6 {
			t.Errorf("expected distance 0 for identical vector %v, got %f", v, d)
		}
	}
}

func TestCosineDistance_Symmetric(t *testing.T) {
	a := []float32{0.2, -0.7, 1.3, 0.05}
	b := []float32{1.1, 0.4, -0.2, 0.9}

	if d1, d2 := CosineDistance(a, b), CosineDistance(b, a); d1 != d2 {
		t.Errorf("expected symmetric distance, got d(a,b)=%f d(b,a)=%f", d1, d2)
	}
}

func TestCosineDistance_Orthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	d := CosineDistance(a, b)
	if math.Abs(d-1) > 1e-6 {
		t.Errorf("expected distance 1 for orthogonal vectors, got %f", d)
	}
}

func TestCosineDistance_Opposite(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}

	d := CosineDistance(a, b)
	if math.Abs(d-2) > 1e-6 {
		t.Errorf("expected distance 2 for opposite vectors, got %f", d)
	}
}

func TestCosineDistance_ZeroVector(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{1, 2, 3}

	d := CosineDistance(a, b)
	if math.IsNaN(d) {
		t.Fatal("expected finite distance for zero vector, got NaN")
	}
	if math.Abs(d-1) > 1e-6 {
		t.Errorf("expected distance 1 for zero vector, got %f", d)
	}
}

func TestCheckDimension(t *testing.T) {
	if err := CheckDimension(128, 128); err != nil {
		t.Errorf("expected nil error for matching dimensions, got %v", err)
	}

	err := CheckDimension(128, 129)
	if err == nil {
		t.Fatal("expected error for mismatched dimensions")
	}

	var dimErr *DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected *DimensionError, got %T", err)
	}
	if dimErr.Want != 128 || dimErr.Got != 129 {
		t.Errorf("expected want=128 got=129, got want=%d got=%d", dimErr.Want, dimErr.Got)
	}
}
