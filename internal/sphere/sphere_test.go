package sphere

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSeparation_SamePoint(t *testing.T) {
	if got := Separation(120.5, -30.2, 120.5, -30.2); got != 0 {
		t.Errorf("separation of identical points = %v, want 0", got)
	}
}

func TestSeparation_Equator(t *testing.T) {
	// Along the equator separation equals the RA difference.
	if got := Separation(10, 0, 11.5, 0); !almostEqual(got, 1.5, 1e-9) {
		t.Errorf("separation = %v, want 1.5", got)
	}
}

func TestSeparation_Meridian(t *testing.T) {
	if got := Separation(40, 10, 40, 12); !almostEqual(got, 2, 1e-9) {
		t.Errorf("separation = %v, want 2", got)
	}
}

func TestSeparation_Symmetric(t *testing.T) {
	a := Separation(12.3, 45.6, 13.1, 44.9)
	b := Separation(13.1, 44.9, 12.3, 45.6)
	if !almostEqual(a, b, 1e-12) {
		t.Errorf("separation not symmetric: %v vs %v", a, b)
	}
}

func TestSeparation_SmallAngleStability(t *testing.T) {
	// Sub-arcsecond separations must not collapse to zero.
	got := Separation(180, 0, 180+1e-5, 0)
	if !almostEqual(got, 1e-5, 1e-12) {
		t.Errorf("separation = %v, want 1e-5", got)
	}
}

func TestPositionAngle_CardinalDirections(t *testing.T) {
	cases := []struct {
		name           string
		ra2, dec2, want float64
	}{
		{"north", 100, 1, 0},
		{"east", 101, 0, 90},
		{"south", 100, -1, 180},
		{"west", 99, 0, 270},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PositionAngle(100, 0, tc.ra2, tc.dec2)
			if !almostEqual(got, tc.want, 0.02) {
				t.Errorf("position angle = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAngleBetween_Folds(t *testing.T) {
	cases := []struct {
		pa1, pa2, want float64
	}{
		{10, 30, 20},
		{30, 10, 20},
		{350, 10, 20},
		{0, 180, 180},
		{90, 271, 179},
	}
	for _, tc := range cases {
		if got := AngleBetween(tc.pa1, tc.pa2); !almostEqual(got, tc.want, 1e-9) {
			t.Errorf("AngleBetween(%v, %v) = %v, want %v", tc.pa1, tc.pa2, got, tc.want)
		}
	}
}

func TestArcUnitConversions(t *testing.T) {
	if got := 60.0 * DegPerArcmin; !almostEqual(got, 1, 1e-12) {
		t.Errorf("60 arcmin = %v deg, want 1", got)
	}
	if got := 145.0 * DegPerArcsec; !almostEqual(got, 145.0/3600, 1e-12) {
		t.Errorf("145 arcsec = %v deg", got)
	}
}
