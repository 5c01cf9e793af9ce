// Package sphere provides the small amount of spherical geometry the linkage
// pipeline needs: great-circle separation, position angle, and arc-unit
// conversions. All angles are degrees unless named otherwise.
package sphere

import "math"

const (
	// DegPerArcmin converts arcminutes to degrees.
	DegPerArcmin = 1.0 / 60.0
	// DegPerArcsec converts arcseconds to degrees.
	DegPerArcsec = 1.0 / 3600.0
)

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Separation returns the great-circle angular separation in degrees between
// two sky positions, computed with the haversine form for small-angle
// stability.
func Separation(ra1, dec1, ra2, dec2 float64) float64 {
	phi1, phi2 := radians(dec1), radians(dec2)
	dPhi := phi2 - phi1
	dLam := radians(ra2 - ra1)

	sinPhi := math.Sin(dPhi / 2)
	sinLam := math.Sin(dLam / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLam*sinLam
	if h > 1 {
		h = 1
	}
	return degrees(2 * math.Asin(math.Sqrt(h)))
}

// PositionAngle returns the bearing from position 1 to position 2 in degrees
// east of north, in [0, 360).
func PositionAngle(ra1, dec1, ra2, dec2 float64) float64 {
	phi1, phi2 := radians(dec1), radians(dec2)
	dLam := radians(ra2 - ra1)

	y := math.Sin(dLam) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLam)
	pa := degrees(math.Atan2(y, x))
	if pa < 0 {
		pa += 360
	}
	return pa
}

// AngleBetween returns the absolute difference between two position angles,
// folded into [0, 180].
func AngleBetween(pa1, pa2 float64) float64 {
	d := math.Mod(math.Abs(pa1-pa2), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
