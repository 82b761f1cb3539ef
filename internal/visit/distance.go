package visit

import "math"

// EarthRadius is the mean Earth radius in metres used for distances.
const EarthRadius = 6371000.0

// Distance returns the great-circle distance in metres between two points
// given in degrees, using the haversine formula on a sphere.
//
// The asin argument is clamped to 1 so antipodal and nearly antipodal
// points stay inside its domain.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(a)))
}
