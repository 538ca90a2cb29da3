package spatial

import "math"

// EarthRadiusKm is the mean Earth radius used for all distances.
const EarthRadiusKm = 6371.0

// kmPerDegreeLat is the length of one degree of latitude on the sphere.
const kmPerDegreeLat = EarthRadiusKm * math.Pi / 180

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ValidCoordinate reports whether lat and lon are finite and in range.
func ValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Haversine returns the great-circle distance in kilometres between two
// points given in decimal degrees. It is symmetric and zero only for
// identical inputs.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	a := sinLat*sinLat + math.Cos(radians(lat1))*math.Cos(radians(lat2))*sinLon*sinLon
	d := 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
	if d == 0 {
		// distinct points closer than float resolution
		return math.SmallestNonzeroFloat64
	}
	return d
}

// box is a latitude band plus a longitude half-width around a centre. Any
// point within the radius of the centre lies inside the box.
type box struct {
	minLat, maxLat float64
	lon            float64
	lonDelta       float64 // 180 means every longitude
}

func boundingBox(lat, lon, radiusKm float64) box {
	latDelta := radiusKm / kmPerDegreeLat
	b := box{minLat: lat - latDelta, maxLat: lat + latDelta, lon: lon, lonDelta: 180}
	if b.minLat <= -90 || b.maxLat >= 90 {
		return b
	}

	// Longitude degrees shrink with cos(latitude); asin(sin δ / cos φ) is the
	// widest longitude offset a circle of angular radius δ reaches.
	ratio := math.Sin(radiusKm/EarthRadiusKm) / math.Cos(radians(lat))
	if ratio >= 1 {
		return b
	}
	b.lonDelta = math.Asin(ratio) * 180 / math.Pi
	return b
}

// contains allows a little slack so rounding never drops a boundary point.
func (b box) contains(lat, lon float64) bool {
	const slack = 1e-9
	if lat < b.minLat-slack || lat > b.maxLat+slack {
		return false
	}
	if b.lonDelta >= 180 {
		return true
	}
	d := math.Abs(lon - b.lon)
	if d > 180 {
		d = 360 - d
	}
	return d <= b.lonDelta+slack
}
