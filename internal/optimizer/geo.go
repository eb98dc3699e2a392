package optimizer

import (
	"math"

	"github.com/jftuga/geodist"

	"github.com/smartfood/grocery-service/internal/types"
)

// DistanceKm returns the geodesic distance between two points in kilometers.
// Vincenty on the WGS-84 ellipsoid is used; near-antipodal pairs where it
// fails to converge fall back to haversine. Arguments are put in a canonical
// order first so DistanceKm(a, b) == DistanceKm(b, a) bit for bit.
func DistanceKm(a, b types.Location) float64 {
	if a == b {
		return 0
	}
	if less(b, a) {
		a, b = b, a
	}

	p1 := geodist.Coord{Lat: a.Latitude, Lon: a.Longitude}
	p2 := geodist.Coord{Lat: b.Latitude, Lon: b.Longitude}

	_, km, err := geodist.VincentyDistance(p1, p2)
	if err != nil || math.IsNaN(km) {
		_, km = geodist.HaversineDistance(p1, p2)
	}
	if km < 0 {
		return 0
	}
	return km
}

func less(a, b types.Location) bool {
	if a.Latitude != b.Latitude {
		return a.Latitude < b.Latitude
	}
	return a.Longitude < b.Longitude
}
