package utils

// IsLocationValid checks that coordinates are inside valid WGS84 ranges and
// not the (0,0) null island default some clients send for a denied
// geolocation prompt.
func IsLocationValid(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
