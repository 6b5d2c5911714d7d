package utils

// GetChange is the signed step between two consecutive values.
func GetChange(previous, current float64) float64 {
	return current - previous
}
