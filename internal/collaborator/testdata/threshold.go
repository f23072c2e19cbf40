package contract

// Invoke emits a single verdict: 1 when a is above 20.
func Invoke(a, b int64) []int64 {
	if a > 20 {
		return []int64{1}
	}
	return []int64{0}
}
