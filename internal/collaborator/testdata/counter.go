package main

var calls int64

// Invoke emits the number of calls made since deployment.
func Invoke(a, b int64) []int64 {
	calls++
	return []int64{calls}
}
