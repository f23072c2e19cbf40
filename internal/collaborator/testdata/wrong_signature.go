package main

func Invoke(a, b int) int {
	return a + b
}
