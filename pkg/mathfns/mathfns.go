// Package mathfns provides small integer and statistics helpers.
package mathfns

import (
	"errors"
	"sort"
)

// ErrNegative is returned for operations undefined on negative inputs.
var ErrNegative = errors.New("undefined for negative input")

// ErrEmpty is returned for statistics over an empty slice.
var ErrEmpty = errors.New("empty input")

// Factorial returns n! for n >= 0.
func Factorial(n int) (int64, error) {
	if n < 0 {
		return 0, ErrNegative
	}
	result := int64(1)
	for i := 2; i <= n; i++ {
		result *= int64(i)
	}
	return result, nil
}

// Fibonacci returns the nth Fibonacci number, with Fibonacci(0) = 0 and
// Fibonacci(1) = 1.
func Fibonacci(n int) (int64, error) {
	if n < 0 {
		return 0, ErrNegative
	}
	var a, b int64 = 0, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return a, nil
}

// GCD returns the greatest common divisor of a and b. GCD(0, 0) is 0.
func GCD(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of a and b. LCM with 0 is 0.
func LCM(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	result := a / GCD(a, b) * b
	if result < 0 {
		return -result
	}
	return result
}

// IsPrime reports whether n is prime.
func IsPrime(n int) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for i := 3; i*i <= n; i += 2 {
		if n%i == 0 {
			return false
		}
	}
	return true
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// Median returns the median of values. The input is not modified.
func Median(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], nil
	}
	return (sorted[mid-1] + sorted[mid]) / 2, nil
}
