package mathfns

import (
	"errors"
	"testing"
)

func TestFactorial(t *testing.T) {
	tests := []struct {
		n    int
		want int64
	}{
		{0, 1},
		{1, 1},
		{5, 120},
		{10, 3628800},
	}
	for _, tt := range tests {
		got, err := Factorial(tt.n)
		if err != nil {
			t.Errorf("Factorial(%d) error = %v", tt.n, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Factorial(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}

	if _, err := Factorial(-1); !errors.Is(err, ErrNegative) {
		t.Errorf("Factorial(-1) error = %v, want ErrNegative", err)
	}
}

func TestFibonacci(t *testing.T) {
	want := []int64{0, 1, 1, 2, 3, 5, 8, 13, 21, 34}
	for n, expected := range want {
		got, err := Fibonacci(n)
		if err != nil {
			t.Fatalf("Fibonacci(%d) error = %v", n, err)
		}
		if got != expected {
			t.Errorf("Fibonacci(%d) = %d, want %d", n, got, expected)
		}
	}

	if _, err := Fibonacci(-3); !errors.Is(err, ErrNegative) {
		t.Errorf("Fibonacci(-3) error = %v, want ErrNegative", err)
	}
}

func TestGCD(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{12, 18, 6},
		{18, 12, 6},
		{7, 13, 1},
		{0, 5, 5},
		{0, 0, 0},
		{-12, 18, 6},
	}
	for _, tt := range tests {
		if got := GCD(tt.a, tt.b); got != tt.want {
			t.Errorf("GCD(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLCM(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{4, 6, 12},
		{7, 13, 91},
		{0, 5, 0},
		{-4, 6, 12},
	}
	for _, tt := range tests {
		if got := LCM(tt.a, tt.b); got != tt.want {
			t.Errorf("LCM(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsPrime(t *testing.T) {
	primes := []int{2, 3, 5, 7, 11, 13, 97}
	for _, n := range primes {
		if !IsPrime(n) {
			t.Errorf("IsPrime(%d) = false, want true", n)
		}
	}
	composites := []int{-7, 0, 1, 4, 9, 15, 91, 100}
	for _, n := range composites {
		if IsPrime(n) {
			t.Errorf("IsPrime(%d) = true, want false", n)
		}
	}
}

func TestMean(t *testing.T) {
	got, err := Mean([]float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Mean() error = %v", err)
	}
	if got != 2.5 {
		t.Errorf("Mean() = %v, want 2.5", got)
	}

	if _, err := Mean(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Mean(nil) error = %v, want ErrEmpty", err)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{[]float64{3, 1, 2}, 2},
		{[]float64{4, 1, 3, 2}, 2.5},
		{[]float64{5}, 5},
	}
	for _, tt := range tests {
		got, err := Median(tt.in)
		if err != nil {
			t.Fatalf("Median(%v) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Median(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	// Input is left unsorted.
	in := []float64{3, 1, 2}
	if _, err := Median(in); err != nil {
		t.Fatal(err)
	}
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("Median modified its input: %v", in)
	}

	if _, err := Median(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Median(nil) error = %v, want ErrEmpty", err)
	}
}
