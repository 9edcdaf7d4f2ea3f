package battery

import (
	"context"
	"testing"
)

func TestClassify(t *testing.T) {
	const threshold = 11000

	tests := []struct {
		name string
		raw  int
		want bool
	}{
		{name: "well below", raw: 0, want: true},
		{name: "just below", raw: threshold - 1, want: true},
		{name: "exactly at threshold is not low", raw: threshold, want: false},
		{name: "just above", raw: threshold + 1, want: false},
		{name: "full scale", raw: 26400, want: false},
		{name: "negative raw", raw: -5, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.raw, threshold); got != tt.want {
				t.Errorf("Classify(%d, %d) = %v, want %v", tt.raw, threshold, got, tt.want)
			}
		})
	}
}

func TestFixedSampler(t *testing.T) {
	f := &Fixed{Raw: 20000, LowThreshold: 11000}
	st, err := f.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v, want nil", err)
	}
	if st.Raw != 20000 || st.Low {
		t.Errorf("Sample() = %+v, want Raw=20000 Low=false", st)
	}

	f = &Fixed{Raw: 100, LowThreshold: 11000}
	st, err = f.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v, want nil", err)
	}
	if !st.Low {
		t.Errorf("Sample() = %+v, want Low=true", st)
	}
}
