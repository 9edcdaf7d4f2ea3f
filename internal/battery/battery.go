// Package battery samples the battery divider once per wake cycle and
// classifies the raw level against a calibrated threshold. One
// instantaneous sample decides the whole cycle's indication; there is no
// averaging or hysteresis, the wake interval itself smooths the signal.
package battery

import "context"

// Status is the result of one sample.
type Status struct {
	Raw int
	Low bool
}

// Sampler reads the battery level. Sampling happens before any network I/O
// so a low-battery determination survives even if the rest of the cycle
// fails.
type Sampler interface {
	Sample(ctx context.Context) (Status, error)
}

// Classify reports whether a raw level is low. The threshold is exclusive:
// a reading exactly at the threshold is not low.
func Classify(raw, lowThreshold int) bool {
	return raw < lowThreshold
}

// Fixed is a sampler for hardware without a battery divider wired up; it
// always reports the given raw level.
type Fixed struct {
	Raw          int
	LowThreshold int
}

func (f *Fixed) Sample(context.Context) (Status, error) {
	return Status{Raw: f.Raw, Low: Classify(f.Raw, f.LowThreshold)}, nil
}
