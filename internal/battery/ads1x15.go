package battery

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

// ADSSampler reads the battery divider through an ADS1115 on the I2C bus
// and mirrors the classification onto an optional indicator pin.
type ADSSampler struct {
	pin          ads1x15.PinADC
	indicator    gpio.PinOut
	lowThreshold int
	log          *slog.Logger
}

var channels = [...]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// NewADSSampler opens the I2C bus (empty name selects the first available)
// and prepares the given ADC channel. indicatorPin may be empty.
// periph's host must be initialized by the caller before this runs.
func NewADSSampler(busName string, channel, lowThreshold int, indicatorPin string, log *slog.Logger) (*ADSSampler, error) {
	if channel < 0 || channel >= len(channels) {
		return nil, fmt.Errorf("adc channel must be 0..%d, got %d", len(channels)-1, channel)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	adc, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("ads1115: %w", err)
	}

	pin, err := adc.PinForChannel(channels[channel], 3300*physic.MilliVolt, 1*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		return nil, fmt.Errorf("adc channel %d: %w", channel, err)
	}

	s := &ADSSampler{pin: pin, lowThreshold: lowThreshold, log: log}
	if indicatorPin != "" {
		p := gpioreg.ByName(indicatorPin)
		if p == nil {
			return nil, fmt.Errorf("indicator pin %q not found", indicatorPin)
		}
		s.indicator = p
	}
	return s, nil
}

func (s *ADSSampler) Sample(_ context.Context) (Status, error) {
	sample, err := s.pin.Read()
	if err != nil {
		return Status{}, fmt.Errorf("adc read: %w", err)
	}

	st := Status{Raw: int(sample.Raw), Low: Classify(int(sample.Raw), s.lowThreshold)}
	s.log.Debug("battery sampled", "raw", st.Raw, "v", sample.V, "low", st.Low)

	if s.indicator != nil {
		if err := s.indicator.Out(gpio.Level(st.Low)); err != nil {
			s.log.Warn("indicator pin write failed", "error", err)
		}
	}
	return st, nil
}

// Halt releases the ADC channel's continuous conversion.
func (s *ADSSampler) Halt() error {
	return s.pin.Halt()
}
