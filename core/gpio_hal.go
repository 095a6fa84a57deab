package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the digital output interface the core drivers use for
// chip selects and gain straps. Targets implement it over their pins.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// SetPin drives the pin high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error
}

// GainPins drives the two select lines of each channel's programmable
// amplifier. Channel n uses Pins[n-1][0] as bit 0 and Pins[n-1][1] as
// bit 1 of the gain code.
type GainPins struct {
	GPIO GPIODriver
	Pins [MaxChannels][2]GPIOPin
}

// Configure makes every select line an output and applies unity gain.
func (g *GainPins) Configure() error {
	for ch := range g.Pins {
		for _, pin := range g.Pins[ch] {
			if err := g.GPIO.ConfigureOutput(pin); err != nil {
				return err
			}
		}
		if err := g.Set(uint8(ch+1), GainUnity); err != nil {
			return err
		}
	}
	return nil
}

// Set drives the select lines of channel ch (1..4) to gain.
func (g *GainPins) Set(ch uint8, gain Gain) error {
	if ch < 1 || ch > MaxChannels {
		return &RangeError{Field: "ADC channel", Value: int64(ch), Min: 1, Max: MaxChannels}
	}
	if gain > GainDouble {
		return &RangeError{Field: "ADC gain", Value: int64(gain), Min: int64(GainHalf), Max: int64(GainDouble)}
	}
	pins := g.Pins[ch-1]
	if err := g.GPIO.SetPin(pins[0], gain&1 != 0); err != nil {
		return err
	}
	return g.GPIO.SetPin(pins[1], gain&2 != 0)
}
