package model

import "errors"

// ErrMeterReading is returned when a closing meter reading goes backwards
var ErrMeterReading = errors.New("Close reading cannot be less than open reading unless the meter was reset (close reading 0)")

// CheckMeterReading enforces close >= open. A close reading of exactly zero
// is accepted as a meter reset.
func CheckMeterReading(open, close float64) error {
	if close == 0 {
		return nil
	}
	if close < open {
		return ErrMeterReading
	}
	return nil
}

// DispensedQuantity returns close - open for a forward reading and zero
// when the meter was reset.
func DispensedQuantity(open, close float64) float64 {
	if close == 0 || close < open {
		return 0
	}
	return close - open
}
