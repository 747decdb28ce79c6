package errors

import (
	"math"
	"strings"
)

// CheckScalar rejects NaN and infinite values. Neither can be carried by the JSON Signal File,
// and neither is a meaningful observation.
func CheckScalar(op, param string, value float64) error {
	if math.IsNaN(value) {
		return NewInvalidArgumentError(op, param, value, "value is NaN")
	}
	if math.IsInf(value, 0) {
		return NewInvalidArgumentError(op, param, value, "value is infinite")
	}
	return nil
}

// CheckName rejects empty or blank names.
func CheckName(op, param, name string) error {
	if strings.TrimSpace(name) == "" {
		return NewInvalidArgumentError(op, param, name, "must not be blank")
	}
	return nil
}
