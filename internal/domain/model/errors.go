package model

import (
	"errors"
	"fmt"
)

// ErrNoActiveCity возвращается операциями симулятора до загрузки города
var ErrNoActiveCity = errors.New("no active city session")

type UnknownCityError struct {
	City string
}

func (e *UnknownCityError) Error() string {
	return fmt.Sprintf("unknown city %q", e.City)
}

type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q", e.Model)
}

type InvalidHourError struct {
	Hour int
}

func (e *InvalidHourError) Error() string {
	return fmt.Sprintf("invalid hour %d: must be in [0,23]", e.Hour)
}

type InvalidRateError struct {
	Rate float64
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("invalid rate %v: must be non-negative", e.Rate)
}

// IsValidation сообщает, является ли err ошибкой проверки входных данных
func IsValidation(err error) bool {
	var (
		city *UnknownCityError
		mdl  *UnknownModelError
		hour *InvalidHourError
		rate *InvalidRateError
	)
	return errors.As(err, &city) || errors.As(err, &mdl) || errors.As(err, &hour) || errors.As(err, &rate)
}
