// Package units provides the opaque physical-unit values carried by
// variables.  The array engine only ever compares units for equality and
// combines them multiplicatively; it never looks inside.
package units

import (
	"fmt"
	"strings"
)

// Unit is a product of integer powers of base units.  The zero value is
// dimensionless.
type Unit struct {
	m      int8 // metre
	s      int8 // second
	kg     int8 // kilogram
	kelvin int8
	counts int8
}

var (
	// Dimensionless is the unit of pure numbers.
	Dimensionless = Unit{}

	// Counts is the unit of event or neutron counts.
	Counts = Unit{counts: 1}

	// M is metre.
	M = Unit{m: 1}

	// S is second.
	S = Unit{s: 1}

	// Kg is kilogram.
	Kg = Unit{kg: 1}

	// K is kelvin.
	K = Unit{kelvin: 1}
)

// Equal reports whether two units are the same.
func (u Unit) Equal(other Unit) bool {
	return u == other
}

// Mul returns the product unit.
func (u Unit) Mul(other Unit) Unit {
	return Unit{
		m:      u.m + other.m,
		s:      u.s + other.s,
		kg:     u.kg + other.kg,
		kelvin: u.kelvin + other.kelvin,
		counts: u.counts + other.counts,
	}
}

// Div returns the quotient unit.
func (u Unit) Div(other Unit) Unit {
	return Unit{
		m:      u.m - other.m,
		s:      u.s - other.s,
		kg:     u.kg - other.kg,
		kelvin: u.kelvin - other.kelvin,
		counts: u.counts - other.counts,
	}
}

// Pow returns the unit raised to an integer power.
func (u Unit) Pow(n int) Unit {
	p := int8(n)
	return Unit{
		m:      u.m * p,
		s:      u.s * p,
		kg:     u.kg * p,
		kelvin: u.kelvin * p,
		counts: u.counts * p,
	}
}

func appendPower(parts []string, symbol string, power int8) []string {
	switch {
	case power == 0:
	case power == 1:
		parts = append(parts, symbol)
	default:
		parts = append(parts, fmt.Sprintf("%s^%d", symbol, power))
	}
	return parts
}

func (u Unit) String() string {
	var parts []string
	parts = appendPower(parts, "counts", u.counts)
	parts = appendPower(parts, "m", u.m)
	parts = appendPower(parts, "kg", u.kg)
	parts = appendPower(parts, "s", u.s)
	parts = appendPower(parts, "K", u.kelvin)
	if len(parts) == 0 {
		return "dimensionless"
	}
	return strings.Join(parts, "*")
}
