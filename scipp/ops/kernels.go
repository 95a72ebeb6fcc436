// Package ops implements broadcasting binary arithmetic over variables,
// data arrays and datasets.  The element-wise numeric work is delegated to
// opaque per-operation kernel objects; this package's job is alignment:
// dimension merging, unit combination, coordinate compatibility, mask
// propagation, variance propagation and all-or-nothing validation.
package ops

import (
	"errors"
	"fmt"

	"github.com/scipp/scipp-go/internal"
	"github.com/scipp/scipp-go/scipp/core"
	"github.com/scipp/scipp-go/scipp/units"
)

var (
	logger = internal.NewLogger("ops")
)

var (
	// ErrOperandMissing is returned when an in-place dataset operation
	// finds no matching item in the right-hand operand.
	ErrOperandMissing = errors.New("operand item missing")
)

// SetLogLevel sets the logging level to the given level, and returns the
// old level.
func SetLogLevel(level int) int {
	old := logger.LogLevel()
	switch level {
	case 0:
		logger.SetLogLevel(internal.LevelFatal)
	case 1:
		logger.SetLogLevel(internal.LevelError)
	case 2:
		logger.SetLogLevel(internal.LevelWarn)
	default:
		logger.SetLogLevel(internal.LevelInfo)
	}
	return int(old)
}

// Kernel is one element-wise binary operation: the value function, the
// variance propagation for independent and for fully-correlated (aliased)
// operands, and the unit combination rule.  The core routes spans to it
// and never looks inside.
type Kernel struct {
	name         string
	value        func(a, b float64) float64
	variance     func(a, va, b, vb float64) float64
	varianceSame func(a, va float64) float64
	unit         func(ua, ub units.Unit) (units.Unit, error)
}

// NewKernel builds a custom kernel.  variance propagates independent
// operands; varianceSame propagates the case where both operands are the
// same value (full correlation).
func NewKernel(
	name string,
	value func(a, b float64) float64,
	variance func(a, va, b, vb float64) float64,
	varianceSame func(a, va float64) float64,
	unit func(ua, ub units.Unit) (units.Unit, error),
) *Kernel {
	return &Kernel{name, value, variance, varianceSame, unit}
}

// Name returns the kernel's operation name.
func (k *Kernel) Name() string {
	return k.name
}

func sameUnit(ua, ub units.Unit) (units.Unit, error) {
	if !ua.Equal(ub) {
		return ua, fmt.Errorf("units %v and %v: %w", ua, ub, core.ErrUnitMismatch)
	}
	return ua, nil
}

var (
	// Add is element-wise addition.
	Add = &Kernel{
		name:  "add",
		value: func(a, b float64) float64 { return a + b },
		variance: func(_, va, _, vb float64) float64 {
			return va + vb
		},
		varianceSame: func(_, va float64) float64 {
			// a + a is 2a: the operands are fully correlated.
			return 4 * va
		},
		unit: sameUnit,
	}

	// Sub is element-wise subtraction.
	Sub = &Kernel{
		name:  "subtract",
		value: func(a, b float64) float64 { return a - b },
		variance: func(_, va, _, vb float64) float64 {
			return va + vb
		},
		varianceSame: func(_, _ float64) float64 {
			// a - a is exactly zero.
			return 0
		},
		unit: sameUnit,
	}

	// Mul is element-wise multiplication.
	Mul = &Kernel{
		name:  "multiply",
		value: func(a, b float64) float64 { return a * b },
		variance: func(a, va, b, vb float64) float64 {
			return va*b*b + vb*a*a
		},
		varianceSame: func(a, va float64) float64 {
			// d(a^2)/da = 2a
			return 4 * a * a * va
		},
		unit: func(ua, ub units.Unit) (units.Unit, error) {
			return ua.Mul(ub), nil
		},
	}

	// Div is element-wise division.
	Div = &Kernel{
		name:  "divide",
		value: func(a, b float64) float64 { return a / b },
		variance: func(a, va, b, vb float64) float64 {
			return va/(b*b) + vb*a*a/(b*b*b*b)
		},
		varianceSame: func(_, _ float64) float64 {
			// a / a is exactly one.
			return 0
		},
		unit: func(ua, ub units.Unit) (units.Unit, error) {
			return ua.Div(ub), nil
		},
	}
)
