package hue

import (
	"fmt"
	"math"
	"strings"
)

// Unit is the unit a hue angle is expressed in.
type Unit int

const (
	Radians Unit = iota
	Degrees
)

// ParseUnit accepts "rad"/"radians" and "deg"/"degrees".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rad", "radian", "radians":
		return Radians, nil
	case "deg", "degree", "degrees":
		return Degrees, nil
	}
	return 0, fmt.Errorf("unknown angle unit %q (valid: rad, deg)", s)
}

func (u Unit) String() string {
	if u == Degrees {
		return "deg"
	}
	return "rad"
}

// turn is one full revolution in this unit.
func (u Unit) turn() float64 {
	if u == Degrees {
		return 360
	}
	return 2 * math.Pi
}

// Angle is a position on the iso-luminance hue circle.
type Angle struct {
	Value float64
	Unit  Unit
}

// Rad returns an angle of v radians.
func Rad(v float64) Angle {
	return Angle{Value: v, Unit: Radians}
}

// Deg returns an angle of v degrees.
func Deg(v float64) Angle {
	return Angle{Value: v, Unit: Degrees}
}

// Radians returns the angle in radians.
func (a Angle) Radians() float64 {
	if a.Unit == Degrees {
		return a.Value * math.Pi / 180
	}
	return a.Value
}

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 {
	if a.Unit == Degrees {
		return a.Value
	}
	return a.Value * 180 / math.Pi
}

// In converts the angle to unit u.
func (a Angle) In(u Unit) Angle {
	if u == Degrees {
		return Deg(a.Degrees())
	}
	return Rad(a.Radians())
}

// Normalize wraps the angle into [0, 360) or [0, 2π).
func (a Angle) Normalize() Angle {
	turn := a.Unit.turn()
	v := math.Mod(a.Value, turn)
	if v < 0 {
		v += turn
	}
	if v >= turn {
		v = 0
	}
	return Angle{Value: v, Unit: a.Unit}
}

func (a Angle) String() string {
	if a.Unit == Degrees {
		return fmt.Sprintf("%g°", a.Value)
	}
	return fmt.Sprintf("%grad", a.Value)
}
