package colorspace

import (
	"fmt"

	"github.com/jsvensson/isohue/internal/color"
)

// NumericDomainError reports a NaN or Inf produced while transforming a
// color. The input is kept so the failure can be reproduced.
type NumericDomainError struct {
	Op    string
	Input color.Vec3
}

func (e *NumericDomainError) Error() string {
	return fmt.Sprintf("%s: non-finite result for input %v", e.Op, e.Input)
}

// OutOfRangeError reports a device value outside the valid code range after
// the inverse transform.
type OutOfRangeError struct {
	Depth  Depth
	Device color.Vec3
	Input  color.Vec3
}

func (e *OutOfRangeError) Error() string {
	lo, hi := e.Depth.DeviceRange()
	return fmt.Sprintf("chromatic %v maps to device %v, outside the %s range [%g, %g]",
		e.Input, e.Device, e.Depth, lo, hi)
}

// UnsupportedDepthError reports an operation invoked at a depth it cannot
// serve.
type UnsupportedDepthError struct {
	Depth Depth
	Op    string
}

func (e *UnsupportedDepthError) Error() string {
	if e.Depth == Depth8 || e.Depth == Depth10 {
		return fmt.Sprintf("%s: not supported at %s depth", e.Op, e.Depth)
	}
	return fmt.Sprintf("%s: unsupported depth %d (valid: 8, 10)", e.Op, int(e.Depth))
}
