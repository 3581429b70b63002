package loader

import (
	"errors"
	"fmt"

	"github.com/Faultbox/glbloader/pkg/glb"
)

// Load errors. ErrInvalidDocument and glb.ErrMalformedContainer abort the
// whole load; the others only drop the sub-resource they occur in.
var (
	ErrInvalidDocument       = errors.New("invalid document")
	ErrUnresolvableReference = errors.New("unresolvable reference")
	ErrUnsupportedEncoding   = errors.New("unsupported encoding")
	ErrDefectiveSubResource  = errors.New("defective sub-resource")

	ErrUnsupportedComponentType = fmt.Errorf("%w: component type", ErrUnsupportedEncoding)
	ErrUnsupportedPixelFormat   = fmt.Errorf("%w: pixel format", ErrUnsupportedEncoding)
)

// IsFatal reports whether err aborts a load.
func IsFatal(err error) bool {
	return errors.Is(err, glb.ErrMalformedContainer) || errors.Is(err, ErrInvalidDocument)
}
