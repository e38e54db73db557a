package kernelcache

import (
	"fmt"

	"github.com/23skdu/longbow-clvecadd/internal/device"
)

// BuildError is returned when neither the binary nor the source artifact
// produced a program. It matches device.ErrBuild and both causes.
type BuildError struct {
	Binary error
	Source error
}

func (e *BuildError) Error() string {
	if e.Binary == nil {
		return fmt.Sprintf("error building program: %v", e.Source)
	}
	return fmt.Sprintf("error building program: %v (binary: %v)", e.Source, e.Binary)
}

func (e *BuildError) Unwrap() []error {
	errs := []error{device.ErrBuild}
	if e.Binary != nil {
		errs = append(errs, e.Binary)
	}
	if e.Source != nil {
		errs = append(errs, e.Source)
	}
	return errs
}
