//go:build !opencl

package device

// NewOpenCLDriver reports ErrNotBuilt when the binary was compiled without
// the opencl build tag.
func NewOpenCLDriver() (Driver, error) {
	return nil, ErrNotBuilt
}
