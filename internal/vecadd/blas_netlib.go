//go:build cgo && netlib

package vecadd

import (
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/netlib/blas/netlib"
)

// The host path uses the system BLAS (Accelerate on macOS, OpenBLAS on
// Linux) instead of the pure Go implementation.
func init() {
	blas32.Use(netlib.Implementation{})
	blas64.Use(netlib.Implementation{})
	log.Debug().Msg("Host BLAS: netlib")
}
