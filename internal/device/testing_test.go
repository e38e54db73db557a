package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSource = `
__kernel void addVectors(__global const ARRAY_TYPE *a,
                         __global const ARRAY_TYPE *b,
                         __global ARRAY_TYPE *c,
                         const ulong n) {
	size_t i = get_global_id(0);
	if (i < n) {
		c[i] = a[i] + b[i];
	}
}
`

func newTestContext(t *testing.T, platforms ...SimPlatform) (*SimDriver, *ExecContext) {
	t.Helper()
	drv := NewSimDriver(platforms...)
	devices, err := ListDevices(drv, ClassAll)
	require.NoError(t, err)
	require.NotEmpty(t, devices)

	ec, err := Bind(devices, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ec.Close() })
	return drv, ec
}

func finish(t *testing.T, ec *ExecContext) {
	t.Helper()
	require.NoError(t, ec.Queue().Finish(context.Background()))
}
