package device

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate_EmptyRegion(t *testing.T) {
	drv, ec := newTestContext(t)

	_, err := Allocate(ec, []int32{}, ReadOnly)
	require.ErrorIs(t, err, ErrAllocation)
	assert.Zero(t, drv.Calls(SimCreateBuffer))
}

func TestAllocate_DriverFailure(t *testing.T) {
	drv, ec := newTestContext(t)
	drv.InjectFault(SimCreateBuffer, clMemObjectAllocationFailure)
	live := testutil.ToFloat64(buffersLive)

	_, err := Allocate(ec, []float32{1, 2, 3}, ReadWrite)
	require.ErrorIs(t, err, ErrAllocation)
	code, ok := StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, clMemObjectAllocationFailure, code)
	assert.Equal(t, live, testutil.ToFloat64(buffersLive))
}

func TestBuffer_Metadata(t *testing.T) {
	_, ec := newTestContext(t)
	host := []int64{1, 2, 3}
	live := testutil.ToFloat64(buffersLive)

	buf, err := Allocate(ec, host, WriteOnly)
	require.NoError(t, err)
	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, 24, buf.ByteSize())
	assert.Equal(t, WriteOnly, buf.Mode())
	assert.Equal(t, host, buf.Host())
	assert.Equal(t, live+1, testutil.ToFloat64(buffersLive))

	require.NoError(t, buf.Release())
	require.NoError(t, buf.Release())
	assert.Equal(t, live, testutil.ToFloat64(buffersLive))
}

func TestWriteRead_RoundTrip(t *testing.T) {
	_, ec := newTestContext(t)
	src := []uint16{10, 20, 30, 40}
	dst := make([]uint16, len(src))

	buf, err := Allocate(ec, src, ReadWrite)
	require.NoError(t, err)
	defer buf.Release()

	q := ec.Queue()
	w, err := Write(q, buf, src, nil)
	require.NoError(t, err)
	r, err := Read(q, buf, dst, []*Event{w})
	require.NoError(t, err)
	assert.Equal(t, KindWrite, w.Kind())
	assert.Equal(t, KindRead, r.Kind())

	finish(t, ec)
	require.NoError(t, CheckEvents(w, r))
	RecordProfiles(w, r)
	require.NoError(t, ReleaseEvents(w, r))
	assert.Equal(t, src, dst)
}

func TestTransfer_Validation(t *testing.T) {
	_, ec := newTestContext(t)
	buf, err := Allocate(ec, []int32{1, 2}, ReadOnly)
	require.NoError(t, err)
	defer buf.Release()

	_, err = Write(ec.Queue(), buf, []int32{}, nil)
	require.ErrorIs(t, err, ErrTransfer)

	_, err = Read(ec.Queue(), buf, make([]int32, 3), nil)
	require.ErrorIs(t, err, ErrTransfer)
	assert.Contains(t, err.Error(), "error reading buffer")
}

func TestTransfer_ExecutionFailure(t *testing.T) {
	drv, ec := newTestContext(t)
	drv.InjectFault(SimExecWrite, clOutOfResources)
	host := []float64{1, 2}

	buf, err := Allocate(ec, host, ReadOnly)
	require.NoError(t, err)
	defer buf.Release()

	ev, err := Write(ec.Queue(), buf, host, nil)
	require.NoError(t, err)
	finish(t, ec)

	st, err := ev.Status()
	require.NoError(t, err)
	assert.Equal(t, EventStatus(clOutOfResources), st)

	err = CheckEvents(ev)
	require.ErrorIs(t, err, ErrTransfer)
	assert.NotErrorIs(t, err, ErrDispatch)
	code, ok := StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, clOutOfResources, code)
	require.NoError(t, ev.Release())
}

func TestKernel_AddVectors(t *testing.T) {
	drv, ec := newTestContext(t)
	a := []int32{1, 2, 3, 4, 5}
	b := []int32{6, 7, 8, 9, 10}
	c := make([]int32, len(a))

	prog, err := ec.BuildFromSource(testSource, "-cl-std=CL3.0 -w -D ARRAY_TYPE=int")
	require.NoError(t, err)
	defer prog.Release()
	k, err := prog.Kernel("addVectors")
	require.NoError(t, err)
	defer k.Release()
	assert.Equal(t, "addVectors", k.Name())

	bufA, err := Allocate(ec, a, ReadOnly)
	require.NoError(t, err)
	bufB, err := Allocate(ec, b, ReadOnly)
	require.NoError(t, err)
	bufC, err := Allocate(ec, c, WriteOnly)
	require.NoError(t, err)

	q := ec.Queue()
	wa, err := Write(q, bufA, a, nil)
	require.NoError(t, err)
	wb, err := Write(q, bufB, b, nil)
	require.NoError(t, err)

	require.NoError(t, k.SetArg(0, bufA))
	require.NoError(t, k.SetArg(1, bufB))
	require.NoError(t, k.SetArg(2, bufC))
	require.NoError(t, k.SetArg(3, uint64(len(a))))

	kev, err := q.EnqueueKernel(k, 256, 256, []*Event{wa, wb})
	require.NoError(t, err)
	rev, err := Read(q, bufC, c, []*Event{kev})
	require.NoError(t, err)

	finish(t, ec)
	require.NoError(t, CheckEvents(wa, wb, kev, rev))
	assert.Equal(t, []int32{7, 9, 11, 13, 15}, c)

	require.NoError(t, ReleaseEvents(wa, wb, kev, rev))
	for _, buf := range []*Buffer[int32]{bufA, bufB, bufC} {
		require.NoError(t, buf.Release())
	}
	require.NoError(t, k.Release())
	require.NoError(t, prog.Release())
	assert.Equal(t, 2, drv.Live())
}
