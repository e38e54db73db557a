package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-clvecadd/internal/client"
	"github.com/23skdu/longbow-clvecadd/internal/vecadd"
)

type mockAdder struct {
	mock.Mock
}

func (m *mockAdder) AddAny(ctx context.Context, a, b any) (vecadd.AnyResult, error) {
	args := m.Called(ctx, a, b)
	return args.Get(0).(vecadd.AnyResult), args.Error(1)
}

func encodeRequest(t *testing.T, typ string, a, b any) []byte {
	t.Helper()
	ra, err := cbor.Marshal(a)
	require.NoError(t, err)
	rb, err := cbor.Marshal(b)
	require.NoError(t, err)
	data, err := cbor.Marshal(addRequest{Type: typ, A: ra, B: rb})
	require.NoError(t, err)
	return data
}

func TestServer_HandleAdd(t *testing.T) {
	ma := &mockAdder{}
	srv := NewServer(ma, 1024)

	t.Run("Success", func(t *testing.T) {
		ma.On("AddAny", mock.Anything, []int32{1, 2, 3}, []int32{4, 5, 6, 7}).
			Return(vecadd.AnyResult{C: []int32{5, 7, 9}, Path: vecadd.PathDevice, RunID: "run-1"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/vecadd", bytes.NewReader(encodeRequest(t, "int32", []int32{1, 2, 3}, []int32{4, 5, 6, 7})))
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp struct {
			Type  string  `cbor:"type"`
			C     []int32 `cbor:"c"`
			Path  string  `cbor:"path"`
			RunID string  `cbor:"run_id"`
		}
		require.NoError(t, cbor.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "int32", resp.Type)
		assert.Equal(t, []int32{5, 7, 9}, resp.C)
		assert.Equal(t, "device", resp.Path)
		assert.Equal(t, "run-1", resp.RunID)
		ma.AssertExpectations(t)
	})

	t.Run("Unknown type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/vecadd", bytes.NewReader(encodeRequest(t, "complex128", []int{1}, []int{1})))
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "unknown element type")
	})

	t.Run("Bad operands", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/vecadd", bytes.NewReader(encodeRequest(t, "uint8", []string{"x"}, []int{1})))
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Not CBOR", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/vecadd", bytes.NewReader([]byte{0xff, 0x00}))
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Adder error", func(t *testing.T) {
		ma.On("AddAny", mock.Anything, []int64{1}, []int64{2}).
			Return(vecadd.AnyResult{}, errors.New("boom")).Once()
		req := httptest.NewRequest(http.MethodPost, "/vecadd", bytes.NewReader(encodeRequest(t, "int64", []int64{1}, []int64{2})))
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		ma.AssertExpectations(t)
	})

	t.Run("Method not allowed", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/vecadd", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestServer_HandleAddArrow(t *testing.T) {
	srv := NewServer(vecadd.NewEngine(nil, vecadd.Config{}), 1024)

	rec, err := client.NewOperandRecord([]float64{1, 2}, []float64{0.5, 0.25})
	require.NoError(t, err)
	defer rec.Release()

	var body bytes.Buffer
	require.NoError(t, writeArrowStream(&body, rec))

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/vecadd/arrow", &body))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/vnd.apache.arrow.stream", rr.Header().Get("Content-Type"))

	reader, err := ipc.NewReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer reader.Release()
	require.True(t, reader.Next())
	c, err := client.Result(reader.Record())
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.25}, c)
	assert.False(t, reader.Next())
}

func TestServer_HandleAddArrow_BadStream(t *testing.T) {
	srv := NewServer(&mockAdder{}, 1024)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/vecadd/arrow", bytes.NewReader([]byte("not arrow"))))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_Health(t *testing.T) {
	srv := NewServer(&mockAdder{}, 1)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	srv := NewServer(&mockAdder{}, 1)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "clvecadd_")
}

func TestFlightServer_Exchange(t *testing.T) {
	fs, err := newFlightServer("localhost:0", vecadd.NewEngine(nil, vecadd.Config{}))
	require.NoError(t, err)
	go func() {
		_ = fs.Serve()
	}()
	defer fs.Shutdown()

	fc, err := client.NewFlightClient(fs.Addr().String())
	require.NoError(t, err)
	defer fc.Close()

	rec, err := client.NewOperandRecord([]uint16{65535, 1}, []uint16{1, 1})
	require.NoError(t, err)
	defer rec.Release()

	results, err := fc.Exchange(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, results, 1)
	defer results[0].Release()

	c, err := client.Result(results[0])
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 2}, c)
}
