package client

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-clvecadd/internal/vecadd"
)

// exchangeServer adds operands on the host.
type exchangeServer struct {
	flight.BaseFlightServer
	engine *vecadd.Engine
}

func (s *exchangeServer) DoExchange(stream flight.FlightService_DoExchangeServer) error {
	reader, err := flight.NewRecordReader(stream)
	if err != nil {
		return err
	}
	defer reader.Release()

	var writer *flight.Writer
	for reader.Next() {
		a, b, err := Operands(reader.Record())
		if err != nil {
			return err
		}
		res, err := s.engine.AddAny(stream.Context(), a, b)
		if err != nil {
			return err
		}
		out, err := NewResultRecord(a, b, res.C)
		if err != nil {
			return err
		}
		if writer == nil {
			writer = flight.NewRecordWriter(stream, ipc.WithSchema(out.Schema()))
		}
		err = writer.Write(out)
		out.Release()
		if err != nil {
			return err
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			return err
		}
	}
	return reader.Err()
}

func startServer(t *testing.T) string {
	t.Helper()
	server := flight.NewServerWithMiddleware(nil)
	server.RegisterFlightService(&exchangeServer{engine: vecadd.NewEngine(nil, vecadd.Config{})})
	require.NoError(t, server.Init("localhost:0"))
	go func() {
		_ = server.Serve()
	}()
	t.Cleanup(server.Shutdown)
	return server.Addr().String()
}

func TestFlightClient_Exchange(t *testing.T) {
	client, err := NewFlightClient(startServer(t))
	require.NoError(t, err)
	defer client.Close()

	first, err := NewOperandRecord([]int32{1, 2, 3}, []int32{10, 20, 30})
	require.NoError(t, err)
	defer first.Release()
	second, err := NewOperandRecord([]int32{-1}, []int32{1})
	require.NoError(t, err)
	defer second.Release()

	results, err := client.Exchange(context.Background(), first, second)
	require.NoError(t, err)
	require.Len(t, results, 2)
	defer func() {
		for _, r := range results {
			r.Release()
		}
	}()

	c, err := Result(results[0])
	require.NoError(t, err)
	assert.Equal(t, []int32{11, 22, 33}, c)
	c, err = Result(results[1])
	require.NoError(t, err)
	assert.Equal(t, []int32{0}, c)
	assert.Equal(t, int64(3), results[0].NumCols())
}

func TestFlightClient_ExchangeNothing(t *testing.T) {
	client, err := NewFlightClient(startServer(t))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Exchange(context.Background(), []arrow.RecordBatch{}...)
	assert.ErrorIs(t, err, errNoRecords)
}
