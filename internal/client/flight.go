// Package client carries vector addition operands and results as Arrow
// records, over IPC streams or an Arrow Flight exchange.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ExchangeCommand is the descriptor command of a vector addition exchange.
const ExchangeCommand = "vecadd"

var errNoRecords = errors.New("no records to exchange")

// FlightClient talks to a clvecadd Flight server.
type FlightClient struct {
	client flight.Client
	conn   *grpc.ClientConn
	alloc  memory.Allocator
}

// NewFlightClient creates a new Flight client connected to the given address.
func NewFlightClient(addr string) (*FlightClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}

	return &FlightClient{
		client: flight.NewClientFromConn(conn, nil),
		conn:   conn,
		alloc:  memory.NewGoAllocator(),
	}, nil
}

// Exchange streams operand records to the server and returns one result
// record per operand record. Every record must share one schema. The
// caller releases the returned records.
func (c *FlightClient) Exchange(ctx context.Context, records ...arrow.RecordBatch) ([]arrow.RecordBatch, error) {
	if len(records) == 0 {
		return nil, errNoRecords
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stream, err := c.client.DoExchange(ctx)
	if err != nil {
		return nil, fmt.Errorf("error opening exchange: %w", err)
	}

	var results []arrow.RecordBatch
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		writer := flight.NewRecordWriter(stream, ipc.WithSchema(records[0].Schema()))
		writer.SetFlightDescriptor(&flight.FlightDescriptor{
			Type: flight.DescriptorCMD,
			Cmd:  []byte(ExchangeCommand),
		})
		for _, rec := range records {
			if err := writer.Write(rec); err != nil {
				_ = writer.Close()
				return fmt.Errorf("error sending record: %w", err)
			}
		}
		if err := writer.Close(); err != nil {
			return err
		}
		return stream.CloseSend()
	})

	g.Go(func() error {
		reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(c.alloc))
		if err != nil {
			return fmt.Errorf("error reading results: %w", err)
		}
		defer reader.Release()
		for reader.Next() {
			rec := reader.Record()
			rec.Retain()
			results = append(results, rec)
			if gctx.Err() != nil {
				return gctx.Err()
			}
		}
		return reader.Err()
	})

	if err := g.Wait(); err != nil {
		for _, rec := range results {
			rec.Release()
		}
		return nil, err
	}
	if len(results) != len(records) {
		for _, rec := range results {
			rec.Release()
		}
		return nil, fmt.Errorf("sent %d records, received %d", len(records), len(results))
	}
	return results, nil
}

// Close closes the client connection.
func (c *FlightClient) Close() error {
	return c.conn.Close()
}
