package main

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/23skdu/longbow-clvecadd/internal/client"
)

// VecAddFlightServer answers DoExchange streams of operand records with
// result records.
type VecAddFlightServer struct {
	flight.BaseFlightServer
	adder Adder
	alloc memory.Allocator
}

func NewVecAddFlightServer(adder Adder) *VecAddFlightServer {
	return &VecAddFlightServer{
		adder: adder,
		alloc: memory.NewGoAllocator(),
	}
}

func (s *VecAddFlightServer) DoExchange(stream flight.FlightService_DoExchangeServer) error {
	ctx, span := tracer.Start(stream.Context(), "DoExchange")
	defer span.End()

	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(s.alloc))
	if err != nil {
		return err
	}
	defer reader.Release()

	if desc := reader.LatestFlightDescriptor(); desc != nil && len(desc.Cmd) > 0 && string(desc.Cmd) != client.ExchangeCommand {
		return fmt.Errorf("unknown exchange command %q", desc.Cmd)
	}

	var writer *flight.Writer
	batches := 0
	for reader.Next() {
		rec := reader.Record()
		a, b, err := client.Operands(rec)
		if err != nil {
			return err
		}
		res, err := s.adder.AddAny(ctx, a, b)
		if err != nil {
			return err
		}
		out, err := client.NewResultRecord(a, b, res.C)
		if err != nil {
			return err
		}
		if writer == nil {
			writer = flight.NewRecordWriter(stream, ipc.WithSchema(out.Schema()), ipc.WithAllocator(s.alloc))
		}
		err = writer.Write(out)
		out.Release()
		if err != nil {
			return err
		}
		batches++
		log.Debug().Int64("rows", rec.NumRows()).Str("path", string(res.Path)).Msg("DoExchange processed batch")
	}
	span.SetAttributes(attribute.Int("batches", batches))

	if writer != nil {
		if err := writer.Close(); err != nil {
			return err
		}
	}
	return reader.Err()
}

// newFlightServer creates a Flight server listening on addr.
func newFlightServer(addr string, adder Adder) (flight.Server, error) {
	server := flight.NewServerWithMiddleware(nil)
	server.RegisterFlightService(NewVecAddFlightServer(adder))
	if err := server.Init(addr); err != nil {
		return nil, fmt.Errorf("failed to init Flight server: %w", err)
	}
	return server, nil
}
