//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/23skdu/longbow-clvecadd/internal/client"
	"github.com/23skdu/longbow-clvecadd/internal/vecadd"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	addr := "localhost:9090"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	log.Info().Str("addr", addr).Msg("Connecting to clvecadd Flight server")
	c, err := client.NewFlightClient(addr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect")
	}
	defer c.Close()

	const n = 100_000
	a := make([]int32, n)
	b := make([]int32, n)
	for i := range a {
		a[i] = int32(i)
		b[i] = int32(n - i)
	}
	rec, err := client.NewOperandRecord(a, b)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build record")
	}
	defer rec.Release()

	// The server may still be starting.
	var results []arrow.RecordBatch
	start := time.Now()
	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		results, err = c.Exchange(ctx, rec)
		cancel()
		if err == nil {
			break
		}
		log.Warn().Err(err).Msg("Exchange failed, retrying...")
		time.Sleep(time.Second)
	}
	if len(results) != 1 {
		log.Fatal().Int("got", len(results)).Msg("Expected one result record")
	}
	defer results[0].Release()
	log.Info().Dur("elapsed", time.Since(start)).Msg("Received result")

	got, err := client.Result(results[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Bad result record")
	}
	want := vecadd.Host(a, b)
	for i, v := range got.([]int32) {
		if v != want[i] {
			log.Fatal().Int("index", i).Int32("got", v).Int32("want", want[i]).Msg("Mismatch")
		}
	}

	fmt.Println("VERIFICATION PASSED")
}
