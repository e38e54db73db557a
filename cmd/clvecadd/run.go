package main

import (
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/x448/float16"

	"github.com/23skdu/longbow-clvecadd/internal/client"
)

type runOptions struct {
	typ        string
	size       int
	sizeB      int
	repeat     int
	arrowOut   string
	flightAddr string
}

func newRunCmd(setup *setupOptions) *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Add the vectors 1..n and n+1..2n and print the sum",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, setup, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.typ, "type", "int32", "Element type")
	f.IntVar(&o.size, "size", 10, "Length of operand a")
	f.IntVar(&o.sizeB, "size-b", 0, "Length of operand b (default: --size)")
	f.IntVar(&o.repeat, "repeat", 1, "Number of times to run the addition")
	f.StringVar(&o.arrowOut, "arrow", "", "Write a, b and c as an Arrow IPC stream to this file ('-' for stdout)")
	f.StringVar(&o.flightAddr, "flight", "", "Send the operands to a clvecadd Flight server instead of computing locally")
	return cmd
}

func runAdd(cmd *cobra.Command, setup *setupOptions, o runOptions) error {
	et, err := lookupType(o.typ)
	if err != nil {
		return err
	}
	if o.sizeB <= 0 {
		o.sizeB = o.size
	}
	a := et.ramp(o.size, 1)
	b := et.ramp(o.sizeB, o.size+1)

	var c any
	if o.flightAddr != "" {
		c, err = exchange(cmd, o.flightAddr, a, b)
		if err != nil {
			return err
		}
	} else {
		engine, err := setup.newEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		for i := 0; i < max(o.repeat, 1); i++ {
			res, err := engine.AddAny(cmd.Context(), a, b)
			if err != nil {
				return err
			}
			log.Info().
				Str("run", res.RunID).
				Str("path", string(res.Path)).
				Str("type", o.typ).
				Int("size", reflect.ValueOf(res.C).Len()).
				Dur("elapsed", res.Elapsed).
				Msg("Vector addition")
			c = res.C
		}
	}

	if o.arrowOut != "" {
		return writeResult(o.arrowOut, a, b, c)
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatValues(c))
	return nil
}

func exchange(cmd *cobra.Command, addr string, a, b any) (any, error) {
	n := min(reflect.ValueOf(a).Len(), reflect.ValueOf(b).Len())
	rec, err := client.NewOperandRecord(truncate(a, n), truncate(b, n))
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	fc, err := client.NewFlightClient(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer fc.Close()

	results, err := fc.Exchange(cmd.Context(), rec)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		defer r.Release()
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("flight exchange returned %d records, want 1", len(results))
	}
	c, err := client.Result(results[0])
	if err != nil {
		return nil, err
	}
	// The result aliases the record, which is released on return.
	return clone(c), nil
}

func writeResult(path string, a, b, c any) error {
	n := reflect.ValueOf(c).Len()
	rec, err := client.NewResultRecord(truncate(a, n), truncate(b, n), c)
	if err != nil {
		return err
	}
	defer rec.Release()

	if path == "-" {
		return writeArrowStream(os.Stdout, rec)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeArrowStream(f, rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeArrowStream(w io.Writer, rec arrow.RecordBatch) error {
	writer := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()))
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func truncate(v any, n int) any {
	return reflect.ValueOf(v).Slice(0, n).Interface()
}

func clone(v any) any {
	rv := reflect.ValueOf(v)
	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(out, rv)
	return out.Interface()
}

func formatValues(v any) string {
	if h, ok := v.([]float16.Float16); ok {
		f := make([]float32, len(h))
		for i, x := range h {
			f[i] = x.Float32()
		}
		return fmt.Sprint(f)
	}
	return fmt.Sprint(v)
}
