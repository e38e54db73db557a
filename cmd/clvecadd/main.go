package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

type globalFlags struct {
	logLevel   string
	enableOTel bool
	cpuProfile string
	setup      setupOptions
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("clvecadd failed")
	}
}

func newRootCmd() *cobra.Command {
	var (
		g        globalFlags
		cleanups []func()
	)

	root := &cobra.Command{
		Use:           "clvecadd",
		Short:         "Add vectors on an OpenCL device with host fallback",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(g.logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			zerolog.SetGlobalLevel(level)

			if g.enableOTel {
				shutdown, err := initTracer()
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}
				cleanups = append(cleanups, func() { _ = shutdown(context.Background()) })
			}

			if g.cpuProfile != "" {
				f, err := os.Create(g.cpuProfile)
				if err != nil {
					return fmt.Errorf("failed to create CPU profile file: %w", err)
				}
				if err := pprof.StartCPUProfile(f); err != nil {
					f.Close()
					return fmt.Errorf("could not start CPU profile: %w", err)
				}
				cleanups = append(cleanups, func() {
					pprof.StopCPUProfile()
					f.Close()
				})
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			for i := len(cleanups) - 1; i >= 0; i-- {
				cleanups[i]()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	pf.BoolVar(&g.enableOTel, "otel", false, "Enable OpenTelemetry tracing (stdout)")
	pf.StringVar(&g.cpuProfile, "cpuprofile", "", "Write cpu profile to file")
	g.setup.register(pf)

	root.AddCommand(
		newDevicesCmd(&g.setup),
		newRunCmd(&g.setup),
		newServeCmd(&g.setup),
	)
	return root
}

func initTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("clvecadd"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
