package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveOptions struct {
	listen      string
	flightAddr  string
	maxElements int64
}

func newServeCmd(setup *setupOptions) *cobra.Command {
	var o serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve vector addition over HTTP and Arrow Flight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), setup, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.listen, "listen", ":8080", "Address to listen on for the HTTP server (empty disables)")
	f.StringVar(&o.flightAddr, "flight", "", "Address to listen on for the Flight server (e.g. :9090)")
	f.Int64Var(&o.maxElements, "max-elements", 1<<24, "Maximum number of elements processed concurrently")
	return cmd
}

func serve(ctx context.Context, setup *setupOptions, o serveOptions) error {
	if o.listen == "" && o.flightAddr == "" {
		return errors.New("nothing to serve: set --listen or --flight")
	}
	if o.maxElements <= 0 {
		return fmt.Errorf("--max-elements must be positive, got %d", o.maxElements)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := setup.newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	g, ctx := errgroup.WithContext(ctx)

	if o.listen != "" {
		srv := &http.Server{
			Addr:              o.listen,
			Handler:           NewServer(engine, o.maxElements).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("addr", o.listen).Msg("Starting clvecadd HTTP server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if o.flightAddr != "" {
		fs, err := newFlightServer(o.flightAddr, engine)
		if err != nil {
			return err
		}
		g.Go(func() error {
			log.Info().Str("addr", fs.Addr().String()).Msg("Starting clvecadd Flight server")
			return fs.Serve()
		})
		g.Go(func() error {
			<-ctx.Done()
			fs.Shutdown()
			return nil
		})
	}

	err = g.Wait()
	log.Info().Msg("Servers stopped")
	return err
}
