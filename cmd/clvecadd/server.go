package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/fxamacker/cbor/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/23skdu/longbow-clvecadd/internal/client"
	"github.com/23skdu/longbow-clvecadd/internal/vecadd"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clvecadd_request_duration_seconds",
		Help:    "Time spent processing vector addition requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})

	requestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clvecadd_request_errors_total",
		Help: "Total number of rejected or failed requests",
	}, []string{"handler"})
)

var tracer = otel.Tracer("clvecadd-server")

// Adder computes vector sums for operands decoded at run time.
type Adder interface {
	AddAny(ctx context.Context, a, b any) (vecadd.AnyResult, error)
}

type Server struct {
	adder Adder
	alloc memory.Allocator
	sem   *semaphore.Weighted
	limit int64
}

// NewServer admits at most maxElements output elements at a time.
func NewServer(adder Adder, maxElements int64) *Server {
	return &Server{
		adder: adder,
		alloc: memory.NewGoAllocator(),
		sem:   semaphore.NewWeighted(maxElements),
		limit: maxElements,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/vecadd", s.handleAdd)
	mux.HandleFunc("/vecadd/arrow", s.handleAddArrow)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

type addRequest struct {
	Type string          `cbor:"type"`
	A    cbor.RawMessage `cbor:"a"`
	B    cbor.RawMessage `cbor:"b"`
}

type addResponse struct {
	Type  string `cbor:"type"`
	C     any    `cbor:"c"`
	Path  string `cbor:"path"`
	RunID string `cbor:"run_id"`
}

// acquire admits a request of n elements. Requests larger than the limit
// wait for the whole budget.
func (s *Server) acquire(ctx context.Context, n int) (func(), error) {
	weight := min(int64(n), s.limit)
	if err := s.sem.Acquire(ctx, weight); err != nil {
		return nil, err
	}
	return func() { s.sem.Release(weight) }, nil
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleAdd")
	defer span.End()

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("vecadd").Observe(time.Since(start).Seconds())
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.fail(w, "vecadd", "Failed to read body", http.StatusBadRequest, err)
		return
	}
	var req addRequest
	if err := cbor.Unmarshal(body, &req); err != nil {
		span.RecordError(err)
		s.fail(w, "vecadd", "Invalid CBOR", http.StatusBadRequest, err)
		return
	}
	et, err := lookupType(req.Type)
	if err != nil {
		s.fail(w, "vecadd", err.Error(), http.StatusBadRequest, err)
		return
	}
	a, b, n, err := et.decode(req.A, req.B)
	if err != nil {
		s.fail(w, "vecadd", fmt.Sprintf("Invalid operands: %v", err), http.StatusBadRequest, err)
		return
	}
	span.SetAttributes(
		attribute.String("type", req.Type),
		attribute.Int("size", n),
	)

	release, err := s.acquire(ctx, n)
	if err != nil {
		s.fail(w, "vecadd", "Request cancelled", http.StatusServiceUnavailable, err)
		return
	}
	res, err := s.adder.AddAny(ctx, a, b)
	release()
	if err != nil {
		span.RecordError(err)
		s.fail(w, "vecadd", err.Error(), http.StatusBadRequest, err)
		return
	}

	out, err := cbor.Marshal(addResponse{Type: req.Type, C: res.C, Path: string(res.Path), RunID: res.RunID})
	if err != nil {
		s.fail(w, "vecadd", "Failed to encode result", http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/cbor")
	_, _ = w.Write(out)
}

func (s *Server) handleAddArrow(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleAddArrow")
	defer span.End()

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("vecadd_arrow").Observe(time.Since(start).Seconds())
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reader, err := ipc.NewReader(r.Body, ipc.WithAllocator(s.alloc))
	if err != nil {
		s.fail(w, "vecadd_arrow", fmt.Sprintf("Failed to create IPC reader: %v", err), http.StatusBadRequest, err)
		return
	}
	defer reader.Release()

	var writer *ipc.Writer
	rows := 0
	for reader.Next() {
		rec := reader.Record()
		a, b, err := client.Operands(rec)
		if err == nil {
			err = s.addRecord(ctx, &writer, w, a, b, int(rec.NumRows()))
		}
		if err != nil {
			span.RecordError(err)
			if writer == nil {
				s.fail(w, "vecadd_arrow", err.Error(), http.StatusBadRequest, err)
			} else {
				requestErrors.WithLabelValues("vecadd_arrow").Inc()
				log.Error().Err(err).Msg("Failed to process Arrow batch")
			}
			return
		}
		rows += int(rec.NumRows())
	}
	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		log.Error().Err(err).Msg("Error reading Arrow stream")
		if writer == nil {
			s.fail(w, "vecadd_arrow", "Stream error", http.StatusBadRequest, err)
			return
		}
	}
	if writer == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := writer.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Arrow stream")
	}
	span.SetAttributes(attribute.Int("rows", rows))
}

func (s *Server) addRecord(ctx context.Context, writer **ipc.Writer, w http.ResponseWriter, a, b any, n int) error {
	release, err := s.acquire(ctx, n)
	if err != nil {
		return err
	}
	res, err := s.adder.AddAny(ctx, a, b)
	release()
	if err != nil {
		return err
	}

	out, err := client.NewResultRecord(a, b, res.C)
	if err != nil {
		return err
	}
	defer out.Release()

	if *writer == nil {
		w.Header().Set("Content-Type", "application/vnd.apache.arrow.stream")
		*writer = ipc.NewWriter(w, ipc.WithSchema(out.Schema()), ipc.WithAllocator(s.alloc))
	}
	return (*writer).Write(out)
}

func (s *Server) fail(w http.ResponseWriter, handler, msg string, code int, err error) {
	requestErrors.WithLabelValues(handler).Inc()
	log.Debug().Err(err).Str("handler", handler).Int("status", code).Msg("Request failed")
	http.Error(w, msg, code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
