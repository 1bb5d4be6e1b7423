package server

import (
	"bufio"
	"context"
	"fmt"
	"net"

	"github.com/Hill11235/scratch-http-server/internal/request"
	"github.com/Hill11235/scratch-http-server/internal/response"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/Hill11235/scratch-http-server/internal/server"

// LogSink receives one entry per handled request.
type LogSink interface {
	Append(entry string)
}

// Stage is the step a connection was in.
type Stage int

const (
	StageReading Stage = iota
	StageParsing
	StageBuilding
	StageWriting
	StageClosed
)

func (s Stage) String() string {
	switch s {
	case StageReading:
		return "reading"
	case StageParsing:
		return "parsing"
	case StageBuilding:
		return "building"
	case StageWriting:
		return "writing"
	case StageClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnFaultError aborts a single connection.
type ConnFaultError struct {
	Stage Stage
	Cause error
}

func (e *ConnFaultError) Error() string {
	return fmt.Sprintf("connection failed while %s: %s", e.Stage, e.Cause)
}

func (e *ConnFaultError) Unwrap() error {
	return e.Cause
}

// Worker serves exactly one request per connection from a document root.
type Worker struct {
	root   string
	sink   LogSink
	log    *zap.Logger
	tracer trace.Tracer
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WorkerLogger sets the logger connection faults are reported on.
func WorkerLogger(log *zap.Logger) WorkerOption {
	return func(w *Worker) {
		w.log = log
	}
}

func WorkerTracerProvider(tp trace.TracerProvider) WorkerOption {
	return func(w *Worker) {
		w.tracer = tp.Tracer(instrumentationName)
	}
}

func NewWorker(root string, sink LogSink, opts ...WorkerOption) *Worker {
	w := &Worker{
		root:   root,
		sink:   sink,
		log:    zap.NewNop(),
		tracer: otel.GetTracerProvider().Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Handle serves conn and closes it. Failures are logged, never returned.
func (w *Worker) Handle(conn net.Conn) {
	remote := conn.RemoteAddr().String()

	_, span := w.tracer.Start(
		context.Background(),
		"handle connection",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("net.peer.addr", remote)),
	)
	defer span.End()

	err := w.serve(conn, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.log.Error("connection failed", zap.String("remote_addr", remote), zap.Error(err))
	}

	if cerr := conn.Close(); cerr != nil {
		w.log.Debug("failed to close connection", zap.String("remote_addr", remote), zap.Error(cerr))
	}
}

func (w *Worker) serve(conn net.Conn, span trace.Span) (err error) {
	stage := StageReading
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		rerr, ok := r.(error)
		if !ok {
			rerr = fmt.Errorf("recovered from panic: %v", r)
		}
		err = &ConnFaultError{Stage: stage, Cause: rerr}
	}()

	raw, err := request.ReadRaw(bufio.NewReader(conn))
	if err != nil {
		return &ConnFaultError{Stage: stage, Cause: err}
	}

	stage = StageParsing
	req := request.Parse(raw)
	span.SetAttributes(
		attribute.String("http.method", req.RequestLine.Method),
		attribute.String("http.target", req.RequestLine.RequestTarget),
	)

	stage = StageBuilding
	resp, err := response.Build(req, w.root)
	if err != nil {
		return &ConnFaultError{Stage: stage, Cause: err}
	}
	span.SetAttributes(attribute.Int("http.status_code", int(resp.Status)))

	header := resp.Header()
	w.sink.Append(raw + header)

	stage = StageWriting
	bw := bufio.NewWriter(conn)
	err = resp.Write(bw)
	if err != nil {
		return &ConnFaultError{Stage: stage, Cause: err}
	}
	err = bw.Flush()
	if err != nil {
		return &ConnFaultError{Stage: stage, Cause: err}
	}

	stage = StageClosed
	w.log.Debug(
		"request served",
		zap.String("method", req.RequestLine.Method),
		zap.String("target", req.RequestLine.RequestTarget),
		zap.Int("status", int(resp.Status)),
	)
	return nil
}
