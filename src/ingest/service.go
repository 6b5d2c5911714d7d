package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"telemetry-anomaly-monitor/src/clock"
	"telemetry-anomaly-monitor/src/source"
	"telemetry-anomaly-monitor/src/store"
	"telemetry-anomaly-monitor/src/types"
)

type State int32

const (
	Connecting State = iota
	Running
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case Running:
		return "RUNNING"
	case Stopped:
		return "STOPPED"
	case Failed:
		return "FAILED"
	default:
		return "Unknown"
	}
}

type Options struct {
	Source  source.Source
	Records store.RecordWriter
	Raw     store.RawLog
	Errors  store.ErrorLog
	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *Metrics
}

// Service is the only writer of the raw log, the error log and the structured store.
type Service struct {
	source   source.Source
	pipeline *Pipeline
	clock    clock.Clock
	log      *slog.Logger
	metrics  *Metrics

	state atomic.Int32
}

func NewService(opts Options) *Service {
	s := &Service{
		source:  opts.Source,
		clock:   opts.Clock,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	s.pipeline = NewPipeline(opts.Records, opts.Raw, opts.Errors, s.log, s.metrics)
	s.state.Store(int32(Connecting))
	return s
}

func (s *Service) State() State { return State(s.state.Load()) }

func (s *Service) setState(st State) {
	s.state.Store(int32(st))
	s.metrics.State.Set(float64(st))
	s.log.Info("ingestion state changed", "state", st.String(), "source", s.source.Name())
}

// Run attaches the source and ingests until ctx is cancelled (STOPPED, nil),
// a replay ends (STOPPED, nil) or the link fails (FAILED, *types.SourceUnavailableError).
func (s *Service) Run(ctx context.Context) error {
	s.setState(Connecting)

	conn, err := s.source.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.setState(Stopped)
			return nil
		}
		s.setState(Failed)
		return &types.SourceUnavailableError{Source: s.source.Name(), Err: err}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			if err := conn.Close(); err != nil {
				s.log.Warn("failed to close source", "source", s.source.Name(), "error", err)
				return
			}
			s.log.Info("source closed", "source", s.source.Name())
		})
	}
	defer release()
	// Closing the connection is what unblocks a pending read on cancellation.
	stop := context.AfterFunc(ctx, release)
	defer stop()

	s.setState(Running)

	for {
		raw, err := conn.ReadLine()
		if err == nil {
			// A line already off the wire is recorded even when a stop arrived meanwhile.
			s.pipeline.Handle(context.WithoutCancel(ctx), raw, s.clock.Now)
		}
		if ctx.Err() != nil {
			s.setState(Stopped)
			return nil
		}

		switch {
		case err == nil:
		case errors.Is(err, source.ErrIdle):
			s.metrics.IdleTicks.Inc()
		case errors.Is(err, source.ErrEndOfStream):
			s.setState(Stopped)
			return nil
		default:
			s.setState(Failed)
			return &types.SourceUnavailableError{Source: s.source.Name(), Err: err}
		}
	}
}
