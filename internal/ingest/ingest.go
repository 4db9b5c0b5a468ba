// Package ingest drives batches of protocol events through decode and
// execute against a model store.
//
// Each event is decoded independently; rejections are recorded and logged
// but never abort the batch. Decoded models execute with bounded
// parallelism. Redactions run afterwards, in input order, so they can
// target events from the same batch. A store failure stops the run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/acterstore/internal/event"
	"github.com/roach88/acterstore/internal/model"
	"github.com/roach88/acterstore/internal/ref"
)

// DefaultWorkers bounds execute parallelism when Pipeline.Workers is unset.
const DefaultWorkers = 4

// Validator checks an event before it is decoded.
type Validator interface {
	Validate(ev event.Event) error
}

// Redactor is implemented by stores that can apply redactions.
type Redactor interface {
	Redact(ctx context.Context, eventID, redactedBy string) ([]ref.ExecuteReference, error)
}

// Pipeline ingests events into Store.
type Pipeline struct {
	Store   model.Store
	Workers int
	Logger  *slog.Logger

	// Validator, if set, rejects events whose content fails validation.
	Validator Validator
}

// errRedactedRedaction rejects redaction events that were themselves
// redacted; they no longer remove their target.
var errRedactedRedaction = errors.New("redaction event is not original")

// Outcome is what happened to one input event.
type Outcome struct {
	EventID    string                 `json:"event_id"`
	Type       string                 `json:"type"`
	Kind       model.Kind             `json:"kind,omitempty"`
	Redacts    string                 `json:"redacts,omitempty"`
	Rejected   bool                   `json:"rejected,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	References []ref.ExecuteReference `json:"references,omitempty"`
}

// Result summarizes one Ingest call. Outcomes follow input order.
type Result struct {
	RunID      string                 `json:"run_id"`
	Outcomes   []Outcome              `json:"outcomes"`
	References []ref.ExecuteReference `json:"references"`
	Decoded    int                    `json:"decoded"`
	Rejected   int                    `json:"rejected"`
	Redacted   int                    `json:"redacted"`
}

// Ingest decodes and executes events. The returned Result is populated
// even when an error is returned.
func (p *Pipeline) Ingest(ctx context.Context, events []event.Event) (Result, error) {
	runID := uuid.Must(uuid.NewV7()).String()
	logger := p.logger().With("run_id", runID)

	res := Result{
		RunID:      runID,
		Outcomes:   make([]Outcome, len(events)),
		References: []ref.ExecuteReference{},
	}

	models := make([]*model.RoomStatus, len(events))
	var redactions []int
	for i, ev := range events {
		res.Outcomes[i] = Outcome{EventID: ev.EventID, Type: ev.Type}

		if target := ev.Redacts(); target != "" {
			res.Outcomes[i].Redacts = target
			if !ev.Original {
				p.reject(logger, &res.Outcomes[i], errRedactedRedaction)
				continue
			}
			redactions = append(redactions, i)
			continue
		}

		status, err := p.decode(ev)
		if err != nil {
			p.reject(logger, &res.Outcomes[i], err)
			continue
		}
		models[i] = status
		res.Outcomes[i].Kind = status.Kind()
		EventsTotal.WithLabelValues(outcomeDecoded).Inc()
	}

	err := p.execute(ctx, models, res.Outcomes)
	if err == nil {
		err = p.redact(ctx, logger, events, redactions, res.Outcomes)
	}

	var all []ref.ExecuteReference
	for _, o := range res.Outcomes {
		switch {
		case o.Rejected:
			res.Rejected++
		case o.Redacts != "" && o.References != nil:
			res.Redacted++
		case o.Kind != "":
			res.Decoded++
		}
		all = append(all, o.References...)
	}
	if len(all) > 0 {
		res.References = ref.Normalize(all)
	}

	if err != nil {
		logger.Error("ingest aborted", "error", err)
		return res, err
	}
	logger.Debug("ingest complete",
		"events", len(events),
		"decoded", res.Decoded,
		"rejected", res.Rejected,
		"references", len(res.References),
	)
	return res, nil
}

func (p *Pipeline) decode(ev event.Event) (*model.RoomStatus, error) {
	if p.Validator != nil {
		if err := p.Validator.Validate(ev); err != nil {
			return nil, err
		}
	}
	return model.Decode(ev)
}

func (p *Pipeline) reject(logger *slog.Logger, o *Outcome, err error) {
	o.Rejected = true
	o.Reason = err.Error()
	EventsTotal.WithLabelValues(outcomeRejected).Inc()
	logger.Warn("event rejected", "event_id", o.EventID, "type", o.Type, "reason", o.Reason)
}

// execute runs every decoded model, writing references into outcomes.
func (p *Pipeline) execute(ctx context.Context, models []*model.RoomStatus, outcomes []Outcome) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())

	for i, m := range models {
		if m == nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			kind := string(m.Kind())
			start := time.Now()
			refs, err := m.Execute(ctx, p.Store)
			ExecuteDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
			if err != nil {
				StoreFailures.Inc()
				return fmt.Errorf("execute %s: %w", m.Meta().EventID, err)
			}
			ExecutedTotal.WithLabelValues(kind).Inc()
			outcomes[i].References = refs
			return nil
		})
	}
	return g.Wait()
}

// redact applies redaction events in input order.
func (p *Pipeline) redact(ctx context.Context, logger *slog.Logger, events []event.Event, idx []int, outcomes []Outcome) error {
	if len(idx) == 0 {
		return nil
	}
	redactor, ok := p.Store.(Redactor)
	if !ok {
		for _, i := range idx {
			p.reject(logger, &outcomes[i], errors.New("store does not support redaction"))
		}
		return nil
	}

	for _, i := range idx {
		ev := events[i]
		refs, err := redactor.Redact(ctx, outcomes[i].Redacts, ev.EventID)
		switch {
		case errors.Is(err, model.ErrNotFound):
			p.reject(logger, &outcomes[i], err)
		case err != nil:
			StoreFailures.Inc()
			return fmt.Errorf("redact %s: %w", outcomes[i].Redacts, err)
		default:
			EventsTotal.WithLabelValues(outcomeRedacted).Inc()
			outcomes[i].References = refs
		}
	}
	return nil
}

func (p *Pipeline) workers() int {
	if p.Workers <= 0 {
		return DefaultWorkers
	}
	return p.Workers
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
