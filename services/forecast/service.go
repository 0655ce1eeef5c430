package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"crowdcal-backend/lib/scrapers/touringplans"
	"crowdcal-backend/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

// errUnknownResort marks a request naming a resort outside the resort
// table, so the handler can blame the caller instead of upstream.
var errUnknownResort = errors.New("unknown resort")

var tracer = otel.Tracer("services/forecast")

// Service is the forecast acquisition and caching engine: it answers
// FETCH_FORECAST requests from cache when possible, otherwise drives
// the authenticated fetch pipeline and persists the result.
type Service struct {
	client    *touringplans.Client
	store     *Store
	blockouts *BlockoutStore

	// one calendar fetch in flight per resort, one blockout refresh in
	// flight process-wide; concurrent callers share the in-flight
	// result instead of issuing duplicates
	fetch    singleflight.Group
	blockout singleflight.Group
}

type ServiceOptions struct {
	Client    *touringplans.Client
	Store     *Store
	Blockouts *BlockoutStore
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		client:    opts.Client,
		store:     opts.Store,
		blockouts: opts.Blockouts,
	}
}

// FetchForecast resolves every requested resort from cache or upstream,
// then merges the cached sequences into one per-day forecast. Any
// resort failing is terminal for this attempt; the caller receives an
// error rather than a partial merge.
func (s *Service) FetchForecast(ctx context.Context, req FetchForecastRequest) ([]touringplans.DayRecord, error) {
	ctx, span := tracer.Start(ctx, "service:FetchForecast")
	defer span.End()

	resorts := req.Resorts
	if len(resorts) == 0 {
		resorts = ResortList{touringplans.PrimaryResort}
	}

	for _, name := range resorts {
		err := s.getOrFetch(ctx, name, req)
		if err != nil {
			span.SetStatus(codes.Error, "failed to resolve resort forecast")
			return nil, err
		}
	}

	merged, err := Merge(s.store.Forecasts(resorts))
	if err != nil {
		// drift between resort caches signals corruption; report it
		// but still serve what merged cleanly
		slog.ErrorContext(ctx, "resort forecasts drifted out of alignment", "err", err)
		span.RecordError(err)
	}
	return merged, nil
}

// getOrFetch serves the resort from cache when the entry is fresh,
// otherwise refreshes it from upstream.
func (s *Service) getOrFetch(ctx context.Context, name string, req FetchForecastRequest) error {
	resort, known := touringplans.Resorts[name]
	if !known {
		return fmt.Errorf("%w %q", errUnknownResort, name)
	}

	now := timezone.Now()
	if cached, hit := s.store.Get(name, now, req.MaximumEntries); hit {
		slog.DebugContext(ctx, "serving cached forecast",
			"resort", name, "entries", len(cached))
		return nil
	}

	_, err, shared := s.fetch.Do(name, func() (any, error) {
		return nil, s.refresh(ctx, name, resort, req.PassType)
	})
	if shared {
		slog.DebugContext(ctx, "coalesced duplicate fetch", "resort", name)
	}
	return err
}

// refresh runs the fetch pipeline for one resort: authenticate, fetch,
// parse, overlay, cache, persist. The primary resort additionally
// kicks off the blockout refresh in parallel; its result only affects
// records parsed after it lands, since the overlay happens here and
// not at cache-read time.
func (s *Service) refresh(ctx context.Context, name string, resort touringplans.Resort, passType string) error {
	ctx, span := tracer.Start(ctx, "service:refresh")
	defer span.End()

	if name == touringplans.PrimaryResort {
		go s.refreshBlockouts(context.WithoutCancel(ctx))
	}

	records, err := s.client.FetchCrowdCalendar(ctx, resort, timezone.Now())
	if err != nil {
		span.SetStatus(codes.Error, "calendar fetch failed")
		return err
	}

	index := s.blockouts.Index()
	for i := range records {
		index.Apply(&records[i], passType)
	}

	expires := timezone.CacheEpoch(timezone.Now())
	err = s.store.Update(name, records, expires)
	if err != nil {
		span.SetStatus(codes.Error, "failed to persist forecast cache")
		return fmt.Errorf("persist forecast cache: %w", err)
	}

	slog.InfoContext(ctx, "refreshed forecast cache",
		"resort", name, "entries", len(records), "expires", expires)
	return nil
}

// refreshBlockouts rebuilds the blockout index, single-flight. Failure
// is logged rather than propagated: the calendar fetch that triggered
// it still completes against the previous index.
func (s *Service) refreshBlockouts(ctx context.Context) {
	_, err, _ := s.blockout.Do("blockout", func() (any, error) {
		index, err := s.client.FetchBlockouts(ctx)
		if err != nil {
			return nil, err
		}
		return nil, s.blockouts.Replace(index)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to refresh blockout index", "err", err)
	}
}
