package provider

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cloud66-oss/ipgeo/utils"
)

const (
	DefaultMaxSources    = 3
	DefaultSourceTimeout = 1500 * time.Millisecond
	DefaultLang          = "zh-CN"
)

type AggregateOptions struct {
	// MaxSources is the number of sources attempted, successful or not.
	// Zero means all of them.
	MaxSources int
	// Timeout bounds each source query. Zero means no timeout beyond ctx.
	Timeout time.Duration
	Lang    string
}

// RemoteAggregator queries a random subset of its sources and merges their
// answers, the first answer in attempt order winning each field.
type RemoteAggregator struct {
	sources     []Source
	concurrency int
	shuffle     func([]Source)
}

// NewRemoteAggregator builds an aggregator over sources. concurrency bounds
// the number of queries in flight, zero meaning all attempted sources at
// once and one meaning strictly sequential.
func NewRemoteAggregator(sources []Source, concurrency int) *RemoteAggregator {
	return &RemoteAggregator{
		sources:     sources,
		concurrency: concurrency,
		shuffle: func(s []Source) {
			rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		},
	}
}

func (ra *RemoteAggregator) Sources() []Source {
	return slices.Clone(ra.sources)
}

func (ra *RemoteAggregator) Aggregate(ctx context.Context, address string, opts AggregateOptions) *utils.GeoRecord {
	order := slices.Clone(ra.sources)
	ra.shuffle(order)

	if opts.MaxSources > 0 && len(order) > opts.MaxSources {
		order = order[:opts.MaxSources]
	}

	results := make([]*utils.GeoRecord, len(order))

	if len(order) > 0 {
		limit := ra.concurrency
		if limit <= 0 || limit > len(order) {
			limit = len(order)
		}

		g := &errgroup.Group{}
		g.SetLimit(limit)

		for idx, src := range order {
			g.Go(func() error {
				results[idx] = ra.query(ctx, src, address, opts)
				return nil
			})
		}

		g.Wait() // nolint: errcheck
	}

	unified := utils.NewGeoRecord(address)
	for _, res := range results {
		unified.Merge(res)
	}

	unified.FillRegions()

	return unified
}

// query asks a single source. Any failure, including a panic of the source,
// is logged and turned into a nil result.
func (ra *RemoteAggregator) query(ctx context.Context, src Source, address string, opts AggregateOptions) (info *utils.GeoRecord) {
	name := src.Name()

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Err(&sourcePanicError{source: name, value: r}).Str("address", address).Msg("remote source panicked")
			sourceQueries.WithLabelValues(name, queryResultPanic).Inc()
			info = nil
		}
	}()

	if err := ctx.Err(); err != nil {
		sourceQueries.WithLabelValues(name, queryResultError).Inc()
		return nil
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	info, err := src.Query(ctx, address, opts.Lang)
	sourceDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		log.Debug().Err(err).Str("source", name).Str("address", address).Msg("remote source failed, skipping")
		sourceQueries.WithLabelValues(name, queryResultError).Inc()
		return nil
	}

	sourceQueries.WithLabelValues(name, queryResultOK).Inc()

	return info
}

type sourcePanicError struct {
	source string
	value  any
}

func (e *sourcePanicError) Error() string {
	return fmt.Sprintf("source %s panicked: %v", e.source, e.value)
}
