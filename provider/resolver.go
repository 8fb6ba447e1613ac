package provider

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/cloud66-oss/ipgeo/utils"
)

type ResolverOptions struct {
	// Remote is used for the remote stage. Nil disables it.
	Remote        Aggregator
	RemoteOptions AggregateOptions

	// Jurisdiction and LocalFirst make local data win over remote data for
	// addresses located in the jurisdiction.
	Jurisdiction string
	LocalFirst   bool
}

type ResolveOptions struct {
	Lang      string
	LocalOnly bool
}

// Resolver is the entry point of a resolution: remote sources first, local
// databases filling the gaps.
type Resolver struct {
	local         LocalLookup
	remote        Aggregator
	remoteOptions AggregateOptions
	jurisdiction  string
	localFirst    bool
}

func NewResolver(local LocalLookup, opts ResolverOptions) *Resolver {
	return &Resolver{
		local:         local,
		remote:        opts.Remote,
		remoteOptions: opts.RemoteOptions,
		jurisdiction:  strings.ToUpper(opts.Jurisdiction),
		localFirst:    opts.LocalFirst,
	}
}

// Resolve returns the unified record of address. Only an invalid address is
// an error; failing stages contribute nothing.
func (r *Resolver) Resolve(ctx context.Context, address string, opts ResolveOptions) (*utils.GeoRecord, error) {
	ip := net.ParseIP(strings.TrimSpace(address))
	if ip == nil {
		return nil, &utils.IpAddressError{Address: address}
	}

	address = ip.String()

	remote := utils.NewGeoRecord(address)
	if r.remote != nil && !opts.LocalOnly {
		remote = r.resolveRemote(ctx, address, opts.Lang)
	}

	local := r.resolveLocal(ctx, address, opts.Lang)

	var merged *utils.GeoRecord
	if r.localFirst && r.jurisdiction != "" && local.CountryCode == r.jurisdiction {
		merged = utils.NewGeoRecord(address).Merge(local).Merge(remote)
	} else {
		merged = remote.Merge(local)
	}

	merged.FillRegions()

	return merged, nil
}

func (r *Resolver) resolveRemote(ctx context.Context, address, lang string) (info *utils.GeoRecord) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("address", address).Interface("panic", rec).Msg("remote aggregation failed")
			sentry.CaptureException(fmt.Errorf("remote aggregation of %s: %v", address, rec))
			info = utils.NewGeoRecord(address)
		}
	}()

	opts := r.remoteOptions
	if lang != "" {
		opts.Lang = lang
	}

	info = r.remote.Aggregate(ctx, address, opts)
	if info == nil {
		info = utils.NewGeoRecord(address)
	}

	return info
}

func (r *Resolver) resolveLocal(ctx context.Context, address, lang string) (info *utils.GeoRecord) {
	defer func() {
		if rec := recover(); rec != nil {
			r.localFailed(address, fmt.Errorf("local resolution panicked: %v", rec))
			info = &utils.GeoRecord{}
		}
	}()

	if r.local == nil {
		return &utils.GeoRecord{}
	}

	info, err := r.local.Lookup(ctx, address, lang)
	if err != nil {
		r.localFailed(address, err)
		return &utils.GeoRecord{}
	}

	if info == nil {
		return &utils.GeoRecord{}
	}

	return info
}

func (r *Resolver) localFailed(address string, err error) {
	log.Warn().Err(err).Str("address", address).Msg("local resolution failed")
	localFailures.Inc()
	sentry.CaptureException(err)
}
