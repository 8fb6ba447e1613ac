package provider

import (
	"context"
	"net"

	"github.com/cloud66-oss/ipgeo/geodb"
	"github.com/cloud66-oss/ipgeo/utils"
)

// Source is a third-party geolocation service returning a partial record
// for an address.
type Source interface {
	Name() string
	Query(ctx context.Context, address string, lang string) (*utils.GeoRecord, error)
}

// GeoReader performs longest-prefix-match lookups against the local
// databases. Each lookup returns the prefix length of the matched network,
// and a nil record on a miss.
type GeoReader interface {
	LookupASN(ip net.IP) (*geodb.ASNRecord, int, error)
	LookupCity(ip net.IP) (*geodb.CityRecord, int, error)
	LookupCountry(ip net.IP) (*geodb.CountryRecord, int, error)
}

// LocalLookup resolves an address from local data only.
type LocalLookup interface {
	Lookup(ctx context.Context, address string, lang string) (*utils.GeoRecord, error)
}

// Aggregator resolves an address from remote sources only. It never fails:
// sources that can not answer are skipped.
type Aggregator interface {
	Aggregate(ctx context.Context, address string, opts AggregateOptions) *utils.GeoRecord
}

var (
	_ GeoReader   = (*geodb.Reader)(nil)
	_ LocalLookup = (*LocalProvider)(nil)
	_ Aggregator  = (*RemoteAggregator)(nil)
)
