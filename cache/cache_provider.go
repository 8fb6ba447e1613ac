package cache

import (
	"context"

	"github.com/cloud66-oss/ipgeo/utils"
)

// CacheProvider stores resolved records. variant separates answers for the
// same address that differ by request options, like the language hint.
type CacheProvider interface {
	Fetch(ctx context.Context, variant string, address string) (*utils.GeoRecord, error)
	Add(ctx context.Context, variant string, info *utils.GeoRecord) error
}
