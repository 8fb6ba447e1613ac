package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/cloud66-oss/ipgeo/cache"
	"github.com/cloud66-oss/ipgeo/provider"
	"github.com/cloud66-oss/ipgeo/utils"
)

type ipResolver interface {
	Resolve(ctx context.Context, address string, opts provider.ResolveOptions) (*utils.GeoRecord, error)
}

var _ ipResolver = (*provider.Resolver)(nil)

type server struct {
	resolver ipResolver
	// nil when caching is disabled
	cache cache.CacheProvider
}

func newServer(resolver ipResolver, cp cache.CacheProvider) *server {
	return &server{
		resolver: resolver,
		cache:    cp,
	}
}

func (s *server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID())
	e.Use(utils.ZeroLogger(&log.Logger))

	e.GET("/_ping", ping)
	e.GET("/v1/ip", s.getCallerIP)
	e.GET("/v1/ip/:address", s.getIP)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

func (s *server) getIP(c echo.Context) error {
	return s.lookup(c, c.Param("address"))
}

// getCallerIP resolves the address the request came from, honoring
// X-Forwarded-For and X-Real-IP.
func (s *server) getCallerIP(c echo.Context) error {
	return s.lookup(c, c.RealIP())
}

func (s *server) lookup(c echo.Context, address string) error {
	ctx := c.Request().Context()

	if ip := net.ParseIP(strings.TrimSpace(address)); ip != nil {
		address = ip.String()
	}

	opts := provider.ResolveOptions{
		Lang:      c.QueryParam("lang"),
		LocalOnly: c.QueryParam("source") == "local",
	}
	variant := cacheVariant(opts)

	log.Debug().Str("address", address).Str("variant", variant).Msg("fetching")

	if s.cache != nil {
		info, err := s.cache.Fetch(ctx, variant, address)
		if err != nil {
			log.Error().Err(err).Msg("failed to fetch from cache")
		}

		if info != nil {
			log.Trace().Str("address", address).Msg("returning cached value")
			return c.JSON(http.StatusOK, info)
		}

		log.Trace().Str("address", address).Str("variant", variant).Msg("not found in cache")
	}

	info, err := s.resolver.Resolve(ctx, address, opts)
	if err != nil {
		var ipErr *utils.IpAddressError
		if errors.As(err, &ipErr) {
			return c.JSON(http.StatusBadRequest, utils.ErrorResponse{
				Error: ipErr.Error(),
			})
		}

		log.Error().Str("address", address).Err(err).Msg("failed to resolve ip address")
		sentry.CaptureException(err)
		return err
	}

	if s.cache != nil {
		log.Trace().Str("address", address).Msg("adding to cache")
		if err := s.cache.Add(ctx, variant, info); err != nil {
			log.Error().Err(err).Msg("failed to update cache")
		}
	}

	return c.JSON(http.StatusOK, info)
}

func cacheVariant(opts provider.ResolveOptions) string {
	variant := opts.Lang
	if opts.LocalOnly {
		variant += "+local"
	}

	return variant
}
