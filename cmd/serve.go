package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolver over HTTP",
	Run:   execServe,
}

func init() {
	serveCmd.PersistentFlags().String("binding", "0.0.0.0", "API binding")
	serveCmd.PersistentFlags().Int("port", 9912, "API port")

	serveCmd.PersistentFlags().String("geodb.asn", "", "ASN mmdb database")
	serveCmd.PersistentFlags().String("geodb.city", "", "City mmdb database")
	serveCmd.PersistentFlags().String("geodb.country", "", "Country override mmdb database")

	serveCmd.PersistentFlags().Bool("remote.enabled", true, "Query remote sources")
	serveCmd.PersistentFlags().Int("remote.max_sources", 3, "Remote sources attempted per lookup")
	serveCmd.PersistentFlags().Duration("remote.timeout", 1500*time.Millisecond, "Timeout of each remote source")

	serveCmd.PersistentFlags().String("providers.ipstack.apikey", "", "IPStack API key")

	serveCmd.PersistentFlags().Bool("cache.enabled", true, "Cache resolved records")
	serveCmd.PersistentFlags().Int("cache.size", 1024, "Cache size")
	serveCmd.PersistentFlags().Duration("cache.ttl", time.Hour, "Lifetime of cached records")

	viper.BindPFlag("api.binding", serveCmd.PersistentFlags().Lookup("binding"))
	viper.BindPFlag("api.port", serveCmd.PersistentFlags().Lookup("port"))

	for _, key := range []string{
		"geodb.asn",
		"geodb.city",
		"geodb.country",
		"remote.enabled",
		"remote.max_sources",
		"remote.timeout",
		"providers.ipstack.apikey",
		"cache.enabled",
		"cache.size",
		"cache.ttl",
	} {
		viper.BindPFlag(key, serveCmd.PersistentFlags().Lookup(key))
	}
}

func execServe(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	resolver, reader, err := buildResolver(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open the local databases")
	}
	defer reader.Close()

	cp, err := cacheFromConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start cache")
	}

	if err := startServer(ctx, newServer(resolver, cp)); err != nil {
		log.Fatal().Err(err).Msg("failed to start the api server")
	}
}

func startServer(ctx context.Context, s *server) error {
	e := s.routes()
	address := fmt.Sprintf("%s:%d", viper.GetString("api.binding"), viper.GetInt("api.port"))

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("address", address).Msg("starting the api server")
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case <-quit:
	}

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return e.Shutdown(ctx)
}
