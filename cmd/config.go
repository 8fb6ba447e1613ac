package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/cloud66-oss/ipgeo/cache"
	"github.com/cloud66-oss/ipgeo/geodb"
	"github.com/cloud66-oss/ipgeo/normalize"
	"github.com/cloud66-oss/ipgeo/provider"
)

func setDefaults() {
	viper.SetDefault("api.binding", "0.0.0.0")
	viper.SetDefault("api.port", 9912)

	viper.SetDefault("geodb.asn", "")
	viper.SetDefault("geodb.city", "")
	viper.SetDefault("geodb.country", "")

	viper.SetDefault("local.jurisdiction", "CN")
	viper.SetDefault("local.languages", normalize.DefaultLanguages)
	viper.SetDefault("local.special_regions", normalize.DefaultSpecialRegions)
	viper.SetDefault("local.region_qualifier", normalize.DefaultRegionQualifier)

	viper.SetDefault("remote.enabled", true)
	viper.SetDefault("remote.max_sources", provider.DefaultMaxSources)
	viper.SetDefault("remote.timeout", provider.DefaultSourceTimeout)
	viper.SetDefault("remote.concurrency", 0)
	viper.SetDefault("remote.lang", provider.DefaultLang)
	viper.SetDefault("remote.sources", provider.DefaultSourceNames)

	viper.SetDefault("providers.ipstack.apikey", "")

	viper.SetDefault("resolve.local_first", false)

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.size", 1024)
	viper.SetDefault("cache.ttl", cache.DefaultTTL)
}

// operatorsFromConfig reads operators.asn, a map of AS number to label, and
// operators.keywords, a list of {label, keywords} rules.
func operatorsFromConfig() (*normalize.OperatorResolver, error) {
	extra := make(map[uint]string)
	for k, v := range viper.GetStringMapString("operators.asn") {
		number, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("operators.asn: invalid AS number %q", k)
		}
		extra[uint(number)] = v
	}

	var rules []normalize.KeywordRule
	if viper.IsSet("operators.keywords") {
		if err := viper.UnmarshalKey("operators.keywords", &rules); err != nil {
			return nil, fmt.Errorf("operators.keywords: %w", err)
		}
	}

	return normalize.NewOperatorResolver(extra, rules), nil
}

func sourcesFromConfig(client *http.Client) ([]provider.Source, error) {
	var sources []provider.Source

	for _, name := range viper.GetStringSlice("remote.sources") {
		src, err := provider.NewJSONSource(name, client)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	if apiKey := viper.GetString("providers.ipstack.apikey"); apiKey != "" {
		timeout := viper.GetDuration("remote.timeout")
		if timeout <= 0 {
			timeout = provider.DefaultSourceTimeout
		}

		src, err := provider.NewIpStackProvider(apiKey, &http.Client{Timeout: timeout})
		if err != nil {
			return nil, fmt.Errorf("ipstack: %w", err)
		}
		sources = append(sources, src)
	}

	return sources, nil
}

// buildResolver opens the local databases and wires the resolution
// pipeline. The returned reader must be closed by the caller.
func buildResolver(_ context.Context) (*provider.Resolver, *geodb.Reader, error) {
	reader, err := geodb.Open(viper.GetString("geodb.asn"), viper.GetString("geodb.city"), viper.GetString("geodb.country"))
	if err != nil {
		return nil, nil, err
	}

	operators, err := operatorsFromConfig()
	if err != nil {
		reader.Close()
		return nil, nil, err
	}

	localizer := normalize.NewLocalizer(
		viper.GetStringSlice("local.languages"),
		viper.GetStringSlice("local.special_regions"),
		viper.GetString("local.region_qualifier"),
	)

	jurisdiction := viper.GetString("local.jurisdiction")
	local := provider.NewLocalProvider(reader, localizer, operators, jurisdiction)

	opts := provider.ResolverOptions{
		Jurisdiction: jurisdiction,
		LocalFirst:   viper.GetBool("resolve.local_first"),
		RemoteOptions: provider.AggregateOptions{
			MaxSources: viper.GetInt("remote.max_sources"),
			Timeout:    viper.GetDuration("remote.timeout"),
			Lang:       viper.GetString("remote.lang"),
		},
	}

	if viper.GetBool("remote.enabled") {
		sources, err := sourcesFromConfig(&http.Client{})
		if err != nil {
			reader.Close()
			return nil, nil, err
		}

		concurrency := viper.GetInt("remote.concurrency")
		if concurrency <= 0 {
			concurrency = opts.RemoteOptions.MaxSources
		}

		log.Info().Int("sources", len(sources)).Int("max_sources", opts.RemoteOptions.MaxSources).Msg("remote sources enabled")
		opts.Remote = provider.NewRemoteAggregator(sources, concurrency)
	}

	return provider.NewResolver(local, opts), reader, nil
}

func cacheFromConfig(ctx context.Context) (cache.CacheProvider, error) {
	if !viper.GetBool("cache.enabled") {
		return nil, nil
	}

	return cache.NewLocalCache(ctx, viper.GetInt("cache.size"), viper.GetDuration("cache.ttl"))
}
