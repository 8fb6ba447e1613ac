package provider

import (
	"context"
	"net/http"
	"strconv"

	"github.com/qioalice/ipstack"
	"github.com/rs/zerolog/log"

	"github.com/cloud66-oss/ipgeo/utils"
)

// IpStackProvider is a remote source backed by the ipstack API. It needs an
// API key and is only part of the source set when one is configured.
type IpStackProvider struct {
	cli *ipstack.Client
}

// NewIpStackProvider builds the source without contacting ipstack. client
// bounds every request; nil means a client with DefaultSourceTimeout.
func NewIpStackProvider(apiKey string, client *http.Client) (*IpStackProvider, error) {
	log.Info().Msg("starting IpStack Provider")

	if client == nil {
		client = &http.Client{Timeout: DefaultSourceTimeout}
	}

	cli, err := ipstack.New(
		ipstack.ParamToken(apiKey),
		ipstack.ParamUseHTTPS(true),
		ipstack.ParamDisableFirstMeCall(),
		client,
	)
	if err != nil {
		log.Info().Msg("failed to create IpStack client. Have you remembered to set the API key? You can use the IPGEO_PROVIDERS_IPSTACK_APIKEY environment variable or providers.ipstack.apikey in the config file")
		return nil, err
	}

	return &IpStackProvider{cli: cli}, nil
}

func (provider *IpStackProvider) Name() string {
	return SourceIPStack
}

// Query runs the blocking client call in the background so that ctx bounds
// the wait.
func (provider *IpStackProvider) Query(ctx context.Context, address string, _ string) (*utils.GeoRecord, error) {
	type result struct {
		info *utils.GeoRecord
		err  error
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &sourcePanicError{source: SourceIPStack, value: r}}
			}
		}()

		info, err := provider.lookup(address)
		done <- result{info: info, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.info, res.err
	}
}

func (provider *IpStackProvider) lookup(address string) (*utils.GeoRecord, error) {
	ipInfo, err := provider.cli.IP(address)
	if err != nil {
		return nil, err
	}

	info := &utils.GeoRecord{
		IP:          ipInfo.IP,
		CountryCode: ipInfo.CountryCode,
		CountryName: ipInfo.CountryName,
		Province:    ipInfo.RegionName,
		City:        ipInfo.City,
		Latitude:    formatCoordinate32(ipInfo.Latitide),
		Longitude:   formatCoordinate32(ipInfo.Longitude),
	}

	// time_zone and connection are missing on the free plan
	if ipInfo.Timezone != nil {
		info.Timezone = ipInfo.Timezone.ID
	}

	if ipInfo.Connection != nil {
		info.ASName = ipInfo.Connection.ISP
		info.ISP = ipInfo.Connection.ISP
		if ipInfo.Connection.ASN != 0 {
			info.ASNumber = strconv.Itoa(ipInfo.Connection.ASN)
		}
	}

	return info, nil
}

// formatCoordinate32 renders a float32 with the shortest representation that
// round-trips at 32 bits, so 37.751 stays "37.751".
func formatCoordinate32(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
