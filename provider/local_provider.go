package provider

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cloud66-oss/ipgeo/geodb"
	"github.com/cloud66-oss/ipgeo/normalize"
	"github.com/cloud66-oss/ipgeo/utils"
)

// LocalProvider resolves addresses from the local ASN, city and
// jurisdiction databases.
type LocalProvider struct {
	reader       GeoReader
	localizer    *normalize.Localizer
	operators    *normalize.OperatorResolver
	jurisdiction string
}

// NewLocalProvider builds a LocalProvider. An empty jurisdiction disables
// the country database override.
func NewLocalProvider(reader GeoReader, localizer *normalize.Localizer, operators *normalize.OperatorResolver, jurisdiction string) *LocalProvider {
	if localizer == nil {
		localizer = normalize.NewLocalizer(nil, normalize.DefaultSpecialRegions, normalize.DefaultRegionQualifier)
	}
	if operators == nil {
		operators = normalize.NewOperatorResolver(nil, nil)
	}

	return &LocalProvider{
		reader:       reader,
		localizer:    localizer,
		operators:    operators,
		jurisdiction: strings.ToUpper(jurisdiction),
	}
}

func (lp *LocalProvider) Lookup(ctx context.Context, address string, lang string) (*utils.GeoRecord, error) {
	ip := net.ParseIP(address)
	if ip == nil {
		return nil, &utils.IpAddressError{Address: address}
	}

	info := utils.NewGeoRecord(address)
	names := lp.localizer.WithLanguage(lang)

	asn, _, err := lp.reader.LookupASN(ip)
	if err != nil {
		return nil, fmt.Errorf("looking up asn: %w", err)
	}

	operator := ""
	if asn != nil {
		info.ASNumber = strconv.FormatUint(uint64(asn.AutonomousSystemNumber), 10)
		info.ASName = asn.AutonomousSystemOrganization
		operator = lp.operators.Resolve(asn.AutonomousSystemNumber, asn.AutonomousSystemOrganization)
		info.ASInfo = operator
	}

	city, prefixLen, err := lp.reader.LookupCity(ip)
	if err != nil {
		return nil, fmt.Errorf("looking up city: %w", err)
	}

	// the prefix of a miss is still a valid network boundary
	if info.Addr, err = geodb.NetworkPrefix(address, prefixLen); err != nil {
		return nil, err
	}

	if city == nil {
		return info, nil
	}

	if city.Location != nil {
		info.Latitude = formatCoordinate(city.Location.Latitude)
		info.Longitude = formatCoordinate(city.Location.Longitude)
		info.Timezone = city.Location.TimeZone
	}

	if city.Country != nil {
		info.CountryCode = city.Country.IsoCode
		info.CountryName = names.CountryName(city.Country.Names)
	}

	if city.RegisteredCountry != nil {
		info.RegisteredCountryCode = city.RegisteredCountry.IsoCode
		info.RegisteredCountryName = names.CountryName(city.RegisteredCountry.Names)
	}

	subdivisions := make([]string, 0, len(city.Subdivisions))
	for _, sub := range city.Subdivisions {
		subdivisions = append(subdivisions, names.Name(sub.Names))
	}

	cityName := ""
	if city.City != nil {
		cityName = names.Name(city.City.Names)
	}

	regions := normalize.BuildRegions(subdivisions, cityName, info.CountryName)
	if len(regions) > 0 {
		info.Regions = strings.Join(regions, ",")
		info.Province, info.City = normalize.ProvinceCity(regions)
	}

	if lp.inJurisdiction(city) {
		if err := lp.applyCountryOverride(ip, info, operator); err != nil {
			log.Debug().Err(err).Str("address", address).Msg("country database override failed")
		}
	}

	return info, nil
}

// inJurisdiction reports whether both the country and, when present, the
// registered country of the record are the configured jurisdiction.
func (lp *LocalProvider) inJurisdiction(city *geodb.CityRecord) bool {
	if lp.jurisdiction == "" || city.Country == nil || city.Country.IsoCode != lp.jurisdiction {
		return false
	}

	return city.RegisteredCountry == nil || city.RegisteredCountry.IsoCode == lp.jurisdiction
}

// applyCountryOverride refines info with the jurisdiction database. Its
// regions replace the city database ones; province and city are only filled
// when still empty.
func (lp *LocalProvider) applyCountryOverride(ip net.IP, info *utils.GeoRecord, operator string) error {
	rec, prefixLen, err := lp.reader.LookupCountry(ip)
	if err != nil {
		return err
	}

	if rec == nil {
		return nil
	}

	addr, err := geodb.NetworkPrefix(info.IP, prefixLen)
	if err != nil {
		return err
	}
	info.Addr = addr

	regions := normalize.Dedup([]string{rec.Province, rec.City, rec.District})
	if len(regions) > 0 {
		info.Regions = strings.Join(regions, ",")

		province, city := normalize.ProvinceCity(regions)
		if info.Province == "" {
			info.Province = province
		}
		if info.City == "" {
			info.City = city
		}
	}

	if rec.ISP != "" && operator == "" {
		info.ASInfo = rec.ISP
	}

	if rec.Net != "" {
		info.Type = rec.Net
	}

	return nil
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
