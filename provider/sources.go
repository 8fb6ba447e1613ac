package provider

import (
	"net/http"
	"strings"

	"github.com/cloud66-oss/ipgeo/utils"
)

// Names of the built-in remote sources.
const (
	SourceIPSB        = "ipsb"
	SourceIP2Location = "ip2location"
	SourceRealIP      = "realip"
	SourceIPAPI       = "ipapi"
	SourceIPAPIIs     = "ipapiis"
	SourceIPWhois     = "ipwhois"
	SourceIPStack     = "ipstack"
)

// DefaultSourceNames lists the built-in sources which need no credentials.
var DefaultSourceNames = []string{
	SourceIPSB,
	SourceIP2Location,
	SourceRealIP,
	SourceIPAPI,
	SourceIPAPIIs,
	SourceIPWhois,
}

// NewJSONSource returns one of the built-in JSON sources by name.
func NewJSONSource(name string, client *http.Client) (Source, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var template string
	var mapper jsonMapper

	switch name {
	case SourceIPSB:
		template, mapper = "https://api.ip.sb/geoip/{ip}", fromIPSB
	case SourceIP2Location:
		template, mapper = "https://api.ip2location.io/?ip={ip}", fromIP2Location
	case SourceRealIP:
		template, mapper = "https://realip.cc/?ip={ip}", fromRealIP
	case SourceIPAPI:
		template, mapper = "http://ip-api.com/json/{ip}?lang={lang}", fromIPAPI
	case SourceIPAPIIs:
		template, mapper = "https://api.ipapi.is/?ip={ip}", fromIPAPIIs
	case SourceIPWhois:
		template, mapper = "https://ipwhois.app/json/{ip}?format=json", fromIPWhois
	default:
		return nil, &utils.UnknownSourceError{Name: name}
	}

	return &jsonSource{
		name:        name,
		urlTemplate: template,
		mapper:      mapper,
		client:      client,
	}, nil
}

func fromIPSB(j map[string]any) *utils.GeoRecord {
	u := &utils.GeoRecord{
		IP:          field(j, "ip"),
		CountryCode: field(j, "country_code"),
		CountryName: field(j, "country"),
		Province:    field(j, "region"),
		City:        field(j, "city"),
		Latitude:    field(j, "latitude"),
		Longitude:   field(j, "longitude"),
		Timezone:    field(j, "timezone"),
		ASNumber:    ASNumber(j["asn"]),
		ASName:      field(j, "asn_organization", "organization"),
		ISP:         field(j, "isp"),
	}
	u.ASInfo = u.ASName

	return u
}

func fromIP2Location(j map[string]any) *utils.GeoRecord {
	u := &utils.GeoRecord{
		IP:          field(j, "ip"),
		CountryCode: field(j, "country_code"),
		CountryName: field(j, "country_name"),
		Province:    field(j, "region_name"),
		City:        field(j, "city_name"),
		Latitude:    field(j, "latitude"),
		Longitude:   field(j, "longitude"),
		ASNumber:    ASNumber(j["asn"]),
		ASName:      field(j, "as"),
		Timezone:    field(j, "time_zone"),
	}
	u.ASInfo = u.ASName

	if field(j, "is_proxy") == "true" {
		u.Type = "proxy"
	}

	return u
}

func fromRealIP(j map[string]any) *utils.GeoRecord {
	return &utils.GeoRecord{
		IP:          field(j, "ip"),
		CountryCode: field(j, "iso_code"),
		CountryName: field(j, "country"),
		Province:    field(j, "province"),
		City:        field(j, "city"),
		Latitude:    field(j, "latitude"),
		Longitude:   field(j, "longitude"),
		Addr:        field(j, "network"),
		ISP:         field(j, "isp"),
	}
}

func fromIPAPI(j map[string]any) *utils.GeoRecord {
	// a failed lookup is answered with 200 and status "fail"
	if field(j, "status") == "fail" {
		return &utils.GeoRecord{}
	}

	return &utils.GeoRecord{
		IP:          field(j, "query"),
		CountryCode: field(j, "countryCode"),
		CountryName: field(j, "country"),
		Province:    field(j, "regionName"),
		City:        field(j, "city", "district"),
		Latitude:    field(j, "lat"),
		Longitude:   field(j, "lon"),
		Timezone:    field(j, "timezone"),
		ISP:         field(j, "isp"),
		ASNumber:    firstASNumber(j["as"], j["asname"]),
		ASName:      field(j, "asname", "org"),
		ASInfo:      field(j, "as"),
	}
}

func fromIPAPIIs(j map[string]any) *utils.GeoRecord {
	loc := object(j, "location")
	asn := object(j, "asn")

	u := &utils.GeoRecord{
		IP:          field(j, "ip"),
		CountryCode: strings.ToUpper(field(loc, "country_code")),
		CountryName: field(loc, "country"),
		Province:    field(loc, "state"),
		City:        field(loc, "city"),
		Latitude:    field(loc, "latitude"),
		Longitude:   field(loc, "longitude"),
		Timezone:    field(loc, "timezone"),
		ASNumber:    ASNumber(asn["asn"]),
		ASName:      field(asn, "org"),
		ASInfo:      field(asn, "descr", "org"),
		ISP:         field(object(j, "company"), "name"),
	}

	if field(j, "is_datacenter") == "true" {
		u.Type = "datacenter"
	}

	return u
}

func fromIPWhois(j map[string]any) *utils.GeoRecord {
	if field(j, "success") == "" && j["success"] != nil {
		return &utils.GeoRecord{}
	}

	return &utils.GeoRecord{
		IP:          field(j, "ip"),
		CountryCode: field(j, "country_code"),
		CountryName: field(j, "country"),
		Province:    field(j, "region"),
		City:        field(j, "city"),
		Latitude:    field(j, "latitude"),
		Longitude:   field(j, "longitude"),
		Timezone:    field(j, "timezone", "timezone_name"),
		ASNumber:    ASNumber(j["asn"]),
		ASName:      field(j, "org"),
		ASInfo:      field(j, "as", "org"),
		ISP:         field(j, "isp"),
	}
}
