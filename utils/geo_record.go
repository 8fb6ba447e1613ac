package utils

import "strings"

// GeoRecord is the unified shape of a resolution. Every field is always
// serialized; an empty string means no source had an opinion.
//
// The same type is used for partial results of a single source.
type GeoRecord struct {
	IP                    string `json:"ip"`
	Addr                  string `json:"addr"`
	ASNumber              string `json:"as_number"`
	ASName                string `json:"as_name"`
	ASInfo                string `json:"as_info"`
	CountryCode           string `json:"country_code"`
	CountryName           string `json:"country_name"`
	RegisteredCountryCode string `json:"registered_country_code"`
	RegisteredCountryName string `json:"registered_country_name"`
	Latitude              string `json:"latitude"`
	Longitude             string `json:"longitude"`
	Province              string `json:"province"`
	City                  string `json:"city"`
	Regions               string `json:"regions"`
	Type                  string `json:"type"`
	Timezone              string `json:"timezone"`
	ISP                   string `json:"isp"`
}

func NewGeoRecord(ip string) *GeoRecord {
	return &GeoRecord{IP: ip}
}

// Merge fills every empty field of r with the value from inc. Fields already
// set in r are never overwritten, so the first merged source wins.
func (r *GeoRecord) Merge(inc *GeoRecord) *GeoRecord {
	if inc == nil {
		return r
	}

	fill(&r.IP, inc.IP)
	fill(&r.Addr, inc.Addr)
	fill(&r.ASNumber, inc.ASNumber)
	fill(&r.ASName, inc.ASName)
	fill(&r.ASInfo, inc.ASInfo)
	fill(&r.CountryCode, inc.CountryCode)
	fill(&r.CountryName, inc.CountryName)
	fill(&r.RegisteredCountryCode, inc.RegisteredCountryCode)
	fill(&r.RegisteredCountryName, inc.RegisteredCountryName)
	fill(&r.Latitude, inc.Latitude)
	fill(&r.Longitude, inc.Longitude)
	fill(&r.Province, inc.Province)
	fill(&r.City, inc.City)
	fill(&r.Regions, inc.Regions)
	fill(&r.Type, inc.Type)
	fill(&r.Timezone, inc.Timezone)
	fill(&r.ISP, inc.ISP)

	return r
}

// FillRegions sets Regions from Province and City when no source produced it.
func (r *GeoRecord) FillRegions() {
	if r.Regions != "" {
		return
	}

	parts := make([]string, 0, 2)
	for _, p := range []string{r.Province, r.City} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	r.Regions = strings.Join(parts, ",")
}

// IsEmptyValue reports whether a field value carries no information. A
// numeric zero sent by a source is treated the same as an absent value.
func IsEmptyValue(v string) bool {
	return v == "" || v == "0"
}

func fill(dst *string, v string) {
	if IsEmptyValue(*dst) && !IsEmptyValue(v) {
		*dst = v
	}
}
