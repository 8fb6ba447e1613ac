package geodb

import (
	"fmt"
	"net"
	"os"

	"github.com/jinzhu/copier"
	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
	"github.com/rs/zerolog/log"

	"github.com/cloud66-oss/ipgeo/utils"
)

// Reader holds the three mmdb databases used for local resolution: ASN
// ownership, city level geolocation and the jurisdiction specific country
// database. It is read-only after Open and safe for concurrent use.
type Reader struct {
	asnDb     *maxminddb.Reader
	cityDb    *maxminddb.Reader
	countryDb *maxminddb.Reader
}

func readDb(file string) (*maxminddb.Reader, error) {
	if file == "" {
		return nil, fmt.Errorf("no database path given")
	}

	if !fileExists(file) {
		return nil, fmt.Errorf("file not found %s", file)
	}

	db, err := maxminddb.Open(file)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file, err)
	}

	log.Debug().Str("file", file).Str("type", db.Metadata.DatabaseType).Msg("database opened")

	return db, nil
}

// Open opens all three databases. It fails if any of them can not be opened.
func Open(asnPath, cityPath, countryPath string) (*Reader, error) {
	r := &Reader{}

	var err error
	if r.asnDb, err = readDb(asnPath); err != nil {
		return nil, fmt.Errorf("asn database: %w", err)
	}

	if r.cityDb, err = readDb(cityPath); err != nil {
		r.Close()
		return nil, fmt.Errorf("city database: %w", err)
	}

	if r.countryDb, err = readDb(countryPath); err != nil {
		r.Close()
		return nil, fmt.Errorf("country database: %w", err)
	}

	return r, nil
}

// LookupASN returns the ASN record of ip and the prefix length of the
// matched network. A miss returns a nil record and no error.
func (r *Reader) LookupASN(ip net.IP) (*ASNRecord, int, error) {
	var raw geoip2.ASN
	prefixLen, ok, err := lookup(r.asnDb, ip, &raw)
	if err != nil || !ok {
		return nil, prefixLen, err
	}

	return &ASNRecord{
		AutonomousSystemNumber:       raw.AutonomousSystemNumber,
		AutonomousSystemOrganization: raw.AutonomousSystemOrganization,
	}, prefixLen, nil
}

// LookupCity returns the city record of ip and the prefix length of the
// matched network. The prefix length is valid on a miss as well.
func (r *Reader) LookupCity(ip net.IP) (*CityRecord, int, error) {
	var raw geoip2.City
	prefixLen, ok, err := lookup(r.cityDb, ip, &raw)
	if err != nil || !ok {
		return nil, prefixLen, err
	}

	rec := &CityRecord{}
	if err := copier.Copy(rec, &raw); err != nil {
		return nil, prefixLen, fmt.Errorf("copying city record: %w", err)
	}

	rec.trim()
	if rec.empty() {
		return nil, prefixLen, nil
	}

	return rec, prefixLen, nil
}

// LookupCountry returns the jurisdiction specific record of ip.
func (r *Reader) LookupCountry(ip net.IP) (*CountryRecord, int, error) {
	rec := &CountryRecord{}
	prefixLen, ok, err := lookup(r.countryDb, ip, rec)
	if err != nil || !ok || rec.empty() {
		return nil, prefixLen, err
	}

	return rec, prefixLen, nil
}

func (r *Reader) Close() {
	for _, db := range []*maxminddb.Reader{r.asnDb, r.cityDb, r.countryDb} {
		if db != nil {
			db.Close()
		}
	}
}

func lookup(db *maxminddb.Reader, ip net.IP, result any) (int, bool, error) {
	if ip == nil {
		return 0, false, &utils.IpAddressError{}
	}

	network, ok, err := db.LookupNetwork(ip, result)
	if err != nil {
		return 0, false, err
	}

	prefixLen := 0
	if network != nil {
		prefixLen, _ = network.Mask.Size()
	}

	return prefixLen, ok, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
