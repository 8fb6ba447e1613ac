package geodb

// ASNRecord is the ownership data of the autonomous system announcing an
// address.
type ASNRecord struct {
	AutonomousSystemNumber       uint
	AutonomousSystemOrganization string
}

type Place struct {
	GeoNameID uint
	Names     map[string]string
}

type Country struct {
	GeoNameID uint
	IsoCode   string
	Names     map[string]string
}

type Location struct {
	Latitude  float64
	Longitude float64
	TimeZone  string
}

// CityRecord is the city level data of an address. Sub-records missing from
// the database are nil.
type CityRecord struct {
	Location          *Location
	Country           *Country
	RegisteredCountry *Country
	Subdivisions      []Place
	City              *Place
}

// CountryRecord is a jurisdiction specific record which refines the
// administrative subdivisions and the carrier of an address.
type CountryRecord struct {
	Province string `maxminddb:"province"`
	City     string `maxminddb:"city"`
	District string `maxminddb:"districts"`
	ISP      string `maxminddb:"isp"`
	Net      string `maxminddb:"net"`
}

func (r *CountryRecord) empty() bool {
	return *r == CountryRecord{}
}

func (c *CityRecord) trim() {
	if c.Location != nil && c.Location.Latitude == 0 && c.Location.Longitude == 0 && c.Location.TimeZone == "" {
		c.Location = nil
	}

	if c.Country != nil && c.Country.IsoCode == "" && len(c.Country.Names) == 0 {
		c.Country = nil
	}

	if c.RegisteredCountry != nil && c.RegisteredCountry.IsoCode == "" && len(c.RegisteredCountry.Names) == 0 {
		c.RegisteredCountry = nil
	}

	if c.City != nil && c.City.GeoNameID == 0 && len(c.City.Names) == 0 {
		c.City = nil
	}
}

func (c *CityRecord) empty() bool {
	return c.Location == nil && c.Country == nil && c.RegisteredCountry == nil &&
		c.City == nil && len(c.Subdivisions) == 0
}
