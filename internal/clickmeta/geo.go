package clickmeta

import (
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/user/shortlink/internal/models"
)

// Locator resolves a client IP to a location. A nil result means
// no match; lookups never fail the caller.
type Locator interface {
	Locate(ip string) *models.Location
	Close() error
}

// GeoIPLocator resolves locations from a MaxMind GeoLite2/GeoIP2
// city database file.
type GeoIPLocator struct {
	reader *geoip2.Reader
}

// NewGeoIPLocator opens the database at path.
func NewGeoIPLocator(path string) (*GeoIPLocator, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIPLocator{reader: reader}, nil
}

// Locate returns the country/city for ip, or nil when the address
// is unparsable or the database has no record for it.
func (l *GeoIPLocator) Locate(ip string) *models.Location {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil
	}

	record, err := l.reader.City(parsed)
	if err != nil {
		return nil
	}

	loc := &models.Location{
		Country: record.Country.IsoCode,
		City:    record.City.Names["en"],
	}
	if loc.Country == "" && loc.City == "" {
		return nil
	}
	return loc
}

// Close releases the underlying database reader.
func (l *GeoIPLocator) Close() error {
	return l.reader.Close()
}

// NopLocator is used when no geolocation database is configured;
// every click records without a location.
type NopLocator struct{}

func (NopLocator) Locate(string) *models.Location { return nil }
func (NopLocator) Close() error                   { return nil }
