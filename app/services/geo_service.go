// Package services provides external service integrations and technical concerns like geolocation and tokens
package services

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/qread/qread/config"
	"github.com/qread/qread/utils"
)

var geoLookupFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "geo_lookup_failures_total",
		Help: "Geolocation lookups that fell back to the unknown sentinel",
	},
	[]string{"reason"},
)

// GeoService resolves an IP address to a best-effort (city, country) pair.
// Lookup is a total function: every failure mode collapses into the
// unknown-location sentinel and is logged, never returned. The redirect hot
// path depends on this contract.
type GeoService interface {
	Lookup(ctx context.Context, ipAddress string) (city, country string)
}

type geoResult struct {
	city    string
	country string
	reason  string
}

// openReader is swapped out in tests to simulate reader failures
var openReader = geoip2.Open

// MaxMindGeoService reads a local MaxMind city database. The database is
// opened per lookup and released on every exit path; a missing or corrupt
// file degrades to the sentinel instead of failing the caller.
type MaxMindGeoService struct {
	databasePath  string
	lookupTimeout time.Duration
}

func NewGeoService(cfg config.GeoConfig) GeoService {
	return &MaxMindGeoService{
		databasePath:  cfg.DatabasePath,
		lookupTimeout: cfg.LookupTimeout,
	}
}

// Lookup resolves the address within the configured ceiling. A lookup that
// outlives its deadline is abandoned and treated as a failure so that a
// hung database cannot stall redirects.
func (s *MaxMindGeoService) Lookup(ctx context.Context, ipAddress string) (string, string) {
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	resultCh := make(chan geoResult, 1)
	go func() {
		resultCh <- s.lookup(ipAddress)
	}()

	select {
	case <-ctx.Done():
		geoLookupFailures.WithLabelValues("timeout").Inc()
		log.Printf("Geo lookup timed out for %s: %v", ipAddress, ctx.Err())
		return utils.UnknownLocation, utils.UnknownLocation
	case res := <-resultCh:
		if res.reason != "" {
			geoLookupFailures.WithLabelValues(res.reason).Inc()
			log.Printf("Geo lookup failed for %s (%s)", ipAddress, res.reason)
			return utils.UnknownLocation, utils.UnknownLocation
		}
		return res.city, res.country
	}
}

func (s *MaxMindGeoService) lookup(ipAddress string) (res geoResult) {
	defer func() {
		// A corrupt database must degrade, not propagate. The named
		// return keeps the sentinel contract on the panic path too.
		if r := recover(); r != nil {
			log.Printf("Geo lookup panic for %s: %v", ipAddress, r)
			res = geoResult{reason: "panic"}
		}
	}()

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return geoResult{reason: "bad_address"}
	}

	reader, err := openReader(s.databasePath)
	if err != nil {
		return geoResult{reason: "open_failed"}
	}
	defer reader.Close()

	record, err := reader.City(ip)
	if err != nil {
		return geoResult{reason: "read_failed"}
	}

	city := record.City.Names["en"]
	country := record.Country.Names["en"]
	if city == "" || country == "" {
		// Private, loopback and otherwise unmapped addresses land here
		return geoResult{reason: "address_not_found"}
	}

	return geoResult{city: city, country: country}
}

// MockGeoService returns canned locations for tests and local development
type MockGeoService struct {
	City    string
	Country string
	// Fail forces the unknown sentinel regardless of City/Country
	Fail bool
}

func NewMockGeoService(city, country string) *MockGeoService {
	return &MockGeoService{City: city, Country: country}
}

func (s *MockGeoService) Lookup(_ context.Context, _ string) (string, string) {
	if s.Fail || s.City == "" || s.Country == "" {
		return utils.UnknownLocation, utils.UnknownLocation
	}
	return s.City, s.Country
}
