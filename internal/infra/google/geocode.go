package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	domainlistings "tinyhouse/internal/domain/listings"
)

const defaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

var (
	ErrGeocodeKeyMissing = errors.New("google: geocoding key is not configured")
	ErrNoGeocodeResult   = errors.New("google: address did not resolve")
)

type Geocoder struct {
	Key        string
	URL        string
	HTTPClient *http.Client
}

func NewGeocoder(key string) *Geocoder {
	return &Geocoder{Key: key, URL: defaultGeocodeURL, HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// Geocode resolves free text into country, first-level admin area and city.
// Components the provider does not return stay empty.
func (g *Geocoder) Geocode(ctx context.Context, address string) (domainlistings.Location, error) {
	if g.Key == "" {
		return domainlistings.Location{}, ErrGeocodeKeyMissing
	}
	endpoint := g.URL
	if endpoint == "" {
		endpoint = defaultGeocodeURL
	}
	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	q := url.Values{"address": {address}, "key": {g.Key}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return domainlistings.Location{}, err
	}

	var resp geocodeResponse
	if err := doJSON(client, req, &resp); err != nil {
		return domainlistings.Location{}, fmt.Errorf("geocode: %w", err)
	}
	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return domainlistings.Location{}, ErrNoGeocodeResult
	default:
		return domainlistings.Location{}, fmt.Errorf("geocode: %s %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return domainlistings.Location{}, ErrNoGeocodeResult
	}

	var loc domainlistings.Location
	for _, comp := range resp.Results[0].AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "country":
				loc.Country = comp.LongName
			case "administrative_area_level_1":
				loc.Admin = comp.LongName
			case "locality", "postal_town":
				if loc.City == "" {
					loc.City = comp.LongName
				}
			}
		}
	}
	return loc, nil
}
