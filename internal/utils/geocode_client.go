package utils

import (
	"context"
	"sync"
	"time"

	"googlemaps.github.io/maps"
)

/*──────────── reusable, thread-safe Geocoding client ────────────*/

var (
	geocodeClientOnce sync.Once
	geocodeClient     *maps.Client
	geocodeClientErr  error
)

func getGeocodeClient(apiKey string) (*maps.Client, error) {
	geocodeClientOnce.Do(func() {
		Logger.Info("[Geocode] Initializing Google Maps Geocoding client...")
		geocodeClient, geocodeClientErr = maps.NewClient(maps.WithAPIKey(apiKey))
		if geocodeClientErr != nil {
			Logger.WithError(geocodeClientErr).Error("[Geocode] Failed to initialize Google Maps client")
		}
	})
	return geocodeClient, geocodeClientErr
}

// GeocodedAddress is the enriched triple returned by the address lookup.
type GeocodedAddress struct {
	FormattedAddress string
	Lat              float64
	Lng              float64
}

/*────────────────────────────────────────────────────────────────────────────
  GeocodeAddress resolves a free-text address into a formatted address plus
  coordinates. If the API key is empty, or the request fails, or nothing
  matches, it returns nil and the caller keeps the raw text alone: lat/lng
  are optional on the building entity.
────────────────────────────────────────────────────────────────────────────*/

func GeocodeAddress(ctx context.Context, address, apiKey string) *GeocodedAddress {
	if apiKey == "" || address == "" {
		return nil
	}

	cli, err := getGeocodeClient(apiKey)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	results, err := cli.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		Logger.WithError(err).WithField("address", address).
			Warn("[Geocode] Geocoding request failed. Keeping raw address.")
		return nil
	}
	if len(results) == 0 {
		Logger.WithField("address", address).Debug("[Geocode] No geocoding result")
		return nil
	}

	best := results[0]
	return &GeocodedAddress{
		FormattedAddress: best.FormattedAddress,
		Lat:              best.Geometry.Location.Lat,
		Lng:              best.Geometry.Location.Lng,
	}
}
