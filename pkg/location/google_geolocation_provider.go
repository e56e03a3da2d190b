package location

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"
)

// GoogleGeolocationProvider uses the Google Maps API to get location data.
type GoogleGeolocationProvider struct {
	client     *maps.Client // Maps API client for making geolocation requests
	apiKey     string
	modemIndex int
	logger     zerolog.Logger
}

// NewGoogleGeolocationProvider creates a new GoogleGeolocationProvider instance.
func NewGoogleGeolocationProvider(apiKey string, modemIndex int, logger zerolog.Logger) (*GoogleGeolocationProvider, error) {
	p := &GoogleGeolocationProvider{
		apiKey:     apiKey,
		modemIndex: modemIndex,
		logger:     logger,
	}
	if apiKey == "" {
		// Defer the failure to CheckPermission so tracking can report it
		return p, nil
	}

	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	p.client = c
	return p, nil
}

// CheckPermission fails when no API key was configured.
func (g *GoogleGeolocationProvider) CheckPermission() error {
	if g.client == nil {
		return fmt.Errorf("%w: no maps API key configured", ErrPermissionDenied)
	}
	return nil
}

// GetLocation retrieves the device's location using Google Maps Geolocation API.
// Missing WiFi or cell data is not fatal; the request falls back to IP.
func (g *GoogleGeolocationProvider) GetLocation(ctx context.Context) (Location, error) {
	if err := g.CheckPermission(); err != nil {
		return Location{}, err
	}

	wifiAPs, err := getWiFiAccessPoints(ctx)
	if err != nil {
		g.logger.Debug().Err(err).Msg("WiFi access points unavailable")
	}

	cellTowers, err := getCellTowers(ctx, g.modemIndex)
	if err != nil {
		g.logger.Debug().Err(err).Msg("Cell towers unavailable")
	}

	// Prepare the geolocation request with available data
	req := &maps.GeolocationRequest{
		ConsiderIP:       true,
		WiFiAccessPoints: wifiAPs,
		CellTowers:       cellTowers,
	}

	resp, err := g.client.Geolocate(ctx, req) // Send the geolocation request
	if err != nil {
		return Location{}, err
	}

	// Return the location data obtained from the response
	return Location{
		Latitude:  resp.Location.Lat,
		Longitude: resp.Location.Lng,
		Accuracy:  resp.Accuracy,
	}, nil
}

// Close is a no-op; the maps client holds no long-lived resources.
func (g *GoogleGeolocationProvider) Close() error {
	return nil
}
