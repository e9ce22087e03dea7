// Package geo forward-geocodes free-text addresses for the map view.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/config"
	"memories-backend/internal/models"
)

// Place is one geocoding result
type Place struct {
	Address     string          `json:"address"`
	RoadAddress string          `json:"road_address,omitempty"`
	Location    models.Location `json:"location"`
}

// KakaoGeocoder searches addresses with the Kakao Local API
type KakaoGeocoder struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewKakaoGeocoder creates a geocoder from configuration
func NewKakaoGeocoder(cfg config.GeocodingConfig) *KakaoGeocoder {
	return &KakaoGeocoder{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type kakaoResponse struct {
	Documents []struct {
		AddressName string `json:"address_name"`
		X           string `json:"x"`
		Y           string `json:"y"`
		RoadAddress *struct {
			AddressName string `json:"address_name"`
		} `json:"road_address"`
	} `json:"documents"`
}

// Geocode returns the places matching query
func (g *KakaoGeocoder) Geocode(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Required("query")
	}

	endpoint := g.baseURL + "/v2/local/search/address.json?query=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoding request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, apperr.External("geocoding", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.External("geocoding", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body kakaoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperr.External("geocoding", fmt.Errorf("failed to decode response: %w", err))
	}

	places := make([]Place, 0, len(body.Documents))
	for _, doc := range body.Documents {
		lng, errX := strconv.ParseFloat(doc.X, 64)
		lat, errY := strconv.ParseFloat(doc.Y, 64)
		if errX != nil || errY != nil {
			continue
		}
		place := Place{
			Address:  doc.AddressName,
			Location: models.Location{Lat: lat, Lng: lng},
		}
		if doc.RoadAddress != nil {
			place.RoadAddress = doc.RoadAddress.AddressName
		}
		places = append(places, place)
	}
	return places, nil
}
