// Package source provides TelemetrySource adapters for the supported
// collaborator transports: a JSON REST API, a Postgres/Timescale readings
// view, and an MQTT broker with retained per-device topics.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/HenilJainIO/trapsight/internal/domain"
	"github.com/HenilJainIO/trapsight/internal/ports"
)

// HTTPConfig points the adapter at the collaborator's REST API. The API is
// pre-authenticated; no credentials are carried here.
type HTTPConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

func (c *HTTPConfig) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

func (c *HTTPConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	return nil
}

// HTTPSource queries the collaborator's REST API.
type HTTPSource struct {
	cfg    HTTPConfig
	client *http.Client
}

func NewHTTPSource(cfg HTTPConfig) (*HTTPSource, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("http source config: %w", err)
	}
	return &HTTPSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (s *HTTPSource) ListDevices(ctx context.Context) ([]domain.Device, error) {
	var devices []domain.Device
	if err := s.getJSON(ctx, "/devices", &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func (s *HTTPSource) Metadata(ctx context.Context, deviceID string) (*domain.DeviceMetadata, error) {
	var meta domain.DeviceMetadata
	err := s.getJSON(ctx, "/devices/"+url.PathEscape(deviceID)+"/metadata", &meta)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// LatestReadings asks for one calibrated, aliased value per sensor, bounded
// to now.
func (s *HTTPSource) LatestReadings(ctx context.Context, deviceID string) ([]domain.SensorReading, error) {
	q := url.Values{}
	q.Set("count", "1")
	q.Set("calibrated", "true")
	q.Set("aliased", "true")
	q.Set("as_of", time.Now().UTC().Format(time.RFC3339))

	path := "/devices/" + url.PathEscape(deviceID) + "/readings/latest?" + q.Encode()
	var readings []domain.SensorReading
	if err := s.getJSON(ctx, path, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

var errNotFound = errors.New("not found")

func (s *HTTPSource) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telemetry request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telemetry request %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("telemetry decode %s: %w", path, err)
	}
	return nil
}

var _ ports.TelemetrySource = (*HTTPSource)(nil)
