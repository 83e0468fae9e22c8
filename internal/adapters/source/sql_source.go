package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/HenilJainIO/trapsight/internal/domain"
	"github.com/HenilJainIO/trapsight/internal/ports"
)

// SQLConfig points the adapter at the collaborator's readings database.
// ReadingsTable is expected to hold one row per observation with nullable
// num_value/text_value columns; the adapter only ever reads the latest row
// per sensor, it keeps no history of its own.
type SQLConfig struct {
	ConnString    string `yaml:"conn_string"`
	DeviceTable   string `yaml:"device_table"`
	ReadingsTable string `yaml:"readings_table"`
}

func (c *SQLConfig) ApplyDefaults() {
	if c.DeviceTable == "" {
		c.DeviceTable = "devices"
	}
	if c.ReadingsTable == "" {
		c.ReadingsTable = "readings"
	}
}

func (c *SQLConfig) Validate() error {
	if c.ConnString == "" {
		return errors.New("conn_string is required")
	}
	return nil
}

// SQLSource reads devices, metadata, and latest readings from Postgres.
type SQLSource struct {
	db  *sql.DB
	cfg SQLConfig
}

func NewSQLSource(db *sql.DB, cfg SQLConfig) *SQLSource {
	cfg.ApplyDefaults()
	return &SQLSource{db: db, cfg: cfg}
}

// OpenSQLSource validates the config and opens the connection pool.
func OpenSQLSource(cfg SQLConfig) (*SQLSource, *sql.DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("sql source config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.ConnString)
	if err != nil {
		return nil, nil, err
	}
	return NewSQLSource(db, cfg), db, nil
}

func (s *SQLSource) ListDevices(ctx context.Context) ([]domain.Device, error) {
	query := fmt.Sprintf("SELECT device_id, type_id FROM %s ORDER BY device_id", s.cfg.DeviceTable)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.ID, &d.TypeID); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (s *SQLSource) Metadata(ctx context.Context, deviceID string) (*domain.DeviceMetadata, error) {
	query := fmt.Sprintf(
		"SELECT name, type_name, lat, lon, enrolled_at FROM %s WHERE device_id = $1",
		s.cfg.DeviceTable)

	meta := domain.DeviceMetadata{DeviceID: deviceID}
	var lat, lon sql.NullFloat64
	err := s.db.QueryRowContext(ctx, query, deviceID).
		Scan(&meta.Name, &meta.TypeName, &lat, &lon, &meta.EnrolledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", deviceID, err)
	}
	if lat.Valid && lon.Valid {
		meta.Location = &domain.GeoPoint{Lat: lat.Float64, Lon: lon.Float64}
	}
	return &meta, nil
}

// LatestReadings picks the most recent observation per sensor label.
// Calibration and aliasing are applied upstream in the view.
func (s *SQLSource) LatestReadings(ctx context.Context, deviceID string) ([]domain.SensorReading, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT ON (label) label, num_value, text_value, observed_at FROM %s WHERE device_id = $1 AND observed_at <= now() ORDER BY label, observed_at DESC",
		s.cfg.ReadingsTable)

	rows, err := s.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("latest readings %s: %w", deviceID, err)
	}
	defer rows.Close()

	var readings []domain.SensorReading
	for rows.Next() {
		var (
			r    domain.SensorReading
			num  sql.NullFloat64
			text sql.NullString
		)
		if err := rows.Scan(&r.Label, &num, &text, &r.ObservedAt); err != nil {
			return nil, err
		}
		switch {
		case num.Valid:
			r.Value = domain.NumberValue(num.Float64)
		case text.Valid:
			r.Value = domain.TextValue(text.String)
		default:
			r.Value = domain.NoValue()
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

var _ ports.TelemetrySource = (*SQLSource)(nil)
