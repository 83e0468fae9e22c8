package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/HenilJainIO/trapsight/internal/domain"
	"github.com/HenilJainIO/trapsight/internal/ports"
)

// MQTTConfig configures the broker subscription. Devices announce themselves
// on <prefix>/<id>/announce and publish retained reading sets on
// <prefix>/<id>/readings, so a fresh subscriber sees the current fleet state
// immediately.
type MQTTConfig struct {
	BrokerURL      string        `yaml:"broker_url"`
	ClientID       string        `yaml:"client_id"`
	TopicPrefix    string        `yaml:"topic_prefix"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

func (c *MQTTConfig) ApplyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "trapsight-engine"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "trapsight/devices"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	c.TopicPrefix = strings.TrimRight(c.TopicPrefix, "/")
}

func (c *MQTTConfig) Validate() error {
	if c.BrokerURL == "" {
		return errors.New("broker_url is required")
	}
	return nil
}

type announcePayload struct {
	ID         string                    `json:"id"`
	TypeID     string                    `json:"type_id"`
	Name       string                    `json:"name"`
	TypeName   string                    `json:"type_name"`
	Sensors    []domain.SensorDescriptor `json:"sensors,omitempty"`
	Location   *domain.GeoPoint          `json:"location,omitempty"`
	EnrolledAt time.Time                 `json:"enrolled_at"`
}

// MQTTSource implements TelemetrySource over a broker subscription. It keeps
// only the latest retained reading set per device; fetches read the cache and
// never block on the network.
type MQTTSource struct {
	cfg    MQTTConfig
	client mqtt.Client

	mu       sync.RWMutex
	devices  map[string]domain.Device
	meta     map[string]*domain.DeviceMetadata
	readings map[string][]domain.SensorReading
}

func NewMQTTSource(cfg MQTTConfig) (*MQTTSource, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("mqtt source config: %w", err)
	}

	s := &MQTTSource{
		cfg:      cfg,
		devices:  make(map[string]domain.Device),
		meta:     make(map[string]*domain.DeviceMetadata),
		readings: make(map[string][]domain.SensorReading),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true)

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	if err := s.subscribe(cfg.TopicPrefix+"/+/announce", s.onAnnounce); err != nil {
		s.client.Disconnect(0)
		return nil, err
	}
	if err := s.subscribe(cfg.TopicPrefix+"/+/readings", s.onReadings); err != nil {
		s.client.Disconnect(0)
		return nil, err
	}
	return s, nil
}

func (s *MQTTSource) subscribe(topic string, handler mqtt.MessageHandler) error {
	token := s.client.Subscribe(topic, 1, handler)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, err)
	}
	return nil
}

func (s *MQTTSource) onAnnounce(_ mqtt.Client, msg mqtt.Message) {
	id := deviceIDFromTopic(msg.Topic())
	if id == "" {
		return
	}
	var p announcePayload
	if err := json.Unmarshal(msg.Payload(), &p); err != nil {
		return
	}
	if p.ID == "" {
		p.ID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[p.ID] = domain.Device{ID: p.ID, TypeID: p.TypeID}
	s.meta[p.ID] = &domain.DeviceMetadata{
		DeviceID:   p.ID,
		Name:       p.Name,
		TypeName:   p.TypeName,
		Sensors:    p.Sensors,
		Location:   p.Location,
		EnrolledAt: p.EnrolledAt,
	}
}

func (s *MQTTSource) onReadings(_ mqtt.Client, msg mqtt.Message) {
	id := deviceIDFromTopic(msg.Topic())
	if id == "" {
		return
	}
	var readings []domain.SensorReading
	if err := json.Unmarshal(msg.Payload(), &readings); err != nil {
		return
	}

	s.mu.Lock()
	s.readings[id] = readings
	s.mu.Unlock()
}

func deviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

func (s *MQTTSource) ListDevices(context.Context) ([]domain.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MQTTSource) Metadata(_ context.Context, deviceID string) (*domain.DeviceMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta[deviceID], nil
}

// LatestReadings serves the cached retained set. A device that announced but
// has not published readings yet gets an empty list, which downstream counts
// as offline rather than failed.
func (s *MQTTSource) LatestReadings(_ context.Context, deviceID string) ([]domain.SensorReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cached := s.readings[deviceID]
	out := make([]domain.SensorReading, len(cached))
	copy(out, cached)
	return out, nil
}

// Close disconnects from the broker.
func (s *MQTTSource) Close() {
	s.client.Disconnect(250)
}

var _ ports.TelemetrySource = (*MQTTSource)(nil)
