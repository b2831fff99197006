package config

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"loopcal-go/bus"
	"loopcal-go/x/strx"
)

const (
	serviceName   = "config"
	configPrefix  = "config"
	DefaultDevice = "sim"
	CtxDeviceKey  = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Topic returns the retained topic carrying the section key.
func Topic(key string) bus.Topic { return bus.T(configPrefix, key) }

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	log  *zap.SugaredLogger
}

func NewConfigService(log *zap.SugaredLogger) *ConfigService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ConfigService{Name: serviceName, log: log.Named(serviceName)}
}

// Publish reads the device config from embedded data and publishes each
// top-level key as a retained message on config/<key>. The device comes from
// ctx; DefaultDevice is used when none is set.
func (s *ConfigService) Publish(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	device = strx.Coalesce(device, DefaultDevice)

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.New("embedded config is not a JSON object: " + err.Error())
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(Topic(k), v, true))
		s.log.Debugw("published config", "device", device, "key", k)
	}
	s.log.Infow("config published", "device", device, "sections", len(m))
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.Publish(ctx, conn); err != nil {
			s.log.Errorw("config publish failed", "error", err)
		}
	}()
}

// Decode converts a config payload (JSON-decoded maps, or an already typed
// struct) into out. JSON numbers arrive as float64, so decoding is weakly
// typed.
func Decode(payload any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(payload)
}
