package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	mterrors "github.com/c360/mtconnect-client/errors"
	"github.com/c360/mtconnect-client/session"
)

// File is the on-disk shape of the client's configuration, in either JSON
// or YAML. Field names match the Configuration/ambient fields described in
// SPEC_FULL.md §3.
type File struct {
	BaseURL    string `json:"base_url"    yaml:"base_url"`
	DeviceName string `json:"device_name" yaml:"device_name"`

	IntervalMs       int `json:"interval_ms,omitempty"        yaml:"interval_ms,omitempty"`
	TimeoutMs        int `json:"timeout_ms,omitempty"         yaml:"timeout_ms,omitempty"`
	RetryIntervalMs  int `json:"retry_interval_ms,omitempty"  yaml:"retry_interval_ms,omitempty"`
	MaxSampleCount   int `json:"max_sample_count,omitempty"   yaml:"max_sample_count,omitempty"`
	AssetConcurrency int `json:"asset_fetch_concurrency,omitempty" yaml:"asset_fetch_concurrency,omitempty"`

	InsecureSkipVerify bool     `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
	CAFiles            []string `json:"ca_files,omitempty"             yaml:"ca_files,omitempty"`
	ClientCertFile     string   `json:"client_cert_file,omitempty"     yaml:"client_cert_file,omitempty"`
	ClientKeyFile      string   `json:"client_key_file,omitempty"      yaml:"client_key_file,omitempty"`

	LogLevel  string `json:"log_level,omitempty"  yaml:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty"`

	MetricsAddr     string `json:"metrics_addr,omitempty"      yaml:"metrics_addr,omitempty"`
	NatsURL         string `json:"nats_url,omitempty"          yaml:"nats_url,omitempty"`
	WSBroadcastAddr string `json:"ws_broadcast_addr,omitempty" yaml:"ws_broadcast_addr,omitempty"`
}

// schemaDocument is validated against every loaded config before it is
// unmarshalled into a File, the same "validate the raw document, then
// decode" sequence this codebase's config.Loader follows for its own
// component-configs map.
const schemaDocument = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["base_url", "device_name"],
  "properties": {
    "base_url": {"type": "string", "minLength": 1},
    "device_name": {"type": "string", "minLength": 1},
    "interval_ms": {"type": "integer", "minimum": 0},
    "timeout_ms": {"type": "integer", "minimum": 0},
    "retry_interval_ms": {"type": "integer", "minimum": 0},
    "max_sample_count": {"type": "integer", "minimum": 1},
    "asset_fetch_concurrency": {"type": "integer", "minimum": 0},
    "insecure_skip_verify": {"type": "boolean"},
    "ca_files": {"type": "array", "items": {"type": "string"}},
    "client_cert_file": {"type": "string"},
    "client_key_file": {"type": "string"},
    "log_level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
    "log_format": {"type": "string", "enum": ["json", "text"]},
    "metrics_addr": {"type": "string"},
    "nats_url": {"type": "string"},
    "ws_broadcast_addr": {"type": "string"}
  }
}`

// LoadFile reads a JSON or YAML config document (by extension) from path,
// validates it against schemaDocument, and decodes it into a File.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mterrors.WrapInvalid(err, "config", "LoadFile", "read config file")
	}

	raw, err := toJSON(path, data)
	if err != nil {
		return nil, mterrors.WrapInvalid(err, "config", "LoadFile", "normalize config to JSON")
	}

	if err := validateSchema(raw); err != nil {
		return nil, mterrors.WrapInvalid(err, "config", "LoadFile", "validate config against schema")
	}

	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, mterrors.WrapInvalid(err, "config", "LoadFile", "decode config")
	}
	return &f, nil
}

func toJSON(path string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return json.Marshal(doc)
	default:
		return data, nil
	}
}

func validateSchema(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaDocument)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return err
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

// ApplyEnvOverrides applies MTCONNECT_* environment variables on top of a
// loaded File, the same override layering this codebase's config.Loader
// does for its own NATS/security sections.
func ApplyEnvOverrides(f *File) {
	if v := os.Getenv("MTCONNECT_BASE_URL"); v != "" {
		f.BaseURL = v
	}
	if v := os.Getenv("MTCONNECT_DEVICE_NAME"); v != "" {
		f.DeviceName = v
	}
	if v := os.Getenv("MTCONNECT_LOG_LEVEL"); v != "" {
		f.LogLevel = v
	}
	if v := os.Getenv("MTCONNECT_LOG_FORMAT"); v != "" {
		f.LogFormat = v
	}
	if v := os.Getenv("MTCONNECT_METRICS_ADDR"); v != "" {
		f.MetricsAddr = v
	}
	if v := os.Getenv("MTCONNECT_NATS_URL"); v != "" {
		f.NatsURL = v
	}
	if v := os.Getenv("MTCONNECT_WS_BROADCAST_ADDR"); v != "" {
		f.WSBroadcastAddr = v
	}
	if v := os.Getenv("MTCONNECT_INSECURE_SKIP_VERIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.InsecureSkipVerify = b
		}
	}
}

// ToSessionConfiguration converts a validated File into a
// session.Configuration, applying session.Configuration's own defaults for
// any zero-valued numeric field.
func (f *File) ToSessionConfiguration() session.Configuration {
	return session.Configuration{
		BaseURL:            f.BaseURL,
		DeviceName:         f.DeviceName,
		IntervalMs:         f.IntervalMs,
		TimeoutMs:          f.TimeoutMs,
		RetryIntervalMs:    f.RetryIntervalMs,
		MaxSampleCount:     uint64(f.MaxSampleCount),
		AssetConcurrency:   f.AssetConcurrency,
		InsecureSkipVerify: f.InsecureSkipVerify,
		CAFiles:            f.CAFiles,
		ClientCertFile:     f.ClientCertFile,
		ClientKeyFile:      f.ClientKeyFile,
	}.WithDefaults()
}

// SafeConfig is a thread-safe holder for a loaded File, mirroring this
// codebase's config.SafeConfig wrapper. The client only loads configuration
// once at startup and main's run reads it through Get; access is guarded by
// an RWMutex all the same.
type SafeConfig struct {
	mu  sync.RWMutex
	cfg *File
}

// NewSafeConfig wraps cfg (copying nothing; cfg must not be mutated by the
// caller afterward).
func NewSafeConfig(cfg *File) *SafeConfig {
	if cfg == nil {
		cfg = &File{}
	}
	return &SafeConfig{cfg: cfg}
}

// Get returns the current File. Callers must not mutate the returned value.
func (sc *SafeConfig) Get() *File {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.cfg
}

// Update replaces the held File.
func (sc *SafeConfig) Update(cfg *File) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cfg = cfg
}
