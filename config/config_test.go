package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, "cfg.json", `{
		"base_url": "http://agent:5000",
		"device_name": "VMC-123",
		"max_sample_count": 500
	}`)

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "http://agent:5000", f.BaseURL)
	require.Equal(t, "VMC-123", f.DeviceName)
	require.Equal(t, 500, f.MaxSampleCount)
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "base_url: http://agent:5000\ndevice_name: VMC-123\nlog_level: debug\n")

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "http://agent:5000", f.BaseURL)
	require.Equal(t, "debug", f.LogLevel)
}

func TestLoadFileMissingRequiredFieldFails(t *testing.T) {
	path := writeFile(t, "cfg.json", `{"device_name": "VMC-123"}`)

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestLoadFileInvalidLogLevelFails(t *testing.T) {
	path := writeFile(t, "cfg.json", `{
		"base_url": "http://agent:5000",
		"device_name": "VMC-123",
		"log_level": "verbose"
	}`)

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MTCONNECT_DEVICE_NAME", "VMC-999")
	t.Setenv("MTCONNECT_LOG_LEVEL", "debug")

	f := &File{BaseURL: "http://agent:5000", DeviceName: "VMC-123", LogLevel: "info"}
	ApplyEnvOverrides(f)

	require.Equal(t, "VMC-999", f.DeviceName)
	require.Equal(t, "debug", f.LogLevel)
}

func TestToSessionConfigurationAppliesDefaults(t *testing.T) {
	f := &File{BaseURL: "http://agent:5000", DeviceName: "VMC-123"}
	cfg := f.ToSessionConfiguration()

	require.Equal(t, "http://agent:5000", cfg.BaseURL)
	require.EqualValues(t, 200, cfg.MaxSampleCount)
	require.Equal(t, 500, cfg.IntervalMs)
}

func TestSafeConfigGetUpdate(t *testing.T) {
	sc := NewSafeConfig(&File{DeviceName: "VMC-1"})
	require.Equal(t, "VMC-1", sc.Get().DeviceName)

	sc.Update(&File{DeviceName: "VMC-2"})
	require.Equal(t, "VMC-2", sc.Get().DeviceName)
}
