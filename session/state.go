package session

import "time"

// Configuration is immutable once Start is called.
type Configuration struct {
	BaseURL    string
	DeviceName string

	IntervalMs        int
	TimeoutMs         int
	RetryIntervalMs   int
	MaxSampleCount    uint64
	AssetConcurrency  int // detached asset fetch fan-out width, default 4

	// TLS/mTLS to the Agent.
	InsecureSkipVerify bool
	CAFiles            []string
	ClientCertFile     string
	ClientKeyFile      string
}

// WithDefaults returns a copy of c with zero-valued fields replaced by the
// defaults named in spec §3.
func (c Configuration) WithDefaults() Configuration {
	if c.IntervalMs == 0 {
		c.IntervalMs = 500
	}
	if c.TimeoutMs == 0 {
		c.TimeoutMs = 5000
	}
	if c.RetryIntervalMs == 0 {
		c.RetryIntervalMs = 10000
	}
	if c.MaxSampleCount == 0 {
		c.MaxSampleCount = 200
	}
	if c.AssetConcurrency == 0 {
		c.AssetConcurrency = 4
	}
	return c
}

func (c Configuration) timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c Configuration) retryInterval() time.Duration {
	return time.Duration(c.RetryIntervalMs) * time.Millisecond
}

// runState is private to the Session Loop (spec §3's SessionState). The
// last_changed_asset_id field lives on AssetTracker instead, since that is
// the component that owns asset-change dedup (§4.D).
type runState struct {
	lastInstanceID int64 // -1 = unseen
	initialize     bool
}

func newRunState() *runState {
	return &runState{lastInstanceID: -1, initialize: true}
}
