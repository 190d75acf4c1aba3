// Package tuning holds operator-adjustable server parameters. Game rules
// live in catalogs; nothing here changes derivation semantics except the
// munition cap surfaced to the resolver.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	MaxAggregateUnits int `yaml:"max_aggregate_units"`
	MaxMunitions      int `yaml:"max_munitions"`

	WSReadTimeoutSec  int `yaml:"ws_read_timeout_sec"`
	WSWriteTimeoutSec int `yaml:"ws_write_timeout_sec"`

	AuditEnabled bool `yaml:"audit_enabled"`
}

func Defaults() Tuning {
	var t Tuning
	t.applyDefaults()
	return t
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.applyDefaults()
	return t, nil
}

func (t *Tuning) applyDefaults() {
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = "1.0"
	}
	if t.MaxAggregateUnits <= 0 {
		t.MaxAggregateUnits = 500
	}
	if t.MaxMunitions < 0 {
		t.MaxMunitions = 0 // 0 = uncapped
	}
	if t.WSReadTimeoutSec <= 0 {
		t.WSReadTimeoutSec = 60
	}
	if t.WSWriteTimeoutSec <= 0 {
		t.WSWriteTimeoutSec = 5
	}
}
