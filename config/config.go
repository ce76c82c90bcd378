// Package config loads GroveDB's ambient settings — backend kind and path,
// reference resolution limits, metrics toggle, and chunk replication depth —
// from a file/env/flags stack via github.com/spf13/viper, grounded on
// AKJUS-bsc-erigon and ethereum-go-ethereum's own viper-backed
// configuration layers (both depend on spf13/viper and spf13/pflag).
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is GroveDB's full set of ambient settings.
type Config struct {
	// BackendPath is the directory the selected storage backend opens.
	BackendPath string
	// MaxReferenceHops bounds Reference chain resolution (spec.md §6/§8
	// scenario 6). Overrides grove.DefaultMaxReferenceHops.
	MaxReferenceHops int
	// ChunkTrunkHeight overrides merk's default chunk-replication trunk
	// depth (merk.SetTrunkHeight).
	ChunkTrunkHeight int
	// ColumnFamilyNames holds human-readable column family labels. Load
	// does not populate it and no package reads it; log output uses
	// storage.ColumnFamily.String (default/aux/roots/meta).
	ColumnFamilyNames map[string]string
	// MetricsEnabled toggles whether cmd/grovedb-cli wires a
	// grove.Metrics recorder into the opened Database.
	MetricsEnabled bool
	// Backend selects which storage.Backend implementation BackendPath is
	// opened with: "pebble" (default), "leveldb", or "memory" (in which
	// case BackendPath is ignored).
	Backend string
}

const (
	keyBackendPath      = "backend_path"
	keyMaxReferenceHops = "max_reference_hops"
	keyChunkTrunkHeight = "chunk_trunk_height"
	keyMetricsEnabled   = "metrics_enabled"
	keyBackend          = "backend"
)

// Backend kinds accepted by the Backend config key.
const (
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

// defaults mirrors grove.DefaultMaxReferenceHops and merk's chunk trunk
// default without importing either package, keeping config a leaf
// dependency the way the teacher's own config-ish pieces avoid import
// cycles back into their core packages.
var defaults = map[string]any{
	keyBackendPath:      "./grovedb-data",
	keyMaxReferenceHops: 10,
	keyChunkTrunkHeight: 4,
	keyMetricsEnabled:   false,
	keyBackend:          BackendPebble,
}

// BindFlags registers the flags cmd/grovedb-cli exposes, in viper's
// flag-binding idiom (v.BindPFlag), so CLI flags take precedence over a
// config file, which in turn takes precedence over the defaults above.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	flags.String("backend-path", defaults[keyBackendPath].(string), "directory the backend opens (ignored for --backend memory)")
	flags.Int("max-reference-hops", defaults[keyMaxReferenceHops].(int), "maximum Reference chain length before ReferenceLimit")
	flags.Int("chunk-trunk-height", defaults[keyChunkTrunkHeight].(int), "depth cutoff between a chunk producer's trunk and leaf chunks")
	flags.Bool("metrics-enabled", defaults[keyMetricsEnabled].(bool), "wire a Prometheus metrics recorder into the opened database")
	flags.String("backend", defaults[keyBackend].(string), "storage backend: pebble, leveldb, or memory")

	for flagName, key := range map[string]string{
		"backend-path":       keyBackendPath,
		"max-reference-hops": keyMaxReferenceHops,
		"chunk-trunk-height": keyChunkTrunkHeight,
		"metrics-enabled":    keyMetricsEnabled,
		"backend":            keyBackend,
	} {
		if err := v.BindPFlag(key, flags.Lookup(flagName)); err != nil {
			return fmt.Errorf("config: bind flag %q: %w", flagName, err)
		}
	}
	return nil
}

// Load builds a Viper instance layering defaults, an optional config file
// at path (skipped if path is empty or the file does not exist),
// GROVEDB_-prefixed environment variables, and any flags already bound via
// BindFlags, then decodes the result into a Config.
func Load(path string, v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("GROVEDB")
	v.AutomaticEnv()

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("config: stat %s: %w", path, statErr)
		}
	}

	cfg := &Config{
		BackendPath:      v.GetString(keyBackendPath),
		MaxReferenceHops: v.GetInt(keyMaxReferenceHops),
		ChunkTrunkHeight: v.GetInt(keyChunkTrunkHeight),
		MetricsEnabled:   v.GetBool(keyMetricsEnabled),
		Backend:          v.GetString(keyBackend),
	}
	if cfg.MaxReferenceHops <= 0 {
		return nil, fmt.Errorf("config: max_reference_hops must be positive, got %d", cfg.MaxReferenceHops)
	}
	if cfg.ChunkTrunkHeight <= 0 {
		return nil, fmt.Errorf("config: chunk_trunk_height must be positive, got %d", cfg.ChunkTrunkHeight)
	}
	switch cfg.Backend {
	case BackendPebble, BackendLevelDB, BackendMemory:
	default:
		return nil, fmt.Errorf("config: backend must be one of pebble, leveldb, memory, got %q", cfg.Backend)
	}
	return cfg, nil
}
