package blockstore

import "github.com/BurntSushi/toml"

// StoreConfig tunes an on-disk LevelDBStore. It is the one place an
// embeddable library like this reaches for a config file: everything else
// is wired through explicit constructor arguments.
type StoreConfig struct {
	// WriteBufferMiB sizes LevelDB's in-memory write buffer.
	WriteBufferMiB int `toml:"write_buffer_mib"`
	// BloomFilterBits sets bits-per-key for the read-path bloom filter.
	BloomFilterBits int `toml:"bloom_filter_bits"`
	// Compress enables snappy compression of block bytes at rest.
	Compress bool `toml:"compress"`
}

// DefaultStoreConfig is a reasonable baseline tuning for a single-process
// embedded store.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		WriteBufferMiB:  16,
		BloomFilterBits: 10,
		Compress:        true,
	}
}

// LoadStoreConfig reads a StoreConfig from a TOML file, falling back to
// DefaultStoreConfig for any field the file doesn't set.
func LoadStoreConfig(path string) (StoreConfig, error) {
	cfg := DefaultStoreConfig()
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}
