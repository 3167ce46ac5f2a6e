package model

import "time"

// Config holds all depicta settings. Field tags serve both viper
// (mapstructure) and the YAML written by `depicta config init`.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Properties []PropertyConfig `yaml:"properties" mapstructure:"properties"`
}

// ServerConfig configures the sync gateway's annotation server.
type ServerConfig struct {
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	Domain     string        `yaml:"domain" mapstructure:"domain"`
	Username   string        `yaml:"username" mapstructure:"username"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// SearchConfig configures the external entity search service.
type SearchConfig struct {
	Endpoint          string        `yaml:"endpoint" mapstructure:"endpoint"`
	Language          string        `yaml:"language" mapstructure:"language"`
	Limit             int           `yaml:"limit" mapstructure:"limit"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig configures caching of search and label responses.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir,omitempty" mapstructure:"disk_dir"` // empty: memory only
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StoreConfig configures the local annotation server.
type StoreConfig struct {
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// LogConfig selects the logger mode (dev or prod).
type LogConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// PropertyConfig describes one depicted-style property offered by the form.
type PropertyConfig struct {
	ID        string `yaml:"id" mapstructure:"id"`
	Label     string `yaml:"label" mapstructure:"label"`           // dropdown label
	ListLabel string `yaml:"list_label" mapstructure:"list_label"` // "<ListLabel> with no region specified"
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:   "http://localhost:8080",
			Domain:    "www.wikidata.org",
			Timeout:   30 * time.Second,
			UserAgent: "depicta/0.1 (+https://github.com/ppiankov/depicta)",
		},
		Search: SearchConfig{
			Endpoint:          "https://www.wikidata.org/w/api.php",
			Language:          "en",
			Limit:             5,
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Store: StoreConfig{
			DSN:    "depicta.sqlite",
			Listen: ":8080",
		},
		Log: LogConfig{
			Mode: "dev",
		},
		Properties: []PropertyConfig{
			{ID: "P180", Label: "depicts", ListLabel: "Depicted"},
		},
	}
}

// Property looks up a configured property by id.
func (c *Config) Property(id string) (PropertyConfig, bool) {
	for _, p := range c.Properties {
		if p.ID == id {
			return p, true
		}
	}
	return PropertyConfig{}, false
}

// PropertyIDs returns the configured property ids in order.
func (c *Config) PropertyIDs() []string {
	ids := make([]string, 0, len(c.Properties))
	for _, p := range c.Properties {
		ids = append(ids, p.ID)
	}
	return ids
}
