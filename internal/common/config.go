package common

import "time"

type StorageConfig struct {
	Path     string `json:"path" mapstructure:"path"`
	InMemory bool   `json:"in_memory" mapstructure:"in_memory"`
}

type CacheConfig struct {
	Namespace        string        `json:"namespace" mapstructure:"namespace"`
	LegacyNamespaces []string      `json:"legacy_namespaces" mapstructure:"legacy_namespaces"`
	MaxSize          int           `json:"max_size" mapstructure:"max_size"`
	TTL              time.Duration `json:"ttl" mapstructure:"ttl"`
}

type GeocoderConfig struct {
	URL       string        `json:"url" mapstructure:"url"`
	UserAgent string        `json:"user_agent" mapstructure:"user_agent"`
	Language  string        `json:"language" mapstructure:"language"`
	Country   string        `json:"country" mapstructure:"country"`
	Interval  time.Duration `json:"interval" mapstructure:"interval"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
}

type IndexConfig struct {
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
}

type ServerConfig struct {
	Listen string `json:"listen" mapstructure:"listen"`
}

// EntitiesConfig holds the raw dataset, decoded by the entity package.
type EntitiesConfig struct {
	Users      []map[string]any `json:"users" mapstructure:"users"`
	Businesses []map[string]any `json:"businesses" mapstructure:"businesses"`
}

type Config struct {
	Storage  StorageConfig  `json:"storage" mapstructure:"storage"`
	Cache    CacheConfig    `json:"cache" mapstructure:"cache"`
	Geocoder GeocoderConfig `json:"geocoder" mapstructure:"geocoder"`
	Index    IndexConfig    `json:"index" mapstructure:"index"`
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Entities EntitiesConfig `json:"entities" mapstructure:"entities"`
}
