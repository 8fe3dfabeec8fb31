package types

import (
	"encoding/json"
	"time"
)

// Config represents the complete configuration for the sitemap server
type Config struct {
	API       APIConfig       `json:"api" yaml:"api" envPrefix:"API_"`
	Database  DatabaseConfig  `json:"database" yaml:"database" envPrefix:"DATABASE_"`
	Artifacts ArtifactsConfig `json:"artifacts" yaml:"artifacts" envPrefix:"ARTIFACTS_"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" envPrefix:"CACHE_"`
	Log       LogConfig       `json:"log" yaml:"log" envPrefix:"LOG_"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// APIConfig represents the HTTP API configuration
type APIConfig struct {
	Host           string   `json:"host" yaml:"host" env:"HOST"`
	Port           int      `json:"port" yaml:"port" env:"PORT"`
	ReadTimeout    Duration `json:"read_timeout" yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout   Duration `json:"write_timeout" yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout    Duration `json:"idle_timeout" yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	RateLimit      int      `json:"rate_limit" yaml:"rate_limit" env:"RATE_LIMIT"` // requests per minute per IP, 0 disables
	MaxUploadBytes int64    `json:"max_upload_bytes" yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
}

// DatabaseConfig selects the SQL driver and its data source
type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver" env:"DRIVER"` // "duckdb", "sqlite" or "postgres"
	DSN    string `json:"dsn" yaml:"dsn" env:"DSN"`
}

// ArtifactsConfig selects where binary item content is kept
type ArtifactsConfig struct {
	Backend   string `json:"backend" yaml:"backend" env:"BACKEND"` // "local" or "s3"
	Root      string `json:"root" yaml:"root" env:"ROOT"`
	Endpoint  string `json:"endpoint" yaml:"endpoint" env:"ENDPOINT"`
	Bucket    string `json:"bucket" yaml:"bucket" env:"BUCKET"`
	AccessKey string `json:"access_key" yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `json:"secret_key" yaml:"secret_key" env:"SECRET_KEY"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl" env:"USE_SSL"`
}

// CacheConfig configures the optional Redis tree cache
type CacheConfig struct {
	RedisURL string   `json:"redis_url" yaml:"redis_url" env:"REDIS_URL"`
	TTL      Duration `json:"ttl" yaml:"ttl" env:"TTL"`
}

// LogConfig configures the global logger
type LogConfig struct {
	Level string `json:"level" yaml:"level" env:"LEVEL"`
}

// TelemetryConfig configures OpenTelemetry tracing
type TelemetryConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled" env:"ENABLED"`
	Endpoint     string  `json:"endpoint" yaml:"endpoint" env:"ENDPOINT"`
	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate" env:"SAMPLING_RATE"`
}

// Duration is a time.Duration that reads and writes as a Go duration string ("15s")
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Project is the root container of one site tree
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Item is a node of a project's site tree. ParentID is empty for top-level items.
type Item struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"project_id"`
	ParentID         string    `json:"parent_id"`
	Type             string    `json:"type"`
	Name             string    `json:"name"`
	URL              string    `json:"url,omitempty"`
	IsOpen           bool      `json:"is_open"`
	Position         int       `json:"position"`
	ArtifactKey      string    `json:"artifact_key,omitempty"`
	ArtifactType     string    `json:"artifact_type,omitempty"`
	ArtifactSize     int64     `json:"artifact_size,omitempty"`
	ArtifactChecksum string    `json:"artifact_checksum,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsFolder reports whether the item can hold children
func (i *Item) IsFolder() bool {
	return i.Type == ItemTypeFolder
}

// HasArtifact reports whether binary content has been uploaded for the item
func (i *Item) HasArtifact() bool {
	return i.ArtifactKey != ""
}

// TreeNode is the nested view of an item. Only folders carry children.
type TreeNode struct {
	Item
	Children []TreeNode `json:"children,omitempty"`
}

// FlatNode is one row of the pre-order flattened tree
type FlatNode struct {
	Item
	Depth       int  `json:"depth"`
	HasChildren bool `json:"has_children"`
}

// Marker is an annotation anchored at a position on a page.
// X and Y are percentages of the page artifact's width and height.
type Marker struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Label     string    `json:"label"`
	Content   string    `json:"content"`
	Color     string    `json:"color,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarkerHistory is one entry of a marker's change log
type MarkerHistory struct {
	ID        string          `json:"id"`
	MarkerID  string          `json:"marker_id"`
	Action    string          `json:"action"`
	Content   string          `json:"content,omitempty"`
	Snapshot  json.RawMessage `json:"snapshot,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// FlowNode is a vertex of a flow diagram. ItemID optionally links it to a site item.
type FlowNode struct {
	ID     string          `json:"id"`
	FlowID string          `json:"flow_id"`
	Type   string          `json:"type"`
	Label  string          `json:"label"`
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	ItemID string          `json:"item_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// FlowEdge connects two nodes of the same flow
type FlowEdge struct {
	ID     string          `json:"id"`
	FlowID string          `json:"flow_id"`
	Source string          `json:"source"`
	Target string          `json:"target"`
	Label  string          `json:"label,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Flow is the full graph of a flow item
type Flow struct {
	Item  Item       `json:"item"`
	Nodes []FlowNode `json:"nodes"`
	Edges []FlowEdge `json:"edges"`
}

// APIResponse represents a generic API response
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// TableInfo represents information about a database table
type TableInfo struct {
	Name     string `json:"name"`
	RowCount int    `json:"row_count"`
}

// Item type constants
const (
	ItemTypeFolder = "folder"
	ItemTypePage   = "page"
	ItemTypeImage  = "image"
	ItemTypeFlow   = "flow"
	ItemTypePPT    = "ppt"
)

// ItemTypes lists every valid item type
var ItemTypes = []string{ItemTypeFolder, ItemTypePage, ItemTypeImage, ItemTypeFlow, ItemTypePPT}

// IsValidItemType reports whether t names a known item type
func IsValidItemType(t string) bool {
	for _, known := range ItemTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AcceptsMarkers reports whether items of type t can be annotated
func AcceptsMarkers(t string) bool {
	return t == ItemTypePage || t == ItemTypeImage
}

// AcceptsArtifact reports whether items of type t can carry binary content
func AcceptsArtifact(t string) bool {
	return t == ItemTypePage || t == ItemTypeImage || t == ItemTypePPT
}

// Marker status constants
const (
	MarkerStatusOpen     = "open"
	MarkerStatusResolved = "resolved"
)

// Marker history actions
const (
	HistoryCreated = "created"
	HistoryUpdated = "updated"
	HistoryComment = "comment"
)
