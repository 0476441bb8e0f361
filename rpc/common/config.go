package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ValentinKolb/fKV/lib/eeprom"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// BackendMemory selects an in-memory flash region for a shard.
const BackendMemory = "mem"

type ServerShard struct {
	// ShardID is the ID of the shard
	ShardID uint64
	// Backend is BackendMemory or the path of a flash image file
	Backend string
}

// IsMemory reports whether the shard lives in memory only.
func (s ServerShard) IsMemory() bool {
	return s.Backend == BackendMemory
}

// ServerConfig holds all configuration parameters of the RPC server.
type ServerConfig struct {
	// shards served by this node, each one an emulated EEPROM
	Shards []ServerShard

	// flash layout shared by all shards
	PageSize    uint32
	BaseAddress uint32

	// SkipRecovery leaves the shards uninitialized on startup, clients must call Init
	SkipRecovery bool

	// request handling
	TimeoutSecond int64

	// transport endpoint
	Endpoint string

	// Logging configuration
	LogLevel string
}

// EEPROMOptions returns the layout every shard is created with.
func (c *ServerConfig) EEPROMOptions() *eeprom.Options {
	return &eeprom.Options{
		BaseAddress: c.BaseAddress,
		PageSize:    c.PageSize,
	}
}

// ParseShards parses a shard list of the form "100=mem,200=/var/lib/fkv/cfg.img".
func ParseShards(spec string) ([]ServerShard, error) {
	var shards []ServerShard
	seen := make(map[uint64]bool)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, backend, ok := strings.Cut(part, "=")
		if !ok || backend == "" {
			return nil, fmt.Errorf("invalid shard %q, expected <id>=<mem|path>", part)
		}
		shardID, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard id %q: %w", id, err)
		}
		if seen[shardID] {
			return nil, fmt.Errorf("duplicate shard id %d", shardID)
		}
		seen[shardID] = true
		shards = append(shards, ServerShard{ShardID: shardID, Backend: strings.TrimSpace(backend)})
	}
	if len(shards) == 0 {
		return nil, fmt.Errorf("no shards configured")
	}
	return shards, nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Flash layout
	opts := c.EEPROMOptions()
	addSection("Flash Layout")
	addField("Base Address", fmt.Sprintf("0x%08X", c.BaseAddress))
	addField("Page Size", fmt.Sprintf("%d bytes", c.PageSize))
	addField("Records Per Page", strconv.Itoa(opts.Capacity()))

	// Shards
	addSection("Shards")
	for _, shard := range c.Shards {
		addField(strconv.FormatUint(shard.ShardID, 10), shard.Backend)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints              []string
	TimeoutSecond          int
	RetryCount             int
	ConnectionsPerEndpoint int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
