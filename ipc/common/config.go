package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Shared transport configuration structs
// --------------------------------------------------------------------------

// SocketConf holds socket buffer settings shared by all stream transports.
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific tuning options (ignored by the unix transport).
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// IPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds the transport settings of the server.
type ServerTransportConfig struct {
	// Endpoint is the address the server listens on
	// (e.g. "0.0.0.0:1010" for tcp, "/tmp/ipc.sock" for unix)
	Endpoint string

	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters for the IPC server.
type ServerConfig struct {
	// SecretKey is the shared secret clients must present in the handshake
	SecretKey string

	// TimeoutSecond is the write timeout for responses (0 disables it)
	TimeoutSecond int64

	// MetricsEndpoint optionally exposes prometheus metrics and pprof via
	// HTTP (e.g. "127.0.0.1:6060"). Empty disables the sidecar.
	MetricsEndpoint string

	// Transport settings
	Transport ServerTransportConfig

	// Logging configuration
	LogLevel string
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

	// IPC settings
	addSection("IPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Secret Key", maskSecret(c.SecretKey))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// IPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the transport settings of the client.
type ClientTransportConfig struct {
	// Endpoint is the address of the IPC server
	Endpoint string

	SocketConf
	TCPConf
}

// ClientConfig holds all configuration parameters for the IPC client.
type ClientConfig struct {
	// SecretKey is the shared secret presented in the handshake
	SecretKey string

	// TimeoutSecond limits how long a request waits for its response
	// (0 waits forever, e.g. for long-running host work)
	TimeoutSecond int

	// Transport settings
	Transport ClientTransportConfig
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
	addField("Endpoint", c.Transport.Endpoint)
	addField("Secret Key", maskSecret(c.SecretKey))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	return sb.String()
}

// maskSecret hides the secret key in config dumps, keeping only the length
// so misconfigured (empty) keys are still visible in the logs.
func maskSecret(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	return fmt.Sprintf("***** (%s chars)", strconv.Itoa(len(secret)))
}
