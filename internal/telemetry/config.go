package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	envEndpoint    = "NETSCOPE_TRACE_OTEL_ENDPOINT"
	envInsecure    = "NETSCOPE_TRACE_OTEL_INSECURE"
	envService     = "NETSCOPE_TRACE_OTEL_SERVICE"
	envDialTimeout = "NETSCOPE_TRACE_OTEL_TIMEOUT"
	envHeaders     = "NETSCOPE_TRACE_OTEL_HEADERS"

	DefaultServiceName = "netscope"
)

// Config controls the OTLP exporter. Telemetry is disabled unless an
// endpoint is set.
type Config struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
	DialTimeout time.Duration
	Headers     map[string]string
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// ConfigFromEnv reads the exporter settings through getenv. Malformed values
// are ignored and the defaults kept.
func ConfigFromEnv(getenv func(string) string) Config {
	if getenv == nil {
		return Config{ServiceName: DefaultServiceName}
	}
	cfg := Config{
		Endpoint:    strings.TrimSpace(getenv(envEndpoint)),
		ServiceName: strings.TrimSpace(getenv(envService)),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if raw := strings.TrimSpace(getenv(envInsecure)); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.Insecure = v
		}
	}
	if raw := strings.TrimSpace(getenv(envDialTimeout)); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.DialTimeout = d
		}
	}
	if headers, err := ParseHeaders(getenv(envHeaders)); err == nil {
		cfg.Headers = headers
	}
	return cfg
}

// ParseHeaders parses a comma separated list of key=value pairs.
func ParseHeaders(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q: expected key=value", part)
		}
		out[key] = strings.TrimSpace(value)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
