// Package envconfig reads the STRIDED_* environment variables.
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Var returns the value of an environment variable with surrounding quotes
// and whitespace removed.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// BoolWithDefault returns a getter for a boolean variable. A set value that
// does not parse counts as true.
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Uint returns a getter for an unsigned variable. Invalid values log a
// warning and fall back to defaultValue.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

var (
	// NumThreads is the number of worker goroutines. 0 means one per CPU.
	NumThreads = Uint("STRIDED_NUM_THREADS", 0)
	// GrainSize is the minimum number of elements per parallel chunk.
	GrainSize = Uint("STRIDED_GRAIN_SIZE", 4096)
	// Parallel enables parallel transforms. Defaults to true.
	Parallel = BoolWithDefault("STRIDED_PARALLEL")
)

// LogLevel returns the log level selected by STRIDED_DEBUG: a boolean turns
// on debug records, an integer n selects slog.Level(-4n).
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("STRIDED_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// EnvVar describes one variable for display.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every variable with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"STRIDED_DEBUG":       {"STRIDED_DEBUG", LogLevel(), "Show additional debug information (e.g. STRIDED_DEBUG=1)"},
		"STRIDED_NUM_THREADS": {"STRIDED_NUM_THREADS", NumThreads(), "Worker goroutines for parallel transforms (default: one per CPU)"},
		"STRIDED_GRAIN_SIZE":  {"STRIDED_GRAIN_SIZE", GrainSize(), "Minimum elements per parallel chunk"},
		"STRIDED_PARALLEL":    {"STRIDED_PARALLEL", Parallel(true), "Run transforms in parallel (default: true)"},
	}
}

// Values returns every variable's current value formatted as a string.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
