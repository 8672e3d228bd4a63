package envconfig

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVar(t *testing.T) {
	t.Setenv("STRIDED_TEST_VAR", `  "quoted"  `)
	assert.Equal(t, "quoted", Var("STRIDED_TEST_VAR"))
}

func TestUint(t *testing.T) {
	tests := map[string]uint{
		"":      0,
		"8":     8,
		"-1":    0,
		"eight": 0,
	}
	for value, want := range tests {
		t.Run(value, func(t *testing.T) {
			t.Setenv("STRIDED_NUM_THREADS", value)
			assert.Equal(t, want, NumThreads())
		})
	}
}

func TestGrainSizeDefault(t *testing.T) {
	t.Setenv("STRIDED_GRAIN_SIZE", "")
	assert.Equal(t, uint(4096), GrainSize())
}

func TestBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"false", false},
		{"0", false},
		{"1", true},
		{"yes please", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("STRIDED_PARALLEL", tt.value)
			assert.Equal(t, tt.want, Parallel(true))
		})
	}
}

func TestLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"false": slog.LevelInfo,
		"0":     slog.LevelInfo,
		"true":  slog.LevelDebug,
		"1":     slog.LevelDebug,
		"2":     slog.Level(-8),
	}
	for value, want := range tests {
		t.Run(value, func(t *testing.T) {
			t.Setenv("STRIDED_DEBUG", value)
			assert.Equal(t, want, LogLevel())
		})
	}
}

func TestValues(t *testing.T) {
	t.Setenv("STRIDED_NUM_THREADS", "3")
	vals := Values()
	assert.Equal(t, "3", vals["STRIDED_NUM_THREADS"])
	assert.Len(t, vals, 4)
}
