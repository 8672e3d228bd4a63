package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := newCLI()
	cli.SetOut(&out)
	cli.SetErr(&out)
	cli.SetArgs(args)
	err := cli.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "strided version "+version+"\n", out)

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check")
	require.NoError(t, err, out)
	for _, c := range checks {
		assert.Contains(t, out, c.name)
	}
	assert.NotContains(t, out, "FAIL")
}

func TestBench(t *testing.T) {
	out, err := execute(t, "bench", "--size", "64", "--repeat", "1")
	require.NoError(t, err, out)
	for _, c := range benchCases {
		assert.Contains(t, out, c.name)
	}

	_, err = execute(t, "bench", "--size", "0")
	assert.Error(t, err)
}

func TestOps(t *testing.T) {
	out, err := execute(t, "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "plus_equals")
	assert.Contains(t, out, "(float64, float32)")
	assert.Contains(t, out, "(bool, float64, float64)")
}

func TestEnv(t *testing.T) {
	t.Setenv("STRIDED_GRAIN_SIZE", "128")
	out, err := execute(t, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "STRIDED_NUM_THREADS")
	assert.Regexp(t, `STRIDED_GRAIN_SIZE\s+128`, out)
}
