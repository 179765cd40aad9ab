package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("APP_ENV", "testing")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env", "testdata/none.env"))
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestRoutesCommand(t *testing.T) {
	out := run(t, "routes")
	assert.Contains(t, out, "HomeController@Index")
	assert.Contains(t, out, "/api/notes/{id}")
	assert.Contains(t, out, "NoteController@Destroy")
	assert.Contains(t, out, "/metrics")
}

func TestBindingsCommand(t *testing.T) {
	out := run(t, "bindings")
	assert.Contains(t, out, "config")
	assert.Contains(t, out, "router")
	assert.Regexp(t, `(?m)^HomeController\s+transient$`, out)
	assert.Regexp(t, `(?m)^db\s+transient$`, out)
	assert.Regexp(t, `(?m)^kernel\s+resolved$`, out)
}
