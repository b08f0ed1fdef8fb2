package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Context(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("BEANS_MANIFEST", "")
	var out bytes.Buffer
	cmd := rootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"context", "--env", "framework/config/testdata/empty.env"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), ">> ContextClosed EVENT")
}

func TestRootCommand_Factory(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("BEANS_MANIFEST", "")
	var out bytes.Buffer
	cmd := rootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"factory", "--env", "framework/config/testdata/empty.env"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Promotion service bean name: promotionService")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	cmd := rootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"context", "--env", "framework/config/testdata/empty.env"})

	assert.Error(t, cmd.Execute())
}

func TestRootCommand_ServeWithActuatorDisabled(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("BEANS_MANIFEST", "")
	t.Setenv("BEANS_SCAN", "")
	t.Setenv("ACTUATOR_ENABLED", "false")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	cmd := rootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"serve", "--env", "framework/config/testdata/empty.env"})

	require.NoError(t, cmd.ExecuteContext(ctx))

	assert.Contains(t, out.String(), "actuator disabled")
	assert.NotContains(t, out.String(), "actuator on")
	assert.Contains(t, out.String(), ">> ContextClosed EVENT")
}
