package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func findStringFlag(cmd *cli.Command, name string) *cli.StringFlag {
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

func findIntFlag(cmd *cli.Command, name string) *cli.IntFlag {
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

func TestLoadCommandFlags(t *testing.T) {
	app := newApp()
	cmd := findCommand(t, app, "load")

	t.Run("dump is required", func(t *testing.T) {
		err := app.Run([]string{"staple", "load", "--db", "/tmp/test"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dump")
	})

	t.Run("db is required", func(t *testing.T) {
		err := app.Run([]string{"staple", "load", "--dump", "/tmp/dump.jsonl"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("embedding-model has default value", func(t *testing.T) {
		modelFlag := findStringFlag(cmd, "embedding-model")
		require.NotNil(t, modelFlag)
		assert.Equal(t, "all-MiniLM-L6-v2", modelFlag.Value)
	})

	t.Run("batch-size has default value of 100", func(t *testing.T) {
		batchFlag := findIntFlag(cmd, "batch-size")
		require.NotNil(t, batchFlag)
		assert.Equal(t, 100, batchFlag.Value)
	})

	t.Run("max-concurrent-batches has default value of 3", func(t *testing.T) {
		concurrencyFlag := findIntFlag(cmd, "max-concurrent-batches")
		require.NotNil(t, concurrencyFlag)
		assert.Equal(t, 3, concurrencyFlag.Value)
	})

	t.Run("max-retries has default value of 3", func(t *testing.T) {
		retriesFlag := findIntFlag(cmd, "max-retries")
		require.NotNil(t, retriesFlag)
		assert.Equal(t, 3, retriesFlag.Value)
	})

	t.Run("embedding flags carry no EnvVars", func(t *testing.T) {
		hostFlag := findStringFlag(cmd, "embedding-host")
		require.NotNil(t, hostFlag)
		assert.Empty(t, hostFlag.EnvVars)

		modelFlag := findStringFlag(cmd, "embedding-model")
		require.NotNil(t, modelFlag)
		assert.Empty(t, modelFlag.EnvVars)
	})
}

func TestInfoCommandFlags(t *testing.T) {
	app := newApp()
	cmd := findCommand(t, app, "info")

	t.Run("embedding-model has default value", func(t *testing.T) {
		modelFlag := findStringFlag(cmd, "embedding-model")
		require.NotNil(t, modelFlag)
		assert.Equal(t, "all-MiniLM-L6-v2", modelFlag.Value)
	})

	t.Run("embedding-host is optional", func(t *testing.T) {
		hostFlag := findStringFlag(cmd, "embedding-host")
		require.NotNil(t, hostFlag)
		assert.False(t, hostFlag.Required)
		assert.Empty(t, hostFlag.Value)
	})
}

func TestSetupLogger(t *testing.T) {
	runWithLevel := func(level string) error {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}
		return app.Run([]string{"test", "--log-level", level})
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			assert.NoError(t, runWithLevel(level), level)
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, level := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			assert.NoError(t, runWithLevel(level), level)
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := runWithLevel("invalid")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}
