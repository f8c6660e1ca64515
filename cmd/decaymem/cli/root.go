// Package cli implements the decaymem command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/oceanbase/decaymem-go/pkg/core"
)

type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
}

// NewRootCmd builds the decaymem command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "decaymem",
		Short: "Decaying-strength conversational memory",
		Long: `decaymem stores conversation utterances in a multi-space vector index.
Each memory has a strength that decays with time since last access, rises
with retrievals and emotional charge, and weak memories are evicted.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "config file (.json, .yaml); defaults to environment")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", "", "load environment from this .env file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(storeCmd(g))
	root.AddCommand(importCmd(g))
	root.AddCommand(searchCmd(g))
	root.AddCommand(cleanupCmd(g))
	root.AddCommand(statsCmd(g))
	root.AddCommand(sweepCmd(g))
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (g *globalFlags) loadConfig() (*core.Config, error) {
	var (
		cfg *core.Config
		err error
	)
	switch {
	case g.configPath != "":
		cfg, err = core.LoadConfigFromFile(g.configPath)
	case g.envFile != "":
		cfg, err = core.LoadConfigFromEnvFile(g.envFile)
	default:
		cfg, err = core.LoadConfigFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	return cfg, nil
}

// withClient opens a client, runs fn and closes the client. mutate may
// adjust the loaded config first.
func (g *globalFlags) withClient(ctx context.Context, mutate func(*core.Config), fn func(context.Context, *core.Client) error) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if mutate != nil {
		mutate(cfg)
	}
	client, err := core.NewClientFromConfig(cfg)
	if err != nil {
		return err
	}
	runErr := fn(ctx, client)
	if err := client.Flush(ctx); err != nil && runErr == nil {
		runErr = err
	}
	if err := client.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
