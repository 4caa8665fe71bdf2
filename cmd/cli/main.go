package main

import (
	"encoding/json"
	"fmt"
	"os"

	"goprove/adapters/excel"
	"goprove/domain/core"
	"goprove/domain/identity"
	"goprove/domain/promotion"
	"goprove/domain/seed"
	"goprove/internal/config"
	"goprove/internal/container"
	"goprove/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "goprove",
		Short: "Validation control plane CLI: snapshot, identity, seeds, candidates",
	}

	rootCmd.AddCommand(
		newSnapshotCmd(),
		newIdentityCmd(),
		newSeedCmd(),
		newCandidatesCmd(),
		newTraceCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSnapshotCmd() *cobra.Command {
	var dir string
	var scopeFile string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Hash the in-scope tables of a dataset directory",
		Long: `Hash every table listed in the scope file and print the snapshot.

Example: goprove snapshot --dir ./data --scope scope.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := config.LoadScope(scopeFile)
			if err != nil {
				return err
			}

			c, err := newContainer()
			if err != nil {
				return err
			}
			source := excel.NewTableSource(dir)
			snapshot, err := c.ControlPlane.SnapshotDataset(cmd.Context(), source, scope.Tables, scope.Mode)
			if err != nil {
				return err
			}
			return printJSON(snapshot)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory holding <table>.xlsx or <table>.csv files")
	cmd.Flags().StringVar(&scopeFile, "scope", "scope.yaml", "Hash-scope yaml file")
	_ = cmd.MarkFlagRequired("scope")

	return cmd
}

func newIdentityCmd() *cobra.Command {
	var payloadFile string

	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Derive the run key and mint a run instance ID from a semantic payload",
		Long: `Read a JSON payload, strip excluded keys, canonicalize and hash it.

Example: goprove identity --payload run.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(payloadFile)
			if err != nil {
				return fmt.Errorf("reading payload: %w", err)
			}
			var payload identity.SemanticPayload
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("parsing payload: %w", err)
			}
			ident, err := identity.BuildRunIdentity(payload)
			if err != nil {
				return err
			}
			return printJSON(ident)
		},
	}

	cmd.Flags().StringVar(&payloadFile, "payload", "", "JSON file with the semantic payload")
	_ = cmd.MarkFlagRequired("payload")

	return cmd
}

func newSeedCmd() *cobra.Command {
	var runKey string
	var saltName string
	var foldID string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Derive the seed for a (run key, salt) stream",
		Long: `Derive the reproducible 64-bit seed for one stochastic procedure.

Example: goprove seed --run-key <hex> --salt bootstrap --fold fold-0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			salt := seed.Salt(saltName)
			if !seed.IsRegistered(salt) {
				return fmt.Errorf("unregistered salt %q (registered: %v)", saltName, seed.RegisteredSalts())
			}

			var value uint64
			if foldID != "" {
				value = seed.RootForFold(core.RunKey(runKey), salt, foldID, seed.SchemeVersion)
			} else {
				value = seed.Root(core.RunKey(runKey), salt, seed.SchemeVersion)
			}
			return printJSON(map[string]any{
				"seed":    value,
				"salt":    salt,
				"fold_id": foldID,
				"version": seed.SchemeVersion,
			})
		},
	}

	cmd.Flags().StringVar(&runKey, "run-key", "", "Run key hex string")
	cmd.Flags().StringVar(&saltName, "salt", string(seed.SaltBootstrap), "Registered salt name")
	cmd.Flags().StringVar(&foldID, "fold", "", "Optional fold discriminator")
	_ = cmd.MarkFlagRequired("run-key")

	return cmd
}

func newCandidatesCmd() *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List promotion candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer()
			if err != nil {
				return err
			}

			filters := ports.CandidateFilters{Limit: limit}
			if status != "" {
				st := promotion.Status(status)
				if !st.IsValid() {
					return fmt.Errorf("unknown status %q", status)
				}
				filters.Status = &st
			}
			candidates, err := c.ControlPlane.ListCandidates(cmd.Context(), filters)
			if err != nil {
				return err
			}
			return printJSON(candidates)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by lifecycle status")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum candidates to return")

	return cmd
}

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace [candidate-id]",
		Short: "Reconstruct the evidentiary chain of an accepted candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer()
			if err != nil {
				return err
			}
			trace, err := c.ControlPlane.TraceAcceptance(cmd.Context(), core.CandidateID(args[0]))
			if err != nil {
				return err
			}
			return printJSON(trace)
		},
	}
	return cmd
}

// newContainer wires against postgres when DATABASE_URL is set, and the
// in-memory store otherwise. The in-memory store is per-process, so
// read commands against it only see writes from the same invocation.
func newContainer() (*container.Container, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Database.URL == "" {
		c.InitInMemory()
		return c, nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := c.InitWithDatabase(db); err != nil {
		return nil, err
	}
	return c, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
