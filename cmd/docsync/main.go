package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alucardeht/docsync/internal/annotations"
	"github.com/alucardeht/docsync/internal/config"
	"github.com/alucardeht/docsync/internal/generator"
	"github.com/alucardeht/docsync/internal/logger"
	"github.com/alucardeht/docsync/internal/render"
)

var version = "dev"

var errMissingAnnotations = errors.New("missing annotations")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errMissingAnnotations) {
			logger.Error("docsync failed", "error", err)
			fmt.Fprintf(os.Stderr, "Error generating folder structure: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docsync",
		Short: "Keep an annotated folder listing in sync with the project tree",
		Long: `docsync scans a project directory, adds placeholder entries for every
file without an annotation to the annotation store (comments.json by default),
and writes an indented listing of the tree with each file's annotation to
docs/folder_structure.txt.

Existing annotations are never overwritten or pruned.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGenerate,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default .docsync.yaml if present)")
	flags.String("root", "", "Project root to scan")
	flags.String("store", "", "Annotation store path, relative to root")
	flags.String("backend", "", "Annotation store backend: json|sqlite")
	flags.String("output", "", "Listing path, relative to root")
	flags.String("log-level", "", "Log level: debug|info|warn|error")
	flags.String("log-format", "", "Log format: text|json")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Merge missing annotations into the store and write the listing",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Report missing annotations without merging or writing the listing (exit 1 if any)",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}
	checkCmd.Flags().Bool("json", false, "Print the report as JSON")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Print the listing to stdout without adding entries to the store",
		Long: `render prints the listing for the current tree and store to stdout.
Missing entries are shown with empty annotations but are not added to the
store, and the listing file is not written. An absent store is created empty,
as on every run.`,
		Args: cobra.NoArgs,
		RunE: runRender,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd.AddCommand(generateCmd, checkCmd, renderCmd, versionCmd)
	return rootCmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	gen, closeStore, err := buildGenerator(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	if _, err := gen.Generate(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Folder structure generated successfully.")
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	gen, closeStore, err := buildGenerator(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := gen.Check()
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	}

	if len(report.Missing) > 0 {
		return errMissingAnnotations
	}
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	gen, closeStore, err := buildGenerator(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	_, err = gen.RenderTo(cmd.OutOrStdout())
	return err
}

// buildGenerator resolves configuration (file, env, then flags), sets up
// logging and opens the store. The returned func closes the store.
func buildGenerator(cmd *cobra.Command) (*generator.Generator, func(), error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	applyFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logCfg := logger.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Log.Format
	logCfg.Output = cmd.ErrOrStderr()
	logger.Init(logCfg)

	scanner, err := cfg.Scanner()
	if err != nil {
		return nil, nil, err
	}

	store, err := annotations.Open(cfg.Store.Backend, cfg.StorePath())
	if err != nil {
		return nil, nil, err
	}

	gen := generator.New(generator.Options{
		Root:       cfg.Root,
		OutputPath: cfg.OutputPath(),
		Store:      store,
		Scanner:    scanner,
		Renderer:   &render.Renderer{Indent: cfg.Indent},
		Out:        cmd.OutOrStdout(),
	})

	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close annotation store", "error", err)
		}
	}
	return gen, closeStore, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := map[string]*string{
		"root":       &cfg.Root,
		"store":      &cfg.Store.Path,
		"backend":    &cfg.Store.Backend,
		"output":     &cfg.Output,
		"log-level":  &cfg.Log.Level,
		"log-format": &cfg.Log.Format,
	}
	for name, target := range overrides {
		if !cmd.Flags().Changed(name) {
			continue
		}
		if v, err := cmd.Flags().GetString(name); err == nil {
			*target = v
		}
	}
}
