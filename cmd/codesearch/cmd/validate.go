package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/validate"
)

func newValidateCmd() *cobra.Command {
	var validationType string

	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Run platform and performance checks against the current host",
		Long: `Validate runs synthetic checks that exercise the same file, lock, and
embedding operations indexing and search depend on, independent of any
project's actual index. Use it to tell an environment problem apart from
a bug.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runValidate(cmd, path, validationType)
		},
	}

	cmd.Flags().StringVar(&validationType, "validation-type", "all", "which checks to run: all, platform, or performance")
	return cmd
}

func runValidate(cmd *cobra.Command, path, validationType string) error {
	root, err := config.FindProjectRoot(path)
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	var results []validate.Result
	switch validationType {
	case "platform":
		results = validate.Platform(cfg)
	case "performance":
		results, err = validate.Performance(validate.DefaultPerformanceConfig())
	case "all", "":
		results, err = validate.All(cfg)
	default:
		return fmt.Errorf("unknown validation type %q: expected all, platform, or performance", validationType)
	}
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			status := "ok"
			if !r.Success {
				status = "FAIL"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %-24s %6dms  %s\n", status, r.Name, r.DurationMS, r.Details)
			if r.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "         %s\n", r.Error)
			}
		}
	}

	for _, r := range results {
		if !r.Success {
			return fmt.Errorf("validation check %q failed", r.Name)
		}
	}
	return nil
}
