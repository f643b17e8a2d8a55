package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/driftsec/lakesweep"
	"github.com/driftsec/lakesweep/aws"
	"github.com/driftsec/lakesweep/core"
	"github.com/driftsec/lakesweep/scan"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lakesweep",
		Short:         "PII discovery and governance tagging for AWS data stores",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	rootCmd.AddCommand(
		newScanCmd(),
		newMaskCmd(),
	)

	return rootCmd
}

type scanFlags struct {
	server     string
	region     string
	databases  []string
	buckets    []string
	tables     []string
	maxObjects int
	maxItems   int
	workers    int
	ner        bool
	objects    bool
	items      bool
	applyTags  bool
	dryRun     bool
	output     string
	auditLog   string
	auditLevel string
}

func newScanCmd() *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan catalog, object and item stores for PII",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.auditLog != "" {
				if err := core.ConfigureLogger(flags.auditLog, core.AuditLogLevel(flags.auditLevel), 100*1024*1024, 90, false); err != nil {
					return fmt.Errorf("failed to configure audit log: %w", err)
				}
			}

			clientConfig := aws.LoadClientConfig(nil)
			if flags.region != "" {
				clientConfig.Region = flags.region
			}

			report, err := lakesweep.RunScanWithConfig(cmd.Context(), flags.server, clientConfig, scan.Config{
				Region:           clientConfig.Region,
				Databases:        flags.databases,
				Buckets:          flags.buckets,
				Tables:           flags.tables,
				MaxObjects:       flags.maxObjects,
				MaxItems:         flags.maxItems,
				Workers:          flags.workers,
				EnableNER:        flags.ner,
				EnableObjectScan: flags.objects,
				EnableItemScan:   flags.items,
				ApplyTags:        flags.applyTags,
				DryRun:           flags.dryRun,
			})
			if err != nil {
				return err
			}

			return writeReport(cmd.OutOrStdout(), report, flags.output)
		},
	}

	cmd.Flags().StringVar(&flags.server, "server", "", "Path or URL of the AWS MCP server (default: discovery)")
	cmd.Flags().StringVar(&flags.region, "region", "", "AWS region (default: AWS_REGION or us-west-2)")
	cmd.Flags().StringSliceVar(&flags.databases, "database", nil, "Catalog databases to scan (default: all)")
	cmd.Flags().StringSliceVar(&flags.buckets, "bucket", nil, "Buckets to scan (default: all)")
	cmd.Flags().StringSliceVar(&flags.tables, "table", nil, "Item-store tables to scan (default: all)")
	cmd.Flags().IntVar(&flags.maxObjects, "max-objects", 10, "Max sampled objects per bucket")
	cmd.Flags().IntVar(&flags.maxItems, "max-items", 10, "Max sampled items per table")
	cmd.Flags().IntVar(&flags.workers, "workers", 4, "Per-unit worker pool size")
	cmd.Flags().BoolVar(&flags.ner, "ner", false, "Use the external entity recognizer for content")
	cmd.Flags().BoolVar(&flags.objects, "objects", true, "Scan object-store content")
	cmd.Flags().BoolVar(&flags.items, "items", true, "Scan item-store tables")
	cmd.Flags().BoolVar(&flags.applyTags, "apply-tags", false, "Apply governance tags to findings")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", true, "Log governance operations instead of sending them")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the JSON report to a file instead of stdout")
	cmd.Flags().StringVar(&flags.auditLog, "audit-log", "", "Audit log path (default: audit.log in the working directory)")
	cmd.Flags().StringVar(&flags.auditLevel, "audit-level", "standard", "Audit log level: minimal, standard or verbose")

	return cmd
}

func newMaskCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "mask [value]",
		Short: "Mask a value or stdin text using the default rules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// With an explicit category, mask the single value directly
			if len(args) == 1 && category != "" {
				fmt.Fprintln(cmd.OutOrStdout(), lakesweep.MaskValue(args[0], core.PIICategory(category)))
				return nil
			}

			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(data)
			}

			masked, err := lakesweep.MaskText(text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), masked)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "PII category of the value, e.g. SSN or EMAIL")

	return cmd
}

func writeReport(stdout io.Writer, report *scan.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	if path == "" {
		fmt.Fprintln(stdout, string(data))
		return nil
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(stdout, "Report written to %s (%d findings)\n", path, len(report.Findings))
	return nil
}
