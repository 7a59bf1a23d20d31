package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"sitebook/collections"
	"sitebook/config"
	"sitebook/importer"
	"sitebook/services"
)

type importBOQOptions struct {
	projectID string
	file      string
	margin    float64
	reference string
	mapping   map[string]string
	dryRun    bool
}

func newImportBOQCmd(app *pocketbase.PocketBase, cfg config.ImportConfig) *cobra.Command {
	var opts importBOQOptions

	cmd := &cobra.Command{
		Use:   "import-boq",
		Short: "Import a BOQ spreadsheet as a new BOQ version of a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportBOQ(cmd, app, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.projectID, "project", "", "Project id (required)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Path to an .xlsx, .xls or .csv file (required)")
	cmd.Flags().Float64Var(&opts.margin, "margin", cfg.DefaultMarginPercent, "Default margin percent")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "BOQ reference (default: taken from the file name)")
	cmd.Flags().StringToStringVar(&opts.mapping, "map", nil, "Column mapping for manual files, e.g. --map rate=\"Unit Rate\"")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse and print the summary without saving")

	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImportBOQ(cmd *cobra.Command, app *pocketbase.PocketBase, cfg config.ImportConfig, opts importBOQOptions) error {
	out := cmd.OutOrStdout()
	fileName := filepath.Base(opts.file)

	c, err := importer.RunInBackground(cmd.Context(), func() (importer.Classification, error) {
		table, err := readTableFile(opts.file)
		if err != nil {
			return importer.Classification{}, err
		}
		return importer.Classify(table, cfg.Profile(), cfg.AutoThreshold)
	})
	if err != nil {
		return err
	}

	var mapping *importer.ColumnMapping
	if len(opts.mapping) > 0 {
		mapping = &importer.ColumnMapping{
			Description: opts.mapping["description"],
			Quantity:    opts.mapping["quantity"],
			Unit:        opts.mapping["unit"],
			Rate:        opts.mapping["rate"],
			Category:    opts.mapping["category"],
		}
	}

	items, skipped, err := services.ImportItems(c, mapping, opts.margin)
	if err != nil {
		return err
	}
	printBOQSummary(out, c.Mode, items, skipped)
	if opts.dryRun {
		return nil
	}

	collections.Setup(app)
	reference := opts.reference
	if reference == "" {
		reference = importer.ExtractReference(fileName)
	}
	res, err := services.CommitBOQImport(app, services.BOQImport{
		ProjectID:     opts.projectID,
		Reference:     reference,
		SourceFile:    fileName,
		Mode:          c.Mode,
		MarginPercent: opts.margin,
		Items:         items,
		Skipped:       skipped,
	}, time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Saved %s version %d (%d previous superseded)\n", res.Reference, res.Version, res.Superseded)
	return nil
}

func printBOQSummary(out io.Writer, mode importer.Mode, items []importer.ParsedLineItem, skipped int) {
	rollupItems := make([]services.RollupItem, len(items))
	for i, it := range items {
		rollupItems[i] = services.RollupItem{Category: it.Category, Cost: it.Cost(), Price: it.Price()}
	}
	r := services.CalcRollup(rollupItems)

	fmt.Fprintf(out, "Mode:        %s\n", mode)
	fmt.Fprintf(out, "Categories:  %s\n", humanize.Comma(int64(len(importer.GroupCategories(items)))))
	fmt.Fprintf(out, "Items:       %s (%s rows skipped)\n", humanize.Comma(int64(len(items))), humanize.Comma(int64(skipped)))
	fmt.Fprintf(out, "Total cost:  %s\n", services.FormatMoney(r.TotalCost))
	fmt.Fprintf(out, "Client:      %s (%.1f%% margin)\n", services.FormatMoney(r.ClientPrice), r.MarginPercent)
}

type importScheduleOptions struct {
	projectID string
	file      string
	dryRun    bool
}

func newImportScheduleCmd(app *pocketbase.PocketBase) *cobra.Command {
	var opts importScheduleOptions

	cmd := &cobra.Command{
		Use:   "import-schedule",
		Short: "Replace a project's schedule with a Primavera-style export",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportSchedule(cmd, app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.projectID, "project", "", "Project id (required)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Path to an .xlsx, .xls or .csv file (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse and print the phases without saving")

	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImportSchedule(cmd *cobra.Command, app *pocketbase.PocketBase, opts importScheduleOptions) error {
	out := cmd.OutOrStdout()

	parsed, err := importer.RunInBackground(cmd.Context(), func() (importer.ScheduleParseResult, error) {
		table, err := readTableFile(opts.file)
		if err != nil {
			return importer.ScheduleParseResult{}, err
		}
		return importer.ParseSchedule(table)
	})
	if err != nil {
		return err
	}

	for _, p := range parsed.Phases {
		fmt.Fprintf(out, "%-3s %-32s %3d tasks  %s .. %s\n", p.Prefix, p.Name, len(p.Tasks), p.StartDate, p.EndDate)
	}
	fmt.Fprintf(out, "%d tasks, %d rows skipped\n", parsed.TaskCount(), parsed.Skipped)
	if opts.dryRun {
		return nil
	}

	collections.Setup(app)
	res, err := services.CommitScheduleImport(app, services.ScheduleImport{
		ProjectID:  opts.projectID,
		SourceFile: filepath.Base(opts.file),
		Parsed:     parsed,
	}, time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Saved schedule %s: %d phases, %d tasks (replaced %d tasks)\n",
		res.ScheduleID, res.Phases, res.Tasks, res.RemovedTasks)
	return nil
}

func newBOQTemplateCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "boq-template",
		Short: "Write the BOQ import template workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := services.GenerateBOQTemplate()
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", outPath, humanize.Bytes(uint64(len(data))))
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "BOQ_Import_Template.xlsx", "Output path")
	return cmd
}

func readTableFile(path string) (*importer.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return importer.ReadTable(f, filepath.Base(path))
}
