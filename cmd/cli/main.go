package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"protoval/adapters/ingest"
	"protoval/app"
	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/config"
	"protoval/internal/container"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "protoval",
		Short: "Score and improve clinical study protocol documents",
	}

	rootCmd.AddCommand(
		newValidateCmd(),
		newImproveCmd(),
		newTypesCmd(),
		newRulesCmd(),
		newDetectCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildContainer assembles the service graph for one CLI invocation.
// Configuration comes from the environment; a rule file flag overrides
// the embedded rule set.
func buildContainer(ruleFile string) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if ruleFile != "" {
		cfg.Rules.File = ruleFile
	}
	return container.New(cfg)
}

func checkMode(mode string) error {
	switch validation.Mode(mode) {
	case "", validation.ModeFull, validation.ModeQuick:
		return nil
	}
	return fmt.Errorf("invalid mode %q (use full or quick)", mode)
}

func newValidateCmd() *cobra.Command {
	var studyType string
	var mode string
	var ruleFile string
	var excelPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate [protocol-file]",
		Short: "Score a protocol document against its study type rules",
		Long: `Parse a protocol document, detect or accept its study type and score
it across completeness, compliance and consistency checks. Exits with
status 1 when critical findings remain.

Example: protoval validate protocol.md --type phase1 --excel findings.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMode(mode); err != nil {
				return err
			}
			return runValidate(cmd.Context(), args[0], studyType, mode, ruleFile, excelPath, asJSON)
		},
	}

	cmd.Flags().StringVar(&studyType, "type", "", "Override the detected study type")
	cmd.Flags().StringVar(&mode, "mode", "", "Scoring mode: full|quick")
	cmd.Flags().StringVar(&ruleFile, "rules", "", "Operator rule file overriding the embedded rule set")
	cmd.Flags().StringVar(&excelPath, "excel", "", "Write the findings workbook to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

func runValidate(ctx context.Context, path, studyType, mode, ruleFile, excelPath string, asJSON bool) error {
	c, err := buildContainer(ruleFile)
	if err != nil {
		return err
	}
	defer c.Shutdown()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	res, err := c.Reviews.Review(ctx, app.ReviewRequest{
		Filename:  filepath.Base(path),
		Data:      data,
		StudyType: studyType,
		Mode:      validation.Mode(mode),
	})
	if err != nil {
		return err
	}

	if asJSON {
		out, err := json.MarshalIndent(res.Report, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Println(string(out))
	} else {
		fmt.Print(c.Renderer.Text(res.Report))
	}

	if excelPath != "" {
		if err := c.Reviews.ExportWorkbook(res.Report, excelPath); err != nil {
			return err
		}
		fmt.Printf("\nWorkbook written to %s\n", excelPath)
	}

	if res.Report.HasCritical() {
		c.Shutdown()
		os.Exit(1)
	}
	return nil
}

func newImproveCmd() *cobra.Command {
	var studyType string
	var mode string
	var ruleFile string
	var section string
	var all bool
	var maxSections int
	var outPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "improve [protocol-file]",
		Short: "Rewrite weak sections and re-score the document",
		Long: `Score a protocol, rewrite one section (or every targeted section with
--all) through the configured generator and report the score change.

Generator selection is controlled by:
- GENERATOR=openai|heuristic (default: heuristic)
- OPENAI_API_KEY when GENERATOR=openai

Example: protoval improve protocol.md --all --max-sections 3 --out improved.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMode(mode); err != nil {
				return err
			}
			if !all && section == "" {
				return fmt.Errorf("name a --section or pass --all")
			}
			return runImprove(cmd.Context(), args[0], improveOptions{
				studyType:   studyType,
				mode:        mode,
				ruleFile:    ruleFile,
				section:     section,
				all:         all,
				maxSections: maxSections,
				outPath:     outPath,
				asJSON:      asJSON,
			})
		},
	}

	cmd.Flags().StringVar(&studyType, "type", "", "Override the detected study type")
	cmd.Flags().StringVar(&mode, "mode", "", "Scoring mode: full|quick")
	cmd.Flags().StringVar(&ruleFile, "rules", "", "Operator rule file overriding the embedded rule set")
	cmd.Flags().StringVar(&section, "section", "", "Section to rewrite")
	cmd.Flags().BoolVar(&all, "all", false, "Rewrite every section on the improvement worklist")
	cmd.Flags().IntVar(&maxSections, "max-sections", 0, "Cap on sections rewritten with --all (0 = no cap)")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the improved document as markdown to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the final report as JSON")

	return cmd
}

type improveOptions struct {
	studyType   string
	mode        string
	ruleFile    string
	section     string
	all         bool
	maxSections int
	outPath     string
	asJSON      bool
}

func runImprove(ctx context.Context, path string, opts improveOptions) error {
	c, err := buildContainer(opts.ruleFile)
	if err != nil {
		return err
	}
	defer c.Shutdown()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	res, err := c.Reviews.Review(ctx, app.ReviewRequest{
		Filename:  filepath.Base(path),
		Data:      data,
		StudyType: opts.studyType,
		Mode:      validation.Mode(opts.mode),
	})
	if err != nil {
		return err
	}
	before := res.Report

	var doc *protocol.Document
	var after *validation.Report
	var rewritten []string

	if opts.all {
		imp, err := c.Improvements.ImproveAll(ctx, app.ImproveAllRequest{
			Document:    res.Document,
			Report:      before,
			MaxSections: opts.maxSections,
		})
		if err != nil {
			return err
		}
		doc, after = imp.Document, imp.Report
		for _, gen := range imp.Generations {
			rewritten = append(rewritten, gen.Section)
		}
	} else {
		imp, err := c.Improvements.ImproveSection(ctx, app.ImproveSectionRequest{
			Document: res.Document,
			Report:   before,
			Section:  opts.section,
		})
		if err != nil {
			return err
		}
		doc, after = imp.Document, imp.Report
		rewritten = []string{opts.section}
	}

	fmt.Printf("Rewrote %d section(s): %s\n", len(rewritten), strings.Join(rewritten, ", "))
	fmt.Printf("Overall score: %.1f%% -> %.1f%%\n", before.OverallPercent(), after.OverallPercent())
	fmt.Printf("Quality score: %.1f -> %.1f\n", before.QualityScore, after.QualityScore)

	if opts.asJSON {
		out, err := json.MarshalIndent(after, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Println(string(out))
	}

	if opts.outPath != "" {
		if err := os.WriteFile(opts.outPath, ingest.Markdown(doc), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", opts.outPath, err)
		}
		fmt.Printf("Improved document written to %s\n", opts.outPath)
	}
	return nil
}

func newTypesCmd() *cobra.Command {
	var ruleFile string

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the study types the rule set knows",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer(ruleFile)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			repo := c.Rules.Current()
			fmt.Printf("%-20s %-20s %s\n", "TYPE", "CATEGORY", "REQUIRED SECTIONS")
			for _, st := range repo.StudyTypes() {
				fmt.Printf("%-20s %-20s %d\n", st, st.Category(), len(repo.RequiredSections(st)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ruleFile, "rules", "", "Operator rule file overriding the embedded rule set")
	return cmd
}

func newRulesCmd() *cobra.Command {
	var ruleFile string

	cmd := &cobra.Command{
		Use:   "rules [study-type]",
		Short: "Show the section and field requirements for a study type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer(ruleFile)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			st := protocol.ParseStudyType(args[0])
			repo := c.Rules.Current()
			if !repo.KnownType(st) {
				return fmt.Errorf("unknown study type %q (try 'protoval types')", args[0])
			}

			fmt.Printf("Study type: %s", st)
			if cat := st.Category(); cat != "" {
				fmt.Printf(" (%s)", cat)
			}
			fmt.Println()

			fmt.Println("\nRequired sections:")
			for _, sec := range repo.RequiredSections(st) {
				fmt.Printf("  %s\n", sec)
				for _, field := range repo.RequiredFields(sec) {
					fmt.Printf("    - %s\n", field)
				}
			}

			if guidelines := repo.GuidelinesFor(st); len(guidelines) > 0 {
				fmt.Println("\nGuidelines:")
				for _, key := range guidelines {
					fmt.Printf("  %s\n", repo.GuidelineLabel(key))
				}
			}
			if focus, ok := repo.PhaseFocus(st); ok {
				fmt.Printf("\nPhase focus (%s):\n", focus.Label)
				for _, el := range focus.Elements {
					fmt.Printf("  %s\n", el)
				}
			}
			if terms := repo.ForbiddenTerms(st); len(terms) > 0 {
				fmt.Println("\nIncompatible design language:")
				for _, term := range terms {
					fmt.Printf("  %s\n", term)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ruleFile, "rules", "", "Operator rule file overriding the embedded rule set")
	return cmd
}

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect [protocol-file]",
		Short: "Parse a document and report its detected study type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			doc, err := ingest.NewReader().Parse(filepath.Base(path), data)
			if err != nil {
				return err
			}

			fmt.Printf("Study type: %s", doc.StudyType())
			if cat := doc.StudyType().Category(); cat != "" {
				fmt.Printf(" (%s)", cat)
			}
			fmt.Println()
			fmt.Printf("Sections (%d):\n", doc.Len())
			for _, name := range doc.Names() {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}
	return cmd
}
