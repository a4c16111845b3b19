package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docdraft/internal/agent"
	"docdraft/internal/applier"
	"docdraft/internal/config"
	"docdraft/internal/contextfile"
	"docdraft/internal/draft"
	"docdraft/internal/generator"
	"docdraft/internal/repoindex"
	"docdraft/internal/template"
	"docdraft/internal/trace"

	"github.com/spf13/cobra"
)

// Distinct exit codes so calling scripts can tell failure classes apart.
const (
	exitValidation = 2
	exitConfig     = 3
	exitDraftParse = 4
	exitApply      = 5
)

var (
	rootCmd = &cobra.Command{
		Use:   "docdraft",
		Short: "AI-assisted drafting of marked-up document templates",
	}
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(applyCmd)
}

func fail(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}

var validateCmd = &cobra.Command{
	Use:   "validate-template [template]",
	Short: "Parse a template and report marker and structure problems",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		parsed, err := template.ParseFile(args[0])
		if err != nil {
			fail(exitValidation, "❌ %v", err)
		}
		issues := template.Validate(parsed)
		if len(issues) > 0 {
			fmt.Fprintf(os.Stderr, "❌ Template %s has %d problem(s):\n", args[0], len(issues))
			for _, issue := range issues {
				fmt.Fprintf(os.Stderr, "  - %s\n", issue)
			}
			os.Exit(exitValidation)
		}

		fills := parsed.FillSections()
		fmt.Printf("✅ Template %s is valid (%s format).\n", args[0], parsed.Format)
		fmt.Printf("📑 %d sections, %d fillable:\n", len(parsed.Sections), len(fills))
		for _, s := range fills {
			fmt.Printf("  - %s (%s)\n", s.ID, s.Title)
		}
	},
}

var (
	draftRepoPath string
)

var draftCmd = &cobra.Command{
	Use:   "draft [template] [repo]",
	Short: "Generate a reviewable draft for every fillable template section",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		templatePath := args[0]
		repoPath := "."
		if len(args) > 1 {
			repoPath = args[1]
		}
		if draftRepoPath != "" {
			repoPath = draftRepoPath
		}

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			fail(exitConfig, "❌ Failed to load config: %v", err)
		}
		if err := cfg.ValidateForGeneration(); err != nil {
			fail(exitConfig, "❌ %v", err)
		}

		parsed, err := template.ParseFile(templatePath)
		if err != nil {
			fail(exitValidation, "❌ %v", err)
		}
		if issues := template.Validate(parsed); len(issues) > 0 {
			fmt.Fprintf(os.Stderr, "❌ Template %s has %d problem(s):\n", templatePath, len(issues))
			for _, issue := range issues {
				fmt.Fprintf(os.Stderr, "  - %s\n", issue)
			}
			os.Exit(exitValidation)
		}

		fmt.Printf("📂 Indexing codebase: %s\n", repoPath)
		idx, err := repoindex.Build(repoPath, cfg.Repo.Allowlist, cfg.Repo.Denylist, cfg.Repo.MaxFileBytes)
		if err != nil {
			fail(exitConfig, "❌ Failed to index codebase: %v", err)
		}
		fmt.Printf("✅ Indexed %d files.\n", idx.Len())

		items, err := contextfile.Load(cfg.ContextFile)
		if err != nil {
			fail(exitConfig, "❌ %v", err)
		}
		if len(items) > 0 {
			fmt.Printf("📎 Loaded %d context item(s) from %s.\n", len(items), cfg.ContextFile)
		}

		ctx := context.Background()
		collaborator, err := agent.NewAgent(ctx, agent.Options{
			Provider:     cfg.AI.Provider,
			APIKey:       cfg.AI.APIKey,
			Model:        cfg.AI.Model,
			BaseURL:      cfg.AI.BaseURL,
			Temperature:  cfg.AI.Temperature,
			SystemPrompt: generator.SystemPrompt,
		})
		if err != nil {
			fail(exitConfig, "❌ Failed to create agent: %v", err)
		}

		tracer := trace.NewCollector()
		runtime := agent.NewRuntime(collaborator, func(msg string) {
			fmt.Printf("   %s\n", msg)
		})
		runtime.SetTracer(tracer)

		orch := generator.NewOrchestrator(runtime)
		orch.Evidence = idx
		orch.Retries = cfg.Generation.Retries
		orch.Timeout = cfg.Generation.TimeoutSeconds
		orch.Tracer = tracer
		orch.Progress = func(msg string) { fmt.Printf("✍️  %s\n", msg) }

		doc, err := orch.GenerateDraft(ctx, parsed, items)
		if err != nil {
			fail(exitValidation, "❌ %v", err)
		}

		runDir, err := makeRunDir(cfg.OutputRoot, parsed.Stem)
		if err != nil {
			fail(exitConfig, "❌ %v", err)
		}
		if err := generator.WriteRunArtifacts(runDir, doc); err != nil {
			fail(exitConfig, "❌ %v", err)
		}
		if err := tracer.WriteJSON(filepath.Join(runDir, "trace.json")); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Failed to write trace.json: %v\n", err)
		}
		if err := tracer.WriteCSV(filepath.Join(runDir, "trace.csv")); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Failed to write trace.csv: %v\n", err)
		}

		merged := contextfile.Merge(items, doc.MissingItems())
		if err := contextfile.Write(merged, cfg.ContextFile); err != nil {
			fail(exitConfig, "❌ %v", err)
		}

		partials := doc.PartialSectionIDs()
		fmt.Printf("🎉 Draft complete: %d section(s), %d partial. Artifacts in %s\n",
			len(doc.Sections), len(partials), runDir)
		if len(partials) > 0 {
			fmt.Printf("📌 Answer open questions in %s and re-run draft or hand-edit %s.\n",
				cfg.ContextFile, filepath.Join(runDir, generator.DraftFileName))
		}
	},
}

var (
	applyOutputPath string
	applyForce      bool
)

var applyCmd = &cobra.Command{
	Use:   "apply [template] [draft]",
	Short: "Substitute a reviewed draft back into a fresh copy of the template",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		templatePath, draftPath := args[0], args[1]

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			fail(exitConfig, "❌ Failed to load config: %v", err)
		}

		doc, err := draft.ParseFile(draftPath)
		if err != nil {
			fail(exitDraftParse, "❌ %v", err)
		}

		outputPath := applyOutputPath
		if outputPath == "" {
			outputPath = filepath.Join(filepath.Dir(templatePath), "applied-"+filepath.Base(templatePath))
		}

		report, err := applier.Apply(templatePath, doc, outputPath, applier.Options{
			Force:            applyForce,
			ContextReference: cfg.ContextFile,
		})
		if err != nil {
			if errors.Is(err, applier.ErrAlreadyApplied) || errors.Is(err, template.ErrUnsupported) {
				fail(exitApply, "❌ %v", err)
			}
			fail(exitApply, "❌ Apply failed: %v", err)
		}

		fmt.Printf("🎉 Applied draft to %s\n", report.OutputPath)
		if len(report.UnresolvedSectionIDs) > 0 {
			fmt.Printf("📌 %d section(s) still unresolved:\n", len(report.UnresolvedSectionIDs))
			for _, id := range report.UnresolvedSectionIDs {
				fmt.Printf("  - %s\n", id)
			}
		}
	},
}

func init() {
	draftCmd.Flags().StringVar(&draftRepoPath, "repo", "", "Codebase root used for evidence gathering (defaults to the positional argument)")
	applyCmd.Flags().StringVarP(&applyOutputPath, "output", "o", "", "Destination path for the applied document")
	applyCmd.Flags().BoolVar(&applyForce, "force", false, "Re-apply even when the idempotency marker is present")
}

// makeRunDir creates outputs/<template>/<timestamp>, suffixing -2, -3, ...
// when two runs land in the same second.
func makeRunDir(root, stem string) (string, error) {
	base := filepath.Join(root, stem, time.Now().Format("20060102-150405"))
	dir := base
	for n := 2; ; n++ {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			break
		}
		dir = fmt.Sprintf("%s-%d", base, n)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory %s: %w", dir, err)
	}
	return dir, nil
}
