// Command teamslide runs the team slide pipeline offline against a local CV directory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"teamslide-backend/internal/shared/config"
	"teamslide-backend/internal/shared/storage/object/local"
	"teamslide-backend/internal/shared/telemetry"
	"teamslide-backend/internal/teamslides"
	"teamslide-backend/slide/rules"
)

var (
	cvDir        string
	templatePath string
	examplePath  string
	rulesPath    string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "teamslide",
	Short: "Build consultant team slides from CV presentations",
	Long: `teamslide resolves each consultant's CV presentation, extracts name, role,
location, experience and headshot, and binds them into the team slide template.

Defaults come from the same environment variables as the API server
(CV_DIR, TEMPLATE_PATH, EXAMPLE_OUTPUT_PATH, SLIDE_RULES_PATH).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logCfg := zap.NewProductionConfig()
		logCfg.OutputPaths = []string{"stderr"}
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err := logCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		telemetry.SetLogger(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		telemetry.Sync()
	},
}

func init() {
	cfg := config.Load()
	rootCmd.PersistentFlags().StringVar(&cvDir, "cv-dir", cfg.CVDir, "Directory holding CV presentations")
	rootCmd.PersistentFlags().StringVar(&templatePath, "template", cfg.TemplatePath, "Team slide template (.pptx)")
	rootCmd.PersistentFlags().StringVar(&examplePath, "example", cfg.ExamplePath, "Pre-generated example slide (.pptx)")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", cfg.RulesPath, "YAML file overriding the built-in slide rules")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(listCVsCmd)
	rootCmd.AddCommand(inspectCmd)
}

// newService builds the pipeline from the global flags.
func newService(outputDir string) (*teamslides.Service, error) {
	r, err := rules.Load(rulesPath)
	if err != nil {
		return nil, err
	}
	return teamslides.NewService(r, local.New(cvDir), teamslides.Paths{
		Template:  templatePath,
		Example:   examplePath,
		OutputDir: outputDir,
	}), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
