package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"teamslide-backend/internal/teamslides"
)

var outPath string

var generateCmd = &cobra.Command{
	Use:     "generate NAME NAME NAME NAME",
	Short:   "Generate a team slide for four consultants",
	Example: `  teamslide generate "Jane Doe" "John Smith" "Erika Muster" "Max Mustermann" --out team.pptx`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&outPath, "out", "o", teamslides.DownloadName, "Output file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	out, err := filepath.Abs(outPath)
	if err != nil {
		return err
	}
	svc, err := newService(filepath.Dir(out))
	if err != nil {
		return err
	}

	artifact, err := svc.Generate(cmd.Context(), args)
	if err != nil {
		return err
	}
	defer artifact.Close()

	if err := copyArtifact(artifact, out); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if artifact.Example {
		fmt.Fprintf(w, "wrote example slide to %s\n", out)
		return nil
	}
	fmt.Fprintf(w, "wrote %s (strategy %s, %d groups, %d changes)\n",
		out, artifact.Report.Strategy, artifact.Report.Groups, artifact.Report.Applied)
	for _, rec := range artifact.Records {
		status := rec.Source
		if rec.Defaulted {
			status = "placeholder"
		}
		fmt.Fprintf(w, "  %-30s %s\n", rec.Name, status)
	}
	for _, f := range artifact.Report.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", f)
	}
	return nil
}

func copyArtifact(a *teamslides.Artifact, dst string) error {
	src, err := a.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return f.Close()
}
