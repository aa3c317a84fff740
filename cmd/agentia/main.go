package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nuworks/agentia/internal/config"
	"github.com/nuworks/agentia/internal/document"
	"github.com/nuworks/agentia/internal/llm"
	"github.com/nuworks/agentia/internal/order"
	"github.com/nuworks/agentia/internal/pipeline"
	"github.com/nuworks/agentia/internal/script"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "agentia: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agentia",
		Short: "Order intake tools for narrated company videos",
		Long: `agentia extracts text from company profiles, drafts narration scripts with the configured
generation backend, and packages finished orders for the video-production team.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()})))
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
	}
	cmd.AddCommand(
		newExtractCmd(),
		newGenerateCmd(),
		newPackageCmd(),
		newCatalogCmd(),
	)
	return cmd
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(configKey{}).(*config.Config)
	return cfg
}

func readDocument(path string) (*document.Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return document.NewDocument(filepath.Base(path), data)
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text extracted from a PDF or PPTX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			res := document.NewTextExtractor().Extract(cmd.Context(), doc)
			if res.Empty() {
				fmt.Fprintf(cmd.ErrOrStderr(), "no text found in %s\n", doc.Filename)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Content)
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var targetChars int
	var provider, model string
	cmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Draft a narration script from a company profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			if err := cfg.Validate(); err != nil {
				return err
			}
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			style := script.StyleFromConfig(cfg.Script)
			if targetChars > 0 {
				style.TargetChars = targetChars
			}

			text := document.NewTextExtractor().Extract(cmd.Context(), doc)
			gen := script.NewGenerator(llm.NewGateway(cfg.LLM), cfg.Script).WithModel(provider, model)
			res := gen.Generate(cmd.Context(), text.Content, style)
			if !res.OK() {
				return errors.New(res.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Script)
			return nil
		},
	}
	cmd.Flags().IntVar(&targetChars, "target-chars", 0, "Approximate script length in characters")
	cmd.Flags().StringVar(&provider, "provider", "", "Generation backend (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&model, "model", "", "Model name for the selected backend")
	return cmd
}

func newPackageCmd() *cobra.Command {
	var fields order.FormFields
	var scriptFile, docPath, logoPath, out string
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Write the order archive for a finished script",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)

			finalScript, err := os.ReadFile(scriptFile)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			doc, err := readDocument(docPath)
			if err != nil {
				return err
			}
			var logo *document.Asset
			if logoPath != "" {
				data, err := os.ReadFile(logoPath)
				if err != nil {
					return fmt.Errorf("read logo: %w", err)
				}
				logo = document.NewImage(filepath.Base(logoPath), data)
			}

			svc, err := pipeline.FromConfig(cfg, nil, nil)
			if err != nil {
				return err
			}
			o, err := svc.Finalize(cmd.Context(), fields, string(finalScript), logo, doc)
			if err != nil {
				return err
			}

			if out == "" {
				out = o.Archive.Filename
			}
			if err := os.WriteFile(out, o.Archive.Data, 0o644); err != nil {
				return fmt.Errorf("write archive: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "wrote %s (%d bytes)\n", out, len(o.Archive.Data))
			if o.Location != "" {
				fmt.Fprintf(w, "delivered to %s\n", o.Location)
			}
			if o.DropURL != "" {
				fmt.Fprintf(w, "upload to %s\n", o.DropURL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fields.ProjectID, "project-id", "", "Project identifier")
	cmd.Flags().StringVar(&fields.CompanyName, "company", "", "Company name")
	cmd.Flags().StringVar(&fields.BackgroundID, "background", "", "Background key")
	cmd.Flags().StringVar(&fields.AvatarID, "avatar", "", "Avatar key")
	cmd.Flags().StringVar(&fields.BGMID, "bgm", "", "Background music key")
	cmd.Flags().StringVar(&scriptFile, "script-file", "", "File holding the final script")
	cmd.Flags().StringVar(&docPath, "document", "", "Company profile (PDF or PPTX)")
	cmd.Flags().StringVar(&logoPath, "logo", "", "Logo image")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Archive path (defaults to the order filename)")
	cmd.MarkFlagRequired("script-file")
	cmd.MarkFlagRequired("document")
	return cmd
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the background, avatar and BGM catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := order.LoadCatalog(configFrom(cmd).Catalog.Path)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(catalog.Listing())
		},
	}
}
