package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	figmacards "github.com/kataras/figma-cards"
	"github.com/kataras/figma-cards/pkg/config"
	"github.com/kataras/figma-cards/pkg/figma"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const version = figma.Version

type globalFlags struct {
	configFile string
	envFile    string
	token      string
	fileKey    string
	output     string
}

type extractFlags struct {
	nodeIDs      string
	figmaURL     string
	palette      string
	report       bool
	preview      bool
	renderImages bool
	imageFormat  string
	imageScales  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:           "figma-cards",
		Short:         "Extract card specifications from Figma frames",
		Long:          "Fetch Figma card frames and write JSON specs with HTML skeletons and CSS, or export a whole file's JSON resources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.configFile, "config", "c", config.DefaultProjectFile, "YAML project file (ignored when missing)")
	pf.StringVar(&g.envFile, "env-file", config.DefaultEnvFile, ".env file to load (ignored when missing)")
	pf.StringVarP(&g.token, "token", "t", "", "Figma Personal Access Token (default from FIGMA_ACCESS_TOKEN for extract, FIGMA_TOKEN for export)")
	pf.StringVarP(&g.fileKey, "file-key", "f", "", "Figma file key")
	pf.StringVarP(&g.output, "output", "o", "", "Output directory")

	rootCmd.AddCommand(
		newExtractCmd(&g, stdout, stderr),
		newExportCmd(&g, stdout, stderr),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(stdout, "figma-cards version %s\n", version)
			},
		},
	)

	return rootCmd
}

// loadConfig resolves .env, environment and project file settings. Commands
// apply their arguments and flags on top.
func loadConfig(g *globalFlags) (config.Config, error) {
	if err := config.LoadDotEnv(g.envFile); err != nil {
		return config.Config{}, err
	}
	return config.Load(g.configFile)
}

func newExtractCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var f extractFlags

	cmd := &cobra.Command{
		Use:   "extract [fileKey] [nodeIDs]",
		Short: "Extract card specs for the given node IDs",
		Long: `Extract card specs for the given node IDs.

Each node is fetched, flattened into a card spec, and written to
<output>/<slug>.json with its HTML skeleton and CSS. A node that fails
is reported and skipped. summary.json lists what was written.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}

			if len(args) > 0 {
				cfg.FileKey = args[0]
			}
			if len(args) > 1 {
				cfg.NodeIDs = figmacards.ParseNodeIDs(args[1])
			}
			if f.figmaURL != "" {
				key, err := figma.ExtractFileKey(f.figmaURL)
				if err != nil {
					return &config.ConfigError{Setting: "Figma URL", Flag: "url", Msg: "is invalid: " + err.Error()}
				}
				cfg.FileKey = key
				urlIDs, err := figma.ExtractNodeIDs(f.figmaURL)
				if err != nil {
					return &config.ConfigError{Setting: "Figma URL", Flag: "url", Msg: "is invalid: " + err.Error()}
				}
				if len(urlIDs) > 0 {
					cfg.NodeIDs = urlIDs
				}
			}
			if cmd.Flags().Changed("file-key") {
				cfg.FileKey = g.fileKey
			}
			if f.nodeIDs != "" {
				cfg.NodeIDs = figmacards.ParseNodeIDs(f.nodeIDs)
			}
			if g.token != "" {
				cfg.ExtractToken = g.token
			}
			if g.output != "" {
				cfg.OutputDir = g.output
			}
			if f.palette != "" {
				cfg.PalettePath = f.palette
			}

			if err := cfg.ValidateExtract(); err != nil {
				return err
			}
			pal, err := cfg.ResolvePalette()
			if err != nil {
				return err
			}
			scales, err := figmacards.ParseScales(f.imageScales)
			if err != nil {
				return err
			}

			return runExtract(cmd.Context(), stdout, stderr, figmacards.Options{
				AccessToken:  cfg.ExtractToken,
				FileKey:      cfg.FileKey,
				NodeIDs:      cfg.NodeIDs,
				OutputDir:    cfg.OutputDir,
				Palette:      pal,
				BaseURL:      cfg.BaseURL,
				Report:       f.report,
				Preview:      f.preview,
				RenderImages: f.renderImages,
				ImageFormat:  f.imageFormat,
				ImageScales:  scales,
				Logger:       &cliLogger{out: stdout, errOut: stderr},
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.nodeIDs, "node-ids", "n", "", "Comma-separated node IDs (default from FIGMA_NODE_IDS or the project file)")
	flags.StringVarP(&f.figmaURL, "url", "u", "", "Figma file URL; supplies the file key and any node-id in it")
	flags.StringVar(&f.palette, "palette", "", "YAML palette file mapping hex colors to CSS tokens")
	flags.BoolVar(&f.report, "report", false, "Also write REPORT.md")
	flags.BoolVar(&f.preview, "preview", false, "Also write preview.html")
	flags.BoolVar(&f.renderImages, "render-images", false, "Render each card image into <output>/images")
	flags.StringVar(&f.imageFormat, "image-format", "png", "Image format: png, svg, jpg, pdf")
	flags.StringVar(&f.imageScales, "image-scales", "1", "Comma-separated scale factors (e.g. \"1,2\")")

	return cmd
}

func runExtract(ctx context.Context, stdout, stderr io.Writer, opts figmacards.Options) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	cyan.Fprintln(stdout, "\n🎨 Figma Card Extractor")
	cyan.Fprintln(stdout, "=======================")
	cyan.Fprintln(stdout)

	result, err := figmacards.Run(ctx, opts)
	if err != nil {
		return err
	}

	cyan.Fprintln(stdout, "\n📊 Extraction Summary:")
	for _, c := range result.Cards {
		fmt.Fprintf(stdout, "  • %s (%s): %d children, %d colors, %d text styles -> %s\n",
			c.Name, c.ID, len(c.Children), len(c.Colors), len(c.Typography), c.File)
	}
	for _, f := range result.Failed {
		red.Fprintf(stderr, "  ✗ %s: %s\n", f.ID, f.Error)
	}
	if len(result.Images) > 0 {
		fmt.Fprintf(stdout, "  • Rendered images: %d\n", len(result.Images))
	}

	green.Fprintf(stdout, "\n✨ Wrote %d of %d card(s) to %s\n\n", len(result.Cards), len(opts.NodeIDs), opts.OutputDir)
	return nil
}

func newExportCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "export [fileKey]",
		Short: "Export a file's document, styles, components, variables and comments as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.FileKey = args[0]
			}
			if cmd.Flags().Changed("file-key") {
				cfg.FileKey = g.fileKey
			}
			if g.token != "" {
				cfg.ExportToken = g.token
			}
			if g.output != "" {
				cfg.ExportDir = g.output
			}
			if err := cfg.ValidateExport(); err != nil {
				return err
			}

			result, err := figmacards.Export(cmd.Context(), figmacards.ExportOptions{
				AccessToken: cfg.ExportToken,
				FileKey:     cfg.FileKey,
				OutputDir:   cfg.ExportDir,
				BaseURL:     cfg.BaseURL,
				Logger:      &cliLogger{out: stdout, errOut: stderr},
			})
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(stdout, "\n✨ Exported %d file(s) to %s\n\n", len(result.Files), cfg.ExportDir)
			return nil
		},
	}
}

// cliLogger implements figmacards.Logger with colored terminal output.
type cliLogger struct {
	out    io.Writer
	errOut io.Writer
}

func (l *cliLogger) Infof(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(l.out, format+"\n", args...)
}

func (l *cliLogger) Warnf(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(l.out, "⚠ "+format+"\n", args...)
}

func (l *cliLogger) Errorf(format string, args ...any) {
	color.New(color.FgRed).Fprintf(l.errOut, "✗ "+format+"\n", args...)
}
