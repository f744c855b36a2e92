package figmacards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kataras/figma-cards/pkg/config"
	"github.com/kataras/figma-cards/pkg/extractor"
	"github.com/kataras/figma-cards/pkg/figma"
	"github.com/kataras/figma-cards/pkg/formatter"
	"github.com/kataras/figma-cards/pkg/generator"
	"github.com/kataras/figma-cards/pkg/imager"
	"github.com/kataras/figma-cards/pkg/palette"
)

// Output file names inside Options.OutputDir.
const (
	SummaryFile = "summary.json"
	ReportFile  = "REPORT.md"
	PreviewFile = "preview.html"
	ImagesDir   = "images"
)

// ErrNodeNotFound is returned (wrapped) when the API response does not carry a requested node.
var ErrNodeNotFound = errors.New("node not found")

// Options configures a batch extraction.
type Options struct {
	AccessToken string
	FileKey     string
	NodeIDs     []string // processed in order, one request each
	OutputDir   string   // default "figma-cards"
	Palette     *palette.Palette
	BaseURL     string // empty = api.figma.com

	Report       bool // write REPORT.md
	Preview      bool // write preview.html
	RenderImages bool // render each card into OutputDir/images
	ImageFormat  string
	ImageScales  []float64

	Logger Logger // nil = no logging
}

// Logger receives progress messages. A nil Logger means silent operation.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// CardFile is the document written per card: the card spec plus its generated markup.
type CardFile struct {
	*extractor.CardSpec
	HTML string `json:"html"`
	CSS  string `json:"css"`
}

// Summary is written to summary.json after every run.
type Summary struct {
	FileKey     string           `json:"fileKey"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Cards       []SummaryCard    `json:"cards"`
	Failed      []SummaryFailure `json:"failed"`
}

// SummaryCard is the summary line for one written card.
type SummaryCard struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	File            string `json:"file"`
	ChildCount      int    `json:"childCount"`
	ColorCount      int    `json:"colorCount"`
	TypographyCount int    `json:"typographyCount"`
}

// SummaryFailure records a node ID that produced no card.
type SummaryFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Card is one successfully extracted card and where it was written.
type Card struct {
	File string // relative to OutputDir
	CardFile
}

// Result contains the batch output.
type Result struct {
	FileKey  string
	FileName string // Figma file name, from the first successful response
	Cards    []Card
	Failed   []SummaryFailure
	Summary  *Summary
	Images   []imager.ExportedAsset
}

func (o *Options) logInfo(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Infof(f, a...)
	}
}

func (o *Options) logWarn(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Warnf(f, a...)
	}
}

func (o *Options) logError(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Errorf(f, a...)
	}
}

// Run extracts every node in opts.NodeIDs into OutputDir.
//
// Missing settings fail with a *config.ConfigError before any request is made.
// After that, a node that cannot be fetched, found or written is logged and
// recorded in Result.Failed, and the remaining nodes are still processed.
// The returned error is reserved for problems that affect the whole run, such
// as an unwritable output directory or a cancelled context.
func Run(ctx context.Context, opts Options) (*Result, error) {
	// Apply defaults.
	if opts.OutputDir == "" {
		opts.OutputDir = config.DefaultOutputDir
	}
	if opts.ImageFormat == "" {
		opts.ImageFormat = "png"
	}
	if opts.Palette == nil {
		opts.Palette = palette.Default()
	}

	cfg := config.Config{ExtractToken: opts.AccessToken, FileKey: opts.FileKey, NodeIDs: opts.NodeIDs}
	if err := cfg.ValidateExtract(); err != nil {
		return nil, err
	}
	if opts.RenderImages && !imager.ValidFormat(opts.ImageFormat) {
		return nil, &config.ConfigError{Setting: "image format " + strconv.Quote(opts.ImageFormat), Flag: "image-format", Msg: "is invalid (must be png, svg, jpg, or pdf)"}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", opts.OutputDir, err)
	}

	client := newClient(opts.AccessToken, opts.BaseURL)
	result := &Result{FileKey: opts.FileKey}

	opts.logInfo("Extracting %d card(s) from file %s...", len(opts.NodeIDs), opts.FileKey)
	for _, nodeID := range opts.NodeIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		opts.logInfo("Fetching node %s...", nodeID)
		card, fileName, err := extractCard(ctx, client, &opts, nodeID)
		if err != nil {
			opts.logError("Node %s: %v", nodeID, err)
			result.Failed = append(result.Failed, SummaryFailure{ID: nodeID, Error: err.Error()})
			continue
		}
		if result.FileName == "" {
			result.FileName = fileName
		}
		opts.logInfo("Wrote %s (%d children)", card.File, len(card.Children))
		result.Cards = append(result.Cards, *card)
	}

	result.Summary = buildSummary(result)
	summaryPath := filepath.Join(opts.OutputDir, SummaryFile)
	if err := writeJSONFile(summaryPath, result.Summary); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	opts.logInfo("Wrote %s: %d card(s), %d failed", summaryPath, len(result.Cards), len(result.Failed))

	if opts.Report || opts.Preview {
		writeReport(&opts, result)
	}
	if opts.RenderImages && len(result.Cards) > 0 {
		result.Images = renderImages(ctx, client, &opts, result)
	}

	return result, nil
}

// extractCard runs fetch, walk, generate and write for a single node.
func extractCard(ctx context.Context, client *figma.Client, opts *Options, nodeID string) (*Card, string, error) {
	resp, err := client.GetFileNodes(ctx, opts.FileKey, []string{nodeID})
	if err != nil {
		return nil, "", err
	}

	data, ok := resp.Nodes[nodeID]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s in file %s", ErrNodeNotFound, nodeID, opts.FileKey)
	}

	spec := extractor.Extract(&data.Document, opts.Palette)
	card := &Card{
		File: spec.Slug + ".json",
		CardFile: CardFile{
			CardSpec: spec,
			HTML:     generator.HTML(spec),
			CSS:      generator.CSS(spec),
		},
	}

	if err := writeJSONFile(filepath.Join(opts.OutputDir, card.File), card.CardFile); err != nil {
		return nil, "", fmt.Errorf("write card: %w", err)
	}
	return card, resp.Name, nil
}

func buildSummary(result *Result) *Summary {
	s := &Summary{
		FileKey:     result.FileKey,
		GeneratedAt: time.Now().UTC(),
		Cards:       make([]SummaryCard, 0, len(result.Cards)),
		Failed:      make([]SummaryFailure, 0, len(result.Failed)),
	}
	for _, c := range result.Cards {
		s.Cards = append(s.Cards, SummaryCard{
			ID:              c.ID,
			Name:            c.Name,
			File:            c.File,
			ChildCount:      len(c.Children),
			ColorCount:      len(c.Colors),
			TypographyCount: len(c.Typography),
		})
	}
	s.Failed = append(s.Failed, result.Failed...)
	return s
}

// writeReport writes REPORT.md and/or preview.html. Failures are warnings.
func writeReport(opts *Options, result *Result) {
	report := formatter.Report{
		FileName: result.FileName,
		FileKey:  result.FileKey,
	}
	for _, c := range result.Cards {
		report.Cards = append(report.Cards, formatter.Card{Spec: c.CardSpec, File: c.File, CSS: c.CSS})
	}
	for _, f := range result.Failed {
		report.Failed = append(report.Failed, formatter.Failure{NodeID: f.ID, Err: f.Error})
	}

	md := formatter.ToMarkdown(report)

	if opts.Report {
		path := filepath.Join(opts.OutputDir, ReportFile)
		if err := os.WriteFile(path, []byte(md), 0644); err != nil {
			opts.logWarn("Could not write report: %v", err)
		} else {
			opts.logInfo("Wrote %s", path)
		}
	}

	if opts.Preview {
		title := "Card Specifications - " + result.FileKey
		if result.FileName != "" {
			title = "Card Specifications - " + result.FileName
		}
		page, err := formatter.ToHTML(title, md)
		if err != nil {
			opts.logWarn("Could not render preview: %v", err)
			return
		}
		path := filepath.Join(opts.OutputDir, PreviewFile)
		if err := os.WriteFile(path, []byte(page), 0644); err != nil {
			opts.logWarn("Could not write preview: %v", err)
			return
		}
		opts.logInfo("Wrote %s", path)
	}
}

// renderImages renders every extracted card. Failures are warnings.
func renderImages(ctx context.Context, client *figma.Client, opts *Options, result *Result) []imager.ExportedAsset {
	nodes := make(map[string]string, len(result.Cards))
	for _, c := range result.Cards {
		nodes[c.ID] = c.Name
	}

	dir := filepath.Join(opts.OutputDir, ImagesDir)
	opts.logInfo("Rendering %d card image(s) to %s...", len(nodes), dir)

	exported, err := imager.ExportImages(ctx, client, opts.FileKey, nodes, imager.ExportConfig{
		Format:    opts.ImageFormat,
		Scales:    opts.ImageScales,
		OutputDir: dir,
	})
	if err != nil {
		opts.logWarn("Rendering images failed: %v", err)
		return nil
	}
	for _, dlErr := range exported.Errors {
		opts.logWarn("%v", dlErr)
	}
	opts.logInfo("Rendered %d image(s)", len(exported.Assets))
	return exported.Assets
}

func newClient(token, baseURL string) *figma.Client {
	var clientOpts []figma.Option
	if baseURL != "" {
		clientOpts = append(clientOpts, figma.WithBaseURL(baseURL))
	}
	return figma.NewClient(token, clientOpts...)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// ParseScales parses a comma-separated string of scale factors into a float64 slice.
func ParseScales(scalesStr string) ([]float64, error) {
	parts := config.SplitList(scalesStr)
	scales := make([]float64, 0, len(parts))

	for _, part := range parts {
		s, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid scale value %q: %w", part, err)
		}
		if s <= 0 {
			return nil, fmt.Errorf("scale value must be positive, got %g", s)
		}
		scales = append(scales, s)
	}

	if len(scales) == 0 {
		return []float64{1}, nil
	}

	return scales, nil
}

// ParseNodeIDs parses a comma-separated list of node IDs. URL-style IDs
// ("1-2") are normalized to API form ("1:2") and repeats are dropped.
func ParseNodeIDs(nodeIDsStr string) []string {
	parts := config.SplitList(nodeIDsStr)
	for i, id := range parts {
		if !strings.Contains(id, ":") {
			parts[i] = strings.ReplaceAll(id, "-", ":")
		}
	}
	return figma.DeduplicateNodeIDs(parts)
}
