package figmacards_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	figmacards "github.com/kataras/figma-cards"
	"github.com/kataras/figma-cards/internal/figmatest"
	"github.com/kataras/figma-cards/pkg/config"
	"github.com/kataras/figma-cards/pkg/figma"
	"github.com/kataras/figma-cards/pkg/palette"
)

type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (l *recordingLogger) Infof(f string, a ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(f, a...))
}

func (l *recordingLogger) Warnf(f string, a ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(f, a...))
}

func (l *recordingLogger) Errorf(f string, a ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(f, a...))
}

func balanceCard() figma.Node {
	return figma.Node{
		ID:                  "10:1",
		Name:                "Balance Card",
		Type:                figma.NodeFrame,
		CornerRadius:        16,
		Fills:               []figma.Paint{{Type: figma.PaintSolid, Color: &figma.Color{R: 1, G: 1, B: 1, A: 1}}},
		AbsoluteBoundingBox: &figma.Rectangle{X: 0, Y: 0, Width: 320, Height: 180},
		Children: []figma.Node{
			{
				ID:                  "10:2",
				Name:                "Bar",
				Type:                figma.NodeRectangle,
				AbsoluteBoundingBox: &figma.Rectangle{X: 10, Y: 10, Width: 100, Height: 20},
			},
			{
				ID:         "10:3",
				Name:       "Label",
				Type:       figma.NodeText,
				Characters: "Balance",
				Style:      &figma.TypeStyle{FontSize: 24, FontWeight: 700},
			},
		},
	}
}

func spendingCard() figma.Node {
	return figma.Node{
		ID:   "20:1",
		Name: "Spending Card",
		Type: figma.NodeFrame,
		Children: []figma.Node{
			{ID: "20:2", Name: "Title", Type: figma.NodeText, Characters: "Spending"},
		},
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestRun_WritesCardsAndSummary(t *testing.T) {
	srv := figmatest.New(t)
	srv.AddNode(balanceCard())
	srv.AddNode(spendingCard())

	dir := t.TempDir()
	result, err := figmacards.Run(context.Background(), figmacards.Options{
		AccessToken: figmatest.Token,
		FileKey:     figmatest.FileKey,
		NodeIDs:     []string{"10:1", "20:1"},
		OutputDir:   dir,
		BaseURL:     srv.BaseURL(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Finance Dashboard", result.FileName)
	require.Len(t, result.Cards, 2)
	assert.Empty(t, result.Failed)

	var card map[string]any
	readJSON(t, filepath.Join(dir, "balance-card.json"), &card)
	assert.Equal(t, "10:1", card["id"])
	assert.Equal(t, "balance-card", card["slug"])
	assert.Len(t, card["children"], 2)
	assert.Contains(t, card["css"], "border-radius: 16px;")
	assert.Contains(t, card["css"], "font-size: 24px;")
	assert.Contains(t, card["css"], "font-weight: 700;")
	assert.Contains(t, card["html"], `<span class="label">Balance</span>`)

	var summary figmacards.Summary
	readJSON(t, filepath.Join(dir, figmacards.SummaryFile), &summary)
	assert.Equal(t, figmatest.FileKey, summary.FileKey)
	assert.False(t, summary.GeneratedAt.IsZero())
	assert.Equal(t, []figmacards.SummaryCard{
		{ID: "10:1", Name: "Balance Card", File: "balance-card.json", ChildCount: 2, ColorCount: 1, TypographyCount: 1},
		{ID: "20:1", Name: "Spending Card", File: "spending-card.json", ChildCount: 1, ColorCount: 0, TypographyCount: 1},
	}, summary.Cards)
	assert.Empty(t, summary.Failed)
}

func TestRun_FailedNodeDoesNotStopBatch(t *testing.T) {
	srv := figmatest.New(t)
	srv.AddNode(balanceCard())
	srv.AddNode(spendingCard())
	srv.FailNode("10:1", http.StatusForbidden)

	dir := t.TempDir()
	logger := &recordingLogger{}
	result, err := figmacards.Run(context.Background(), figmacards.Options{
		AccessToken: figmatest.Token,
		FileKey:     figmatest.FileKey,
		NodeIDs:     []string{"10:1", "20:1"},
		OutputDir:   dir,
		BaseURL:     srv.BaseURL(),
		Logger:      logger,
	})
	require.NoError(t, err)

	require.Len(t, result.Cards, 1)
	assert.Equal(t, "20:1", result.Cards[0].ID)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "10:1", result.Failed[0].ID)
	assert.Contains(t, result.Failed[0].Error, "403")

	assert.NoFileExists(t, filepath.Join(dir, "balance-card.json"))
	assert.FileExists(t, filepath.Join(dir, "spending-card.json"))

	require.Len(t, logger.errors, 1)
	assert.Contains(t, logger.errors[0], "10:1")

	var summary figmacards.Summary
	readJSON(t, filepath.Join(dir, figmacards.SummaryFile), &summary)
	require.Len(t, summary.Cards, 1)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "10:1", summary.Failed[0].ID)
}

func TestRun_MissingNode(t *testing.T) {
	srv := figmatest.New(t)

	result, err := figmacards.Run(context.Background(), figmacards.Options{
		AccessToken: figmatest.Token,
		FileKey:     figmatest.FileKey,
		NodeIDs:     []string{"99:1"},
		OutputDir:   t.TempDir(),
		BaseURL:     srv.BaseURL(),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Cards)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].Error, figmacards.ErrNodeNotFound.Error())
}

func TestRun_ConfigErrorBeforeNetwork(t *testing.T) {
	srv := figmatest.New(t)

	tests := []struct {
		name string
		opts figmacards.Options
	}{
		{name: "no token", opts: figmacards.Options{FileKey: figmatest.FileKey, NodeIDs: []string{"10:1"}}},
		{name: "no file key", opts: figmacards.Options{AccessToken: figmatest.Token, NodeIDs: []string{"10:1"}}},
		{name: "no node IDs", opts: figmacards.Options{AccessToken: figmatest.Token, FileKey: figmatest.FileKey}},
		{name: "bad image format", opts: figmacards.Options{AccessToken: figmatest.Token, FileKey: figmatest.FileKey, NodeIDs: []string{"10:1"}, RenderImages: true, ImageFormat: "gif"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.BaseURL = srv.BaseURL()
			tt.opts.OutputDir = filepath.Join(t.TempDir(), "out")

			_, err := figmacards.Run(context.Background(), tt.opts)
			var cfgErr *config.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.NoDirExists(t, tt.opts.OutputDir)
		})
	}

	assert.Empty(t, srv.Requests())
}

func TestRun_CustomPalette(t *testing.T) {
	srv := figmatest.New(t)
	srv.AddNode(balanceCard())

	pal, err := palette.New([]palette.Entry{{Hex: "#ffffff", Token: "var(--surface)"}})
	require.NoError(t, err)

	result, err := figmacards.Run(context.Background(), figmacards.Options{
		AccessToken: figmatest.Token,
		FileKey:     figmatest.FileKey,
		NodeIDs:     []string{"10:1"},
		OutputDir:   t.TempDir(),
		BaseURL:     srv.BaseURL(),
		Palette:     pal,
	})
	require.NoError(t, err)
	require.Len(t, result.Cards, 1)
	assert.Equal(t, "var(--surface)", result.Cards[0].Styles.Background)
}

func TestRun_OptionalOutputs(t *testing.T) {
	srv := figmatest.New(t)
	srv.AddNode(balanceCard())
	srv.AddNode(spendingCard())
	srv.SetImage("10:1", []byte("balance-png"))

	dir := t.TempDir()
	logger := &recordingLogger{}
	result, err := figmacards.Run(context.Background(), figmacards.Options{
		AccessToken:  figmatest.Token,
		FileKey:      figmatest.FileKey,
		NodeIDs:      []string{"10:1", "20:1"},
		OutputDir:    dir,
		BaseURL:      srv.BaseURL(),
		Report:       true,
		Preview:      true,
		RenderImages: true,
		Logger:       logger,
	})
	require.NoError(t, err)

	report, err := os.ReadFile(filepath.Join(dir, figmacards.ReportFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(report), "# Card Specifications - Finance Dashboard"))

	preview, err := os.ReadFile(filepath.Join(dir, figmacards.PreviewFile))
	require.NoError(t, err)
	assert.Contains(t, string(preview), "<table>")

	// The spending card has no rendered image: a warning, not a failure.
	require.Len(t, result.Images, 1)
	assert.Equal(t, "balance-card.png", result.Images[0].FileName)
	assert.FileExists(t, filepath.Join(dir, figmacards.ImagesDir, "balance-card.png"))
	assert.NotEmpty(t, logger.warns)
	assert.Empty(t, result.Failed)
}

func TestRun_CancelledContext(t *testing.T) {
	srv := figmatest.New(t)
	srv.AddNode(balanceCard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := figmacards.Run(ctx, figmacards.Options{
		AccessToken: figmatest.Token,
		FileKey:     figmatest.FileKey,
		NodeIDs:     []string{"10:1"},
		OutputDir:   t.TempDir(),
		BaseURL:     srv.BaseURL(),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, srv.Requests())
}

func TestParseNodeIDs(t *testing.T) {
	assert.Equal(t, []string{"1:2", "3:4"}, figmacards.ParseNodeIDs(" 1:2, 3-4 ,1-2,,"))
	assert.Empty(t, figmacards.ParseNodeIDs(""))
}

func TestParseScales(t *testing.T) {
	scales, err := figmacards.ParseScales("1, 2,3")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, scales)

	scales, err = figmacards.ParseScales("")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, scales)

	_, err = figmacards.ParseScales("0")
	assert.Error(t, err)
	_, err = figmacards.ParseScales("x")
	assert.Error(t, err)
}
