package imager

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kataras/figma-cards/pkg/figma"
	"github.com/kataras/figma-cards/pkg/slug"
)

// Renderer is the part of the Figma client the imager needs.
type Renderer interface {
	GetImages(ctx context.Context, fileKey string, nodeIDs []string, format string, scale float64) (*figma.ImagesResponse, error)
	Download(ctx context.Context, imageURL string, w io.Writer) error
}

// ExportConfig holds configuration for image export.
type ExportConfig struct {
	Format    string    // "png", "svg", "jpg", "pdf"
	Scales    []float64 // e.g., [1, 2] for raster; ignored for svg/pdf
	OutputDir string
}

// ExportedAsset represents a single rendered card image.
type ExportedAsset struct {
	NodeID   string
	NodeName string
	FileName string
	Format   string
	Scale    float64
}

// ExportResult holds the results of an image export operation.
type ExportResult struct {
	Assets []ExportedAsset
	Errors []error // non-fatal per-image failures
}

const maxNodesPerRequest = 100
const maxParallelDownloads = 5

// ValidFormat reports whether Figma can render to format.
func ValidFormat(format string) bool {
	switch format {
	case "png", "svg", "jpg", "pdf":
		return true
	}
	return false
}

// ExportImages renders nodes (ID -> name) and downloads the results into
// config.OutputDir, at most maxParallelDownloads at a time. A failed render
// request aborts; a failed download is recorded in ExportResult.Errors.
func ExportImages(ctx context.Context, r Renderer, fileKey string, nodes map[string]string, config ExportConfig) (*ExportResult, error) {
	if !ValidFormat(config.Format) {
		return nil, fmt.Errorf("invalid image format %q (must be png, svg, jpg, or pdf)", config.Format)
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q: %w", config.OutputDir, err)
	}

	result := &ExportResult{}
	usedNames := make(map[string]int)

	nodeIDs := make([]string, 0, len(nodes))
	for id := range nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	// Vector formats have no scale.
	scales := config.Scales
	if len(scales) == 0 || config.Format == "svg" || config.Format == "pdf" {
		scales = []float64{1}
	}

	for _, scale := range scales {
		for i := 0; i < len(nodeIDs); i += maxNodesPerRequest {
			end := min(i+maxNodesPerRequest, len(nodeIDs))
			batch := nodeIDs[i:end]

			imgResp, err := r.GetImages(ctx, fileKey, batch, config.Format, scale)
			if err != nil {
				return nil, fmt.Errorf("failed to get images from Figma API: %w", err)
			}

			var wg sync.WaitGroup
			sem := make(chan struct{}, maxParallelDownloads)
			var mu sync.Mutex

			for _, nodeID := range batch {
				imageURL := imgResp.Images[nodeID]
				if imageURL == "" {
					mu.Lock()
					result.Errors = append(result.Errors, fmt.Errorf("no image URL returned for node %s", nodeID))
					mu.Unlock()
					continue
				}

				nodeName := nodes[nodeID]
				fileName := uniqueName(usedNames, buildFileName(nodeName, nodeID, config.Format, scale))

				wg.Add(1)
				go func(nID, url, fileName string) {
					defer wg.Done()
					sem <- struct{}{}
					defer func() { <-sem }()

					destPath := filepath.Join(config.OutputDir, fileName)
					if err := downloadFile(ctx, r, url, destPath); err != nil {
						mu.Lock()
						result.Errors = append(result.Errors, fmt.Errorf("failed to download %s: %w", nodes[nID], err))
						mu.Unlock()
						return
					}

					mu.Lock()
					result.Assets = append(result.Assets, ExportedAsset{
						NodeID:   nID,
						NodeName: nodes[nID],
						FileName: fileName,
						Format:   config.Format,
						Scale:    scale,
					})
					mu.Unlock()
				}(nodeID, imageURL, fileName)
			}

			wg.Wait()
		}
	}

	sort.Slice(result.Assets, func(i, j int) bool { return result.Assets[i].FileName < result.Assets[j].FileName })
	return result, nil
}

// uniqueName suffixes -2, -3, ... onto names already handed out.
func uniqueName(used map[string]int, fileName string) string {
	count, exists := used[fileName]
	used[fileName] = count + 1
	if !exists {
		return fileName
	}
	ext := filepath.Ext(fileName)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(fileName, ext), count+1, ext)
}

// downloadFile saves a rendered image to destPath, removing partial files on failure.
func downloadFile(ctx context.Context, r Renderer, url, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file %q: %w", destPath, err)
	}

	if err := r.Download(ctx, url, f); err != nil {
		f.Close()
		os.Remove(destPath)
		return err
	}
	return f.Close()
}

// buildFileName names an image after its node slug, adding @2x/@3x for raster scales above 1.
func buildFileName(nodeName, nodeID, format string, scale float64) string {
	name := slug.OrFallback(nodeName, nodeID)

	scaleSuffix := ""
	if scale > 1 && format != "svg" && format != "pdf" {
		scaleSuffix = fmt.Sprintf("@%gx", scale)
	}

	return fmt.Sprintf("%s%s.%s", name, scaleSuffix, format)
}
