package figmacards

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kataras/figma-cards/pkg/config"
)

// ExportOptions configures a full-file export.
type ExportOptions struct {
	AccessToken string
	FileKey     string
	OutputDir   string // default "figma-export"
	BaseURL     string
	Logger      Logger
}

// ExportResult lists the files an export wrote.
type ExportResult struct {
	Files []string
	// VariablesErr is set when the variables endpoint failed and an error
	// placeholder was written in its place.
	VariablesErr error
}

type exportJob struct {
	name  string
	fetch func(ctx context.Context, fileKey string) (json.RawMessage, error)
}

// Export fetches the file document, styles, components, local variables and
// comments concurrently and writes each as <fileKey>-<name>.json.
//
// A variables failure (the endpoint needs an Enterprise plan) is written as
// {"error": "<message>"}. Any other failure fails the export and nothing is written.
func Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = config.DefaultExportDir
	}
	logOpts := &Options{Logger: opts.Logger}

	cfg := config.Config{ExportToken: opts.AccessToken, FileKey: opts.FileKey}
	if err := cfg.ValidateExport(); err != nil {
		return nil, err
	}

	client := newClient(opts.AccessToken, opts.BaseURL)
	jobs := []exportJob{
		{"file", client.GetFile},
		{"styles", client.GetFileStyles},
		{"components", client.GetFileComponents},
		{"variables", client.GetFileVariables},
		{"comments", client.GetComments},
	}

	logOpts.logInfo("Exporting file %s...", opts.FileKey)

	bodies := make([]json.RawMessage, len(jobs))
	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bodies[i], errs[i] = job.fetch(ctx, opts.FileKey)
		}()
	}
	wg.Wait()

	result := &ExportResult{}
	for i, job := range jobs {
		if errs[i] == nil {
			continue
		}
		if job.name == "variables" {
			logOpts.logWarn("Variables unavailable: %v", errs[i])
			result.VariablesErr = errs[i]
			placeholder, err := json.Marshal(map[string]string{"error": errs[i].Error()})
			if err != nil {
				return nil, err
			}
			bodies[i] = placeholder
			continue
		}
		return nil, fmt.Errorf("export %s: %w", job.name, errs[i])
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", opts.OutputDir, err)
	}

	for i, job := range jobs {
		var buf bytes.Buffer
		if err := json.Indent(&buf, bodies[i], "", "  "); err != nil {
			return nil, fmt.Errorf("format %s: %w", job.name, err)
		}
		buf.WriteByte('\n')

		path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s-%s.json", opts.FileKey, job.name))
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", job.name, err)
		}
		logOpts.logInfo("Wrote %s", path)
		result.Files = append(result.Files, path)
	}

	return result, nil
}
