// Package figmacards turns Figma card frames into implementation-ready specs.
//
// For each requested node it fetches the subtree through the Figma REST API,
// walks it into a flat card specification (geometry, fills resolved against a
// design-token palette, typography), generates an HTML skeleton and an
// absolutely positioned stylesheet, and writes the result as JSON next to a
// summary.json index. The CLI lives in cmd/figma-cards; this root package
// exposes the same pipeline as a Go API.
//
// # Import
//
// The module path contains a hyphen but Go package names cannot, so the
// package is named figmacards:
//
//	import "github.com/kataras/figma-cards" // package figmacards
//
// # Quick start
//
//	result, err := figmacards.Run(ctx, figmacards.Options{
//	    AccessToken: os.Getenv("FIGMA_ACCESS_TOKEN"),
//	    FileKey:     "ABC123",
//	    NodeIDs:     []string{"10:1", "10:2"},
//	    OutputDir:   "cards",
//	    Report:      true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range result.Failed {
//	    log.Printf("%s: %s", f.ID, f.Error)
//	}
//
// A node that fails is recorded in [Result.Failed] and does not stop the
// batch. Missing settings are reported as a *config.ConfigError before any
// request is made.
//
// # Logging
//
// Pass a [Logger] implementation in [Options.Logger] to receive progress
// messages. A nil Logger silences all output.
//
// # Full-file export
//
// [Export] dumps the file document, styles, components, local variables and
// comments as pretty-printed JSON. It uses its own credential (FIGMA_TOKEN in
// the CLI) rather than the extractor's.
package figmacards
