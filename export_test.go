package figmacards_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	figmacards "github.com/kataras/figma-cards"
	"github.com/kataras/figma-cards/internal/figmatest"
	"github.com/kataras/figma-cards/pkg/config"
	"github.com/kataras/figma-cards/pkg/figma"
)

var exportNames = []string{"file", "styles", "components", "variables", "comments"}

func TestExport_WritesAllResources(t *testing.T) {
	srv := figmatest.New(t)
	srv.SetResource("file", `{"name":"Finance Dashboard","document":{"id":"0:0"}}`)

	dir := filepath.Join(t.TempDir(), "export")
	result, err := figmacards.Export(context.Background(), figmacards.ExportOptions{
		AccessToken: figmatest.Token,
		FileKey:     figmatest.FileKey,
		OutputDir:   dir,
		BaseURL:     srv.BaseURL(),
	})
	require.NoError(t, err)
	assert.NoError(t, result.VariablesErr)
	require.Len(t, result.Files, len(exportNames))

	for _, name := range exportNames {
		assert.FileExists(t, filepath.Join(dir, figmatest.FileKey+"-"+name+".json"))
	}

	data, err := os.ReadFile(filepath.Join(dir, figmatest.FileKey+"-file.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"Finance Dashboard\",\n  \"document\": {\n    \"id\": \"0:0\"\n  }\n}\n", string(data))
}

func TestExport_VariablesFailureIsDowngraded(t *testing.T) {
	srv := figmatest.New(t)
	srv.FailResource("variables", http.StatusForbidden)

	dir := t.TempDir()
	logger := &recordingLogger{}
	result, err := figmacards.Export(context.Background(), figmacards.ExportOptions{
		AccessToken: figmatest.Token,
		FileKey:     figmatest.FileKey,
		OutputDir:   dir,
		BaseURL:     srv.BaseURL(),
		Logger:      logger,
	})
	require.NoError(t, err)

	var fetchErr *figma.FetchError
	require.ErrorAs(t, result.VariablesErr, &fetchErr)
	assert.Equal(t, http.StatusForbidden, fetchErr.Status)

	var placeholder map[string]string
	readJSON(t, filepath.Join(dir, figmatest.FileKey+"-variables.json"), &placeholder)
	assert.Len(t, placeholder, 1)
	assert.Contains(t, placeholder["error"], "variables unavailable")
	assert.Len(t, logger.warns, 1)
}

func TestExport_OtherFailureWritesNothing(t *testing.T) {
	srv := figmatest.New(t)
	srv.FailResource("styles", http.StatusInternalServerError)

	dir := filepath.Join(t.TempDir(), "export")
	_, err := figmacards.Export(context.Background(), figmacards.ExportOptions{
		AccessToken: figmatest.Token,
		FileKey:     figmatest.FileKey,
		OutputDir:   dir,
		BaseURL:     srv.BaseURL(),
	})
	var fetchErr *figma.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusInternalServerError, fetchErr.Status)
	assert.Contains(t, err.Error(), "export styles")
	assert.NoDirExists(t, dir)
}

func TestExport_ConfigError(t *testing.T) {
	srv := figmatest.New(t)

	_, err := figmacards.Export(context.Background(), figmacards.ExportOptions{
		FileKey:   figmatest.FileKey,
		OutputDir: t.TempDir(),
		BaseURL:   srv.BaseURL(),
	})
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, config.EnvExportToken, cfgErr.Env)
	assert.Empty(t, srv.Requests())
}
