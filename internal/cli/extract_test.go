package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePNG writes a 2x2 image of three red pixels and one blue one.
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{B: 255, A: 255})

	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return p
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestExtractJSON(t *testing.T) {
	path := writePNG(t, t.TempDir(), "quad.png")

	out, _, err := execute(t, "extract", "--scale", "1", "--clusters", "2", "--format", "json", path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, path, got["source"])
	assert.Equal(t, "rgb(255, 0, 0)", got["colour"])
	assert.NotContains(t, got, "error")

	presentation := got["presentation"].(map[string]any)
	assert.Equal(t, "rgb(255, 0, 0)", presentation["background"])
	assert.Equal(t, "#fff", presentation["textColour"])
	assert.Equal(t, "ab-dark", presentation["lumaClass"])
}

func TestExtractText(t *testing.T) {
	path := writePNG(t, t.TempDir(), "quad.png")

	out, _, err := execute(t, "extract", "--scale", "1", "-k", "2",
		"--shade-variation", "shade", "--shade-percentage", "0.5", "--transparent", "0.5", path)
	require.NoError(t, err)

	assert.Contains(t, out, "colour:      rgb(255, 0, 0)")
	assert.Contains(t, out, "background:  rgba(255, 128, 128, 0.5)")
	assert.Contains(t, out, "class:       ab-light")
	assert.Contains(t, out, "clusters:")
}

func TestExtractTableMultipleSources(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png")
	b := writePNG(t, dir, "b.png")

	out, _, err := execute(t, "extract", "--scale", "1", "--format", "table", "--workers", "2", dir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "SOURCE"))
	assert.Contains(t, out, a)
	assert.Contains(t, out, b)
}

func TestExtractTableLongSourcePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), strings.Repeat("deeply-nested-wallpapers/", 3))
	require.NoError(t, os.MkdirAll(dir, 0o750))
	a := writePNG(t, dir, "first-wallpaper-with-a-long-name.png")
	b := writePNG(t, dir, "second-wallpaper-with-a-long-name.png")
	require.Greater(t, len(a), 60)

	out, _, err := execute(t, "extract", "--scale", "1", "--format", "table", a, b)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4, "one line per outcome")
	assert.True(t, strings.HasPrefix(lines[2], a))
	assert.True(t, strings.HasPrefix(lines[3], b))
}

func TestExtractConfigFileAndFlagOverride(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "quad.png")
	cfg := filepath.Join(dir, "adaptivebg.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
[extract]
scale = 1.0
clusters = 2

[presentation]
class-dark = "night"
text-light = "ivory"
`), 0o600))

	out, _, err := execute(t, "extract", "--config", cfg, "--format", "json", "--text-light", "snow", path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	presentation := got["presentation"].(map[string]any)
	assert.Equal(t, "night", presentation["lumaClass"])
	assert.Equal(t, "snow", presentation["textColour"])
}

func TestExtractPartialFailure(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "good.png")
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o600))

	out, stderr, err := execute(t, "extract", "--scale", "1", "--format", "json", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 extractions failed")
	assert.Contains(t, stderr, "extraction failed")

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, good, got[0]["source"])
	assert.NotContains(t, got[0], "error")
	assert.Equal(t, bad, got[1]["source"])
	assert.Contains(t, got[1]["error"], "image source unavailable")
}

func TestExtractOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "quad.png")
	dest := filepath.Join(dir, "out.json")

	out, _, err := execute(t, "extract", "--scale", "1", "--format", "json", "-o", dest, path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"colour": "rgb(255, 0, 0)"`)
}

func TestExtractArgumentErrors(t *testing.T) {
	path := writePNG(t, t.TempDir(), "quad.png")

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"no args", []string{"extract"}, "requires at least 1 arg"},
		{"missing file", []string{"extract", filepath.Join(t.TempDir(), "nope.png")}, "invalid image path"},
		{"bad format", []string{"extract", "--format", "xml", path}, "unsupported format"},
		{"bad algorithm", []string{"extract", "--algorithm", "median", path}, "invalid algorithm"},
		{"bad seed mode", []string{"extract", "--seed-mode", "dice", path}, "invalid seed mode"},
		{"bad colour", []string{"extract", "--shade-dark", "nope", path}, "--shade-dark"},
		{"bad shade", []string{"extract", "--shade-variation", "tint", path}, "invalid shade variation"},
		{"verbose and quiet", []string{"extract", "-v", "-q", path}, "none of the others can be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got, "version")
	assert.Contains(t, got, "go_version")
}

func TestBuildLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	buildLogger(&buf, false, false).Debug("hidden")
	buildLogger(&buf, false, true).Info("hidden")
	assert.Empty(t, buf.String())

	buildLogger(&buf, true, false).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
