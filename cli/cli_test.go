package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgepadayatti/docstacker/pdf/bridge"
)

func writePDF(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Text(50, 50, name)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 30, 10))
	for i := range img.Pix {
		img.Pix[i] = 90
	}
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// execute runs the command tree and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func pageCount(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	n, err := bridge.NewPDFCPU().PageCount(data)
	require.NoError(t, err)
	return n
}

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3"
	t.Cleanup(func() { Version = "dev" })

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "docstacker version 1.2.3")
	assert.Contains(t, out, "Build time:")
}

func TestStackCommand(t *testing.T) {
	dir := t.TempDir()
	cover := writePDF(t, dir, "cover.pdf", 1)
	body := writePDF(t, dir, "body.pdf", 2)
	terms := writePDF(t, dir, "terms.pdf", 1)
	out := filepath.Join(dir, "out.pdf")

	stdout, err := execute(t, "stack", "--cover", cover, "--body", body, "--terms", terms, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, out)
	assert.Equal(t, 4, pageCount(t, out))

	_, err = execute(t, "stack", "--cover", cover, "-o", out)
	assert.Error(t, err, "body is required")
}

func TestSignAndFinalizeCommands(t *testing.T) {
	dir := t.TempDir()
	in := writePDF(t, dir, "in.pdf", 2)
	fields := filepath.Join(dir, "fields.json")
	data, err := json.Marshal(map[string]any{"fields": []map[string]any{
		{"id": "client", "anchorLogic": "all_pages", "xNorm": 0.1, "yNorm": 0.8, "widthNorm": 0.25, "heightNorm": 0.06},
	}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fields, data, 0o644))
	sig := writePNG(t, dir, "sig.png")
	stamp := writePNG(t, dir, "stamp.png")
	signed := filepath.Join(dir, "signed.pdf")

	_, err = execute(t, "sign", "--fields", fields, "--signature", "client="+sig, "--stamp", stamp, in, "-o", signed)
	require.NoError(t, err)
	assert.Equal(t, 2, pageCount(t, signed))

	final := filepath.Join(dir, "final.pdf")
	stdout, err := execute(t, "finalize", signed, "-o", final)
	require.NoError(t, err)
	assert.Contains(t, stdout, final)
	assert.Equal(t, 2, pageCount(t, final))

	_, err = execute(t, "sign", "--fields", fields, "--signature", "client", in, "-o", signed)
	assert.Error(t, err)
}

func TestInfoCommand(t *testing.T) {
	dir := t.TempDir()
	in := writePDF(t, dir, "in.pdf", 2)

	stdout, err := execute(t, "info", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Pages: 2")
	assert.Contains(t, stdout, "595.00 x 842.00 pt")

	stdout, err = execute(t, "info", "--json", in)
	require.NoError(t, err)
	var got struct {
		PageCount int        `json:"pageCount"`
		Pages     []pageInfo `json:"pages"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, 2, got.PageCount)
	assert.InDelta(t, 842, got.Pages[1].Height, 0.01)

	_, err = execute(t, "info", filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}

func TestRenderCommand(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}
	dir := t.TempDir()
	in := writePDF(t, dir, "in.pdf", 1)
	out := filepath.Join(dir, "page.png")

	_, err := execute(t, "render", "--page", "0", in, "-o", out)
	require.NoError(t, err)
	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)

	_, err = execute(t, "render", "--page", "3", in, "-o", out)
	assert.Error(t, err)
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("render:\n  dpi: -1\n"), 0o644))

	_, err := execute(t, "--config", cfg, "version")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "render.dpi"), err.Error())
}
