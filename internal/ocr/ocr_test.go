package ocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturascl/extractor/internal/common"
)

// fakeRunner records invocations and simulates pdftoppm/tesseract output.
type fakeRunner struct {
	calls   [][]string
	pages   int    // PNG files written per pdftoppm call
	stdout  string // tesseract stdout
	fail    bool
	failErr error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.fail {
		return nil, []byte("boom"), f.failErr
	}
	if name == "pdftoppm" {
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}
	return []byte(f.stdout), nil, nil
}

func newTestOCR(cfg common.OCRConfig, r Runner) *OCR {
	o := NewOCR(cfg, nil)
	o.runner = r
	return o
}

func TestNewOCRWiresRunnerLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := NewOCR(common.OCRConfig{}, logger)

	r, ok := o.runner.(execRunner)
	require.True(t, ok, "default runner must shell out")
	assert.Same(t, logger, r.logger, "exec logging goes through the instance logger")
}

func TestRenderPages(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{pages: 3}
	o := newTestOCR(common.OCRConfig{}, runner)

	paths, err := o.RenderPages(context.Background(), "/tmp/in.pdf", dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "page-1.png"), paths[0])

	// Default DPI is carried into the pdftoppm invocation.
	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0], "-r")
	assert.Contains(t, runner.calls[0], "300")
	assert.Contains(t, runner.calls[0], "-png")
}

func TestRenderPagesHonorsMaxPages(t *testing.T) {
	dir := t.TempDir()
	o := newTestOCR(common.OCRConfig{MaxPages: 2}, &fakeRunner{pages: 5})

	paths, err := o.RenderPages(context.Background(), "/tmp/in.pdf", dir)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestRenderPagesNoOutputIsError(t *testing.T) {
	dir := t.TempDir()
	o := newTestOCR(common.OCRConfig{}, &fakeRunner{pages: 0})

	_, err := o.RenderPages(context.Background(), "/tmp/in.pdf", dir)
	assert.Error(t, err)
}

func TestRenderPagesCommandFailure(t *testing.T) {
	dir := t.TempDir()
	o := newTestOCR(common.OCRConfig{}, &fakeRunner{fail: true, failErr: fmt.Errorf("exit status 1")})

	_, err := o.RenderPages(context.Background(), "/tmp/in.pdf", dir)
	assert.ErrorContains(t, err, "pdftoppm")
}

func TestRecognizeArgs(t *testing.T) {
	runner := &fakeRunner{stdout: "FACTURA N° 338"}
	o := newTestOCR(common.OCRConfig{Language: "spa", PSM: 6, TessdataDir: "/usr/share/tessdata"}, runner)

	text, err := o.Recognize(context.Background(), "/tmp/page-1.png")
	require.NoError(t, err)
	assert.Equal(t, "FACTURA N° 338", text)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "tesseract", call[0])
	assert.Equal(t, []string{"/tmp/page-1.png", "stdout", "-l", "spa", "--psm", "6", "--tessdata-dir", "/usr/share/tessdata"}, call[1:])
}

func TestRecognizeFailure(t *testing.T) {
	o := newTestOCR(common.OCRConfig{}, &fakeRunner{fail: true, failErr: fmt.Errorf("exit status 1")})

	_, err := o.Recognize(context.Background(), "/tmp/page-1.png")
	assert.ErrorContains(t, err, "tesseract")
}
