package ocr

import (
	"context"
	"fmt"
)

// Recognize runs tesseract over a single page image and returns the decoded
// text.
func (o *OCR) Recognize(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout", "-l", o.cfg.Language}
	if o.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", o.cfg.PSM))
	}
	if o.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", o.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l spa --psm 6
	out, errb, err := o.runner.Run(ctx, o.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(string(errb), 1<<10))
	}
	return string(out), nil
}
