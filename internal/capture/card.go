package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"medcalc/internal/convert"
	appLog "medcalc/internal/log"
)

// Default capture parameters for the day-count card. They should match the
// layout used by the /card page.
const (
	DefaultWidth   = 800
	DefaultHeight  = 480
	DefaultTimeout = 30 * time.Second
)

// ReadySelector is the element the /card page marks once it has rendered.
const ReadySelector = `[data-ready="true"]`

// Options defines parameters for a Chromium-based card capture.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/card".
	URL string
	// OutputPath is where the PNG is written, e.g. "/var/lib/medcalc/card.png".
	OutputPath string
	// Width and Height are the viewport size in pixels; zero selects the defaults.
	Width  int
	Height int
	// Timeout bounds the whole capture; zero selects DefaultTimeout.
	Timeout time.Duration
	// Ink reduces the screenshot to white, black and red for e-paper panels.
	Ink bool
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return errors.New("capture: URL is required")
	}
	if o.OutputPath == "" {
		return errors.New("capture: OutputPath is required")
	}
	if o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("capture: invalid viewport %dx%d", o.Width, o.Height)
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return nil
}

// CaptureCardPNG launches headless Chromium via chromedp, loads opts.URL,
// waits for ReadySelector and writes a screenshot of the viewport to
// opts.OutputPath. The file is replaced atomically so /preview.png never
// serves a partial image.
func CaptureCardPNG(parentCtx context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		chromedp.CaptureScreenshot(&png),
	}
	start := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	if opts.Ink {
		quantized, err := convert.QuantizePNG(png)
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		png = quantized
	}
	if err := writeFileAtomic(opts.OutputPath, png); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	appLog.Info("card captured", "output", opts.OutputPath, "bytes", len(png), "ink", opts.Ink, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".card-*.png")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
