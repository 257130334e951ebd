package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

// ErrPDFDisabled is returned when no Chrome renderer is configured.
var ErrPDFDisabled = errors.New("pdf rendering is disabled")

type PDFRenderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

// ChromeRenderer prints HTML to an A4 PDF with headless Chrome.
type ChromeRenderer struct {
	Timeout time.Duration
}

func NewChromeRenderer() *ChromeRenderer {
	return &ChromeRenderer{Timeout: 30 * time.Second}
}

func (r *ChromeRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	tmpHTML := filepath.Join(os.TempDir(), "manifest_"+uuid.NewString()+".html")
	if err := os.WriteFile(tmpHTML, html, 0o600); err != nil {
		return nil, err
	}
	defer os.Remove(tmpHTML)

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	ctx, cancelChrome := chromedp.NewContext(ctx)
	defer cancelChrome()

	var pdf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("file://"+tmpHTML),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).  // A4
				WithPaperHeight(11.7). // A4
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome print: %w", err)
	}
	return pdf, nil
}

// DisabledRenderer stands in when CHROME_PDF_ENABLED is off.
type DisabledRenderer struct{}

func (DisabledRenderer) RenderPDF(context.Context, []byte) ([]byte, error) {
	return nil, ErrPDFDisabled
}
