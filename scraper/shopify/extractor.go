package shopify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"cro-audit/config"
	"cro-audit/models"
	"cro-audit/services"
	"cro-audit/utils"
)

const (
	mobileWidth  = 390
	mobileHeight = 844
	settleDelay  = 1500 * time.Millisecond
)

// Extractor loads storefront URLs in headless Chrome and reads the metrics
// the heuristics need. It visits exactly the URLs it is given.
type Extractor struct {
	cfg    *config.Config
	logger *utils.Logger
	pool   *utils.WorkerPool
	retry  *utils.RetryConfig
}

// New creates a ready-to-use Extractor.
func New(cfg *config.Config, logger *utils.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Extract visits every distinct URL and returns one RawPage per page that
// loaded, in input order. Individual page failures are logged and skipped.
func (e *Extractor) Extract(ctx context.Context, urls []string) ([]*models.RawPage, error) {
	targets := dedupe(urls)
	if len(targets) == 0 {
		return nil, nil
	}

	chromeBin := e.cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	e.logger.Info("[shopify] Extracting %d pages, browser: %s", len(targets), chromeBin)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(chromeBin)...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("shopify: start browser: %w", err)
	}

	results := make([]*models.RawPage, len(targets))
	var mu sync.Mutex
	failed := 0

	for i, u := range targets {
		i, u := i, u
		e.pool.SubmitContext(ctx, func(ctx context.Context) {
			page, err := e.extractPage(ctx, browserCtx, u)
			if err != nil {
				e.logger.Warn("[shopify] %s: %v", u, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			results[i] = page
			e.logger.Debug("[shopify] Extracted %s (%d CTAs, load %.0fms)", u, len(page.CTAButtons), page.LoadTimeMs)
		})
	}
	e.pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("shopify: extract: %w", err)
	}

	pages := make([]*models.RawPage, 0, len(results))
	for _, p := range results {
		if p != nil {
			pages = append(pages, p)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("shopify: none of %d pages could be extracted", len(targets))
	}

	e.logger.Info("[shopify] Extraction complete: %d ok, %d failed", len(pages), failed)
	return pages, nil
}

func (e *Extractor) extractPage(ctx, browserCtx context.Context, pageURL string) (*models.RawPage, error) {
	var page *models.RawPage

	err := e.retry.DoContext(ctx, "extract "+pageURL, func(ctx context.Context) error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()
		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, e.cfg.PageTimeout())
		defer cancelTimeout()

		raw := &models.RawPage{}
		var lcp float64
		err := chromedp.Run(tabCtx,
			chromedp.EmulateViewport(int64(e.cfg.ViewportWidth), int64(e.cfg.ViewportHeight)),
			chromedp.Navigate(pageURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(settleDelay),
			chromedp.Evaluate(extractScript, raw),
			chromedp.Evaluate(lcpScript, &lcp, awaitPromise),
		)
		if err != nil {
			return fmt.Errorf("chromedp extract: %w", err)
		}
		raw.LCPMs = lcp

		if isProductURL(pageURL) {
			sticky := &models.StickyCart{}
			err := chromedp.Run(tabCtx,
				chromedp.EmulateViewport(mobileWidth, mobileHeight, chromedp.EmulateMobile, chromedp.EmulateTouch, chromedp.EmulateScale(3)),
				chromedp.Sleep(500*time.Millisecond),
				chromedp.Evaluate(stickyCartScript, sticky, awaitPromise),
			)
			if err != nil {
				return fmt.Errorf("chromedp sticky cart: %w", err)
			}
			raw.StickyCart = sticky
		}

		if raw.URL == "" {
			raw.URL = pageURL
		}
		raw.ScrapedAt = time.Now()
		page = raw
		return nil
	})

	return page, err
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func allocatorOptions(chromeBin string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}
	return opts
}

// dedupe trims URLs and drops blanks and repeats, keeping first-seen order.
func dedupe(urls []string) []string {
	seen := utils.NewURLSet()
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || !seen.Add(u) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func isProductURL(u string) bool {
	t, ok := services.ClassifyURL(u)
	return ok && t == models.PageProduct
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
