package chrome

import "github.com/chromedp/chromedp"

// AllocatorOptions returns the exec allocator flags shared by replay and
// recording sessions. Zero width or height keeps Chrome's default window;
// an empty userAgent keeps Chrome's own.
func AllocatorOptions(execPath string, headless bool, width, height int, userAgent string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", headless),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("force-device-scale-factor", "1"),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("no-pings", true),
	)

	if width > 0 && height > 0 {
		opts = append(opts, chromedp.WindowSize(width, height))
	}
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	return opts
}
