package chrome

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
)

var ErrChromeNotFound = errors.New("chrome browser not found, install Google Chrome or Chromium or set CHROME_EXEC_PATH")

// GetChromePath returns the path to a Chrome executable, or "" when none
// is installed.
func GetChromePath() string {
	if path := os.Getenv("CHROME_EXEC_PATH"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	var chromePaths []string
	switch runtime.GOOS {
	case "linux":
		chromePaths = []string{
			"/usr/bin/google-chrome-stable",
			"/usr/bin/google-chrome",
			"/usr/bin/chromium-browser",
			"/usr/bin/chromium",
			"/snap/bin/chromium",
			"/opt/google/chrome/google-chrome",
		}
	case "darwin":
		chromePaths = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "windows":
		chromePaths = []string{
			"C:\\Program Files\\Google\\Chrome\\Application\\chrome.exe",
			"C:\\Program Files (x86)\\Google\\Chrome\\Application\\chrome.exe",
		}
	}

	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium-browser", "chromium"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	return ""
}
