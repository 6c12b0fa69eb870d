package chrome

import (
	"context"
	"sort"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"

	"uirecorder/pkg/logger"
)

// DeviceInfo describes a device to emulate during recording or replay.
type DeviceInfo struct {
	Name             string  `json:"name"`
	Width            int64   `json:"width"`
	Height           int64   `json:"height"`
	UserAgent        string  `json:"user_agent"`
	DevicePixelRatio float64 `json:"device_pixel_ratio"`
	Mobile           bool    `json:"mobile"`
	Touch            bool    `json:"touch"`
}

var PredefinedDevices = map[string]DeviceInfo{
	"iPhone 12 Pro": {
		Name:             "iPhone 12 Pro",
		Width:            390,
		Height:           844,
		DevicePixelRatio: 1.0,
		Mobile:           true,
		Touch:            true,
		UserAgent:        "Mozilla/5.0 (iPhone; CPU iPhone OS 14_7_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.2 Mobile/15E148 Safari/604.1",
	},
	"Galaxy S20": {
		Name:             "Galaxy S20",
		Width:            360,
		Height:           800,
		DevicePixelRatio: 1.0,
		Mobile:           true,
		Touch:            true,
		UserAgent:        "Mozilla/5.0 (Linux; Android 10; SM-G981B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/80.0.3987.162 Mobile Safari/537.36",
	},
	"iPad Pro": {
		Name:             "iPad Pro",
		Width:            768,
		Height:           1024,
		DevicePixelRatio: 2.0,
		Mobile:           true,
		Touch:            true,
		UserAgent:        "Mozilla/5.0 (iPad; CPU OS 13_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/87.0.4280.77 Mobile/15E148 Safari/604.1",
	},
	"Desktop 1920x1080": {
		Name:             "Desktop 1920x1080",
		Width:            1920,
		Height:           1080,
		DevicePixelRatio: 1.0,
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	},
}

// LookupDevice returns the predefined device called name. An empty or
// unknown name reports false, meaning no emulation.
func LookupDevice(name string) (DeviceInfo, bool) {
	if name == "" {
		return DeviceInfo{}, false
	}
	d, ok := PredefinedDevices[name]
	if !ok {
		logger.L().Warnf("⚠️ Device '%s' not found, emulation disabled", name)
	}
	return d, ok
}

func DeviceNames() []string {
	names := make([]string, 0, len(PredefinedDevices))
	for name := range PredefinedDevices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info converts d into chromedp's device description.
func (d DeviceInfo) Info() device.Info {
	return device.Info{
		Name:      d.Name,
		UserAgent: d.UserAgent,
		Width:     d.Width,
		Height:    d.Height,
		Scale:     d.DevicePixelRatio,
		Mobile:    d.Mobile,
		Touch:     d.Touch,
	}
}

// ApplyDeviceEmulation switches the current tab to device's viewport,
// user agent and touch support.
func ApplyDeviceEmulation(ctx context.Context, d DeviceInfo) error {
	logger.L().Infof("🎭 Applying device emulation: %s (%dx%d)", d.Name, d.Width, d.Height)

	return chromedp.Run(ctx,
		chromedp.Emulate(d.Info()),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetTouchEmulationEnabled(d.Touch).Do(ctx)
		}),
	)
}
