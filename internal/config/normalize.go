package config

import (
	"strings"

	"enumguard/internal/deviceid"
)

func (c *Config) normalize() {
	c.LogFile = strings.TrimSpace(c.LogFile)
	c.ScanStrategy.Mode = strings.ToLower(strings.TrimSpace(c.ScanStrategy.Mode))
	if c.ScanStrategy.Mode == "" {
		c.ScanStrategy.Mode = defaultScanMode
	}
	c.ScanStrategy.Time = strings.TrimSpace(c.ScanStrategy.Time)
	if c.ScanStrategy.Days == nil {
		c.ScanStrategy.Days = []string{}
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.normalizeMonitoredDevices()
}

// normalizeMonitoredDevices canonicalizes identifiers, drops empty and
// duplicate entries (first wins), and fills unset thresholds.
func (c *Config) normalizeMonitoredDevices() {
	seen := make(map[deviceid.ID]struct{}, len(c.MonitoredDevices))
	devices := make([]MonitoredDevice, 0, len(c.MonitoredDevices))
	for _, device := range c.MonitoredDevices {
		id := deviceid.Normalize(device.VIDPID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		device.VIDPID = id.String()
		if device.NotifyThreshold <= 0 {
			device.NotifyThreshold = c.DefaultNotifyThreshold
		}
		devices = append(devices, device)
	}
	c.MonitoredDevices = devices
}
