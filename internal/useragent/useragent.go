// Package useragent classifies raw User-Agent strings into the device,
// browser, and OS categories the analytics aggregations group by.
package useragent

import (
	"strings"

	ua "github.com/mileusna/useragent"
)

// Unknown is the sentinel for any field that could not be classified.
// Classification never fails; the worst case is a fully-Unknown record.
const Unknown = "Unknown"

// Classification is the parsed form of a User-Agent string.
type Classification struct {
	DeviceType     string // "desktop", "mobile", "tablet", "bot" or Unknown
	DeviceModel    string
	BrowserName    string
	BrowserVersion string
	OSName         string
	OSVersion      string
}

// Classify parses a raw User-Agent string. It is a pure function: no I/O,
// deterministic for a given input.
func Classify(rawUA string) Classification {
	c := Classification{
		DeviceType:     Unknown,
		DeviceModel:    Unknown,
		BrowserName:    Unknown,
		BrowserVersion: Unknown,
		OSName:         Unknown,
		OSVersion:      Unknown,
	}

	if strings.TrimSpace(rawUA) == "" {
		return c
	}

	parsed := ua.Parse(rawUA)

	switch {
	case parsed.Bot:
		c.DeviceType = "bot"
	case parsed.Tablet:
		c.DeviceType = "tablet"
	case parsed.Mobile:
		c.DeviceType = "mobile"
	case parsed.Desktop:
		c.DeviceType = "desktop"
	}

	if parsed.Device != "" {
		c.DeviceModel = parsed.Device
	}
	if parsed.Name != "" {
		c.BrowserName = parsed.Name
	}
	if parsed.Version != "" {
		c.BrowserVersion = parsed.Version
	}
	if parsed.OS != "" {
		c.OSName = parsed.OS
	}
	if parsed.OSVersion != "" {
		c.OSVersion = parsed.OSVersion
	}

	return c
}

// Device returns the value stored on event rows: the device model when
// known, otherwise the device type.
func (c Classification) Device() string {
	if c.DeviceModel != Unknown {
		return c.DeviceModel
	}
	return c.DeviceType
}

// Browser returns the "<name> <version>" composite stored on event rows.
func (c Classification) Browser() string {
	return c.BrowserName + " " + c.BrowserVersion
}

// OS returns the "<name> <version>" composite stored on event rows.
func (c Classification) OS() string {
	return c.OSName + " " + c.OSVersion
}
