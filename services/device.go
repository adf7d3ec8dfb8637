package services

import "strings"

const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"

	BrowserUnknown = "Unknown"
)

// DeviceInfo is the coarse classification of a User-Agent. Both fields are
// nil when the User-Agent is empty.
type DeviceInfo struct {
	DeviceType *string
	Browser    *string
}

// ParseUserAgent classifies ua by substring matching. Tablet is checked
// before mobile since Android tablets omit the "Mobile" token.
func ParseUserAgent(ua string) DeviceInfo {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return DeviceInfo{}
	}
	device := deviceType(ua)
	browser := browserName(ua)
	return DeviceInfo{DeviceType: &device, Browser: &browser}
}

func deviceType(ua string) string {
	has := func(s string) bool { return strings.Contains(ua, s) }

	switch {
	case has("iPad"), has("Tablet"), has("Android") && !has("Mobile"):
		return DeviceTablet
	case has("Mobile"), has("Android"), has("iPhone"), has("iPod"),
		has("BlackBerry"), has("Opera Mini"), has("IEMobile"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

func browserName(ua string) string {
	has := func(s string) bool { return strings.Contains(ua, s) }

	// Edge and Opera both carry "Chrome"; Chrome carries "Safari".
	switch {
	case has("Edg"):
		return "Edge"
	case has("OPR"), has("Opera"):
		return "Opera"
	case has("Chrome"):
		return "Chrome"
	case has("Firefox"):
		return "Firefox"
	case has("Safari"):
		return "Safari"
	case has("MSIE"), has("Trident"):
		return "Internet Explorer"
	default:
		return BrowserUnknown
	}
}
