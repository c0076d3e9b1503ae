package analytics

import "net/url"

// GoogleTag is the third-party page-view tag. The layout loads it once per
// page, and only when window.gtag is not already defined.
type GoogleTag struct {
	MeasurementID string
}

// Enabled reports whether a measurement ID is configured.
func (g GoogleTag) Enabled() bool {
	return g.MeasurementID != ""
}

// ScriptURL is the async loader script.
func (g GoogleTag) ScriptURL() string {
	return "https://www.googletagmanager.com/gtag/js?id=" + url.QueryEscape(g.MeasurementID)
}
