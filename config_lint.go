package goSession

import "net/http"

// Warning is a non-fatal configuration finding. Unlike Validate, Lint never
// blocks Build; it surfaces combinations that are legal but usually wrong in
// production.
type Warning struct {
	Code    string
	Message string
}

// Warnings is the result of a Lint pass.
type Warnings []Warning

// Codes returns just the warning codes, for assertions and log lines.
func (ws Warnings) Codes() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}

// Lint inspects the configuration for suspicious but valid combinations.
func (c Config) Lint() Warnings {
	var ws Warnings

	if !c.Cookie.Secure {
		ws = append(ws, Warning{
			Code:    "cookie_not_secure",
			Message: "Cookie.Secure is off; tokens in cookies will travel over plain HTTP",
		})
	}
	if !c.Cookie.HTTPOnly {
		ws = append(ws, Warning{
			Code:    "cookie_not_httponly",
			Message: "Cookie.HTTPOnly is off; scripts can read the session cookie",
		})
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		ws = append(ws, Warning{
			Code:    "samesite_none_insecure",
			Message: "SameSite=None requires Secure; browsers will reject the cookie",
		})
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		ws = append(ws, Warning{
			Code:    "audit_blocking",
			Message: "Audit.DropIfFull is off; a slow sink can stall request handling",
		})
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		ws = append(ws, Warning{
			Code:    "histograms_without_metrics",
			Message: "EnableLatencyHistograms has no effect while Metrics.Enabled is off",
		})
	}

	return ws
}
