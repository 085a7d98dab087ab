// internal/handlers/flash.go
package handlers

import (
	"net/http"
	"strings"
)

type Flash struct {
	Kind string // "ok" or "error"
	Text string
}

var okText = map[string]string{
	"saved":      "Draft saved.",
	"discarded":  "Draft discarded.",
	"logged_out": "Signed out.",
}

var errText = map[string]string{
	"unknown_event":  "That event does not exist.",
	"team_full":      "Your team is already at the maximum size.",
	"discarded":      "That draft was discarded before it finished submitting. Please start again.",
	"access_denied":  "Access denied. Please sign in again.",
	"missing_secret": "Enter the admin secret.",
}

// MakeFlash reads ?ok= / ?error= and falls back to the handler-provided messages.
// Unknown keys are not echoed back.
func MakeFlash(r *http.Request, errStr, msgStr string) *Flash {
	q := r.URL.Query()

	if key := strings.ToLower(strings.TrimSpace(q.Get("error"))); key != "" {
		if t, ok := errText[key]; ok {
			return &Flash{Kind: "error", Text: t}
		}
	}
	if key := strings.ToLower(strings.TrimSpace(q.Get("ok"))); key != "" {
		if t, ok := okText[key]; ok {
			return &Flash{Kind: "ok", Text: t}
		}
	}

	if errStr != "" {
		return &Flash{Kind: "error", Text: errStr}
	}
	if msgStr != "" {
		return &Flash{Kind: "ok", Text: msgStr}
	}
	return nil
}
