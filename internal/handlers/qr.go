package handlers

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
)

var registrationIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// GET /qr/{id}.png
// The code carries the registration id so the desk can look it up at check-in.
func QR(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !registrationIDRE.MatchString(id) {
		http.NotFound(w, r)
		return
	}

	png, err := qrcode.Encode(id, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "failed to generate qr", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
