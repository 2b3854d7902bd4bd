package httpserver

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/robalobadob/pokeguess/internal/game"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

// handleShareQR renders a PNG QR code linking to the selection screen with
// the given mode, difficulty and generations pre-filled.
func (s *Server) handleShareQR(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	setup := game.Setup{
		Mode:       game.Mode(q.Get("mode")),
		Difficulty: q.Get("difficulty"),
	}
	if g := q.Get("generations"); g != "" {
		setup.Generations = strings.Split(g, ",")
	}
	if err := setup.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	size := defaultQRSize
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minQRSize || n > maxQRSize {
			writeError(w, http.StatusBadRequest, "size must be between 128 and 1024")
			return
		}
		size = n
	}

	link := shareLink(s.cfg.PublicURL, setup)
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		log.Error().Err(err).Str("link", link).Msg("encode qr")
		writeError(w, http.StatusInternalServerError, "qr_failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Share-Link", link)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// shareLink builds the client URL for a setup.
func shareLink(base string, setup game.Setup) string {
	v := url.Values{}
	v.Set("mode", string(setup.Mode))
	if setup.Difficulty != "" {
		v.Set("difficulty", setup.Difficulty)
	}
	if len(setup.Generations) > 0 {
		v.Set("generations", strings.Join(setup.Generations, ","))
	}
	return strings.TrimRight(base, "/") + "/game?" + v.Encode()
}
