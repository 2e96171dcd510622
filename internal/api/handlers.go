package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/resolve"
	"github.com/sells-group/school-zone-cli/pkg/geocode"
)

const maxBodyBytes = 1 << 16

type handlers struct {
	deps Deps
	log  *zap.Logger
}

type addressRequest struct {
	Address  string `json:"address"`
	SortKey  string `json:"sort_key"`
	SortDesc bool   `json:"sort_desc"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if h.deps.Health != nil {
		for k, v := range h.deps.Health() {
			body[k] = v
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// schoolsByAddress geocodes an address, applies the service-area gate and
// resolves the point.
func (h *handlers) schoolsByAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be JSON")
		return
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		writeError(w, http.StatusBadRequest, "Address string is required")
		return
	}
	if h.deps.Geocoder == nil {
		writeError(w, http.StatusServiceUnavailable, "Geocoding is not configured")
		return
	}

	loc, err := h.deps.Geocoder.Geocode(r.Context(), address)
	if err != nil {
		h.log.Error("geocode failed", zap.String("address", address), zap.Error(err))
		msg := "Geocoding service unavailable, please try again later"
		if !eris.Is(err, geocode.ErrServiceUnavailable) {
			msg = "Geocoding failed"
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return
	}
	if !loc.Matched {
		writeError(w, http.StatusBadRequest, fmt.Sprintf(
			"Could not geocode address: '%s'. Please check the address format (e.g., Street, City, State ZIP).", address))
		return
	}

	h.resolve(w, loc.Latitude, loc.Longitude, resolve.SortOptions{Key: req.SortKey, Desc: req.SortDesc})
}

// schoolsByCoordinate resolves ?lat=&lon= directly.
func (h *handlers) schoolsByCoordinate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil || math.IsNaN(lat) || math.IsNaN(lon) {
		writeError(w, http.StatusBadRequest, "lat and lon query parameters must be numbers")
		return
	}
	desc, _ := strconv.ParseBool(q.Get("sort_desc"))

	h.resolve(w, lat, lon, resolve.SortOptions{Key: q.Get("sort_key"), Desc: desc})
}

func (h *handlers) resolve(w http.ResponseWriter, lat, lon float64, sort resolve.SortOptions) {
	if !h.deps.Area.Contains(lat, lon) {
		writeError(w, http.StatusBadRequest, "Location is outside the supported service area")
		return
	}

	res := h.deps.Resolver.ResolveSchools(resolve.Query{Lat: lat, Lon: lon, Sort: sort})
	h.log.Info("resolved schools",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Int("schools", len(res.Codes())),
		zap.Bool("choice_zone", res.IsInChoiceZone),
	)
	writeJSON(w, http.StatusOK, res)
}
