package forecast

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"crowdcal-backend/lib/scrapers/touringplans"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the display-layer protocol boundary on r.
func RegisterRoutes(r *mux.Router, svc *Service) {
	r.HandleFunc("/api/forecast", handleFetchForecast(svc)).Methods(http.MethodPost)
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
}

// handleFetchForecast answers FETCH_FORECAST. The display layer always
// receives either FORECAST_READY or an explicit error message, never
// silence.
func handleFetchForecast(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FetchForecastRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, ForecastResponse{
				Type:  MsgFetchError,
				Error: "malformed request: " + err.Error(),
			})
			return
		}

		merged, err := svc.FetchForecast(r.Context(), req)
		if err != nil {
			// asking for a resort we don't know is the caller's
			// mistake, not an upstream failure
			if errors.Is(err, errUnknownResort) {
				writeMessage(w, http.StatusBadRequest, ForecastResponse{
					Type:  MsgFetchError,
					Error: err.Error(),
				})
				return
			}
			msgType := MsgFetchError
			var authErr *touringplans.AuthError
			if errors.As(err, &authErr) {
				msgType = MsgLoginError
			}
			writeMessage(w, http.StatusBadGateway, ForecastResponse{
				Type:  msgType,
				Error: err.Error(),
			})
			return
		}

		if merged == nil {
			// an empty forecast is still a forecast, not a missing field
			merged = []touringplans.DayRecord{}
		}
		writeMessage(w, http.StatusOK, ForecastResponse{
			Type:     MsgForecastReady,
			Forecast: merged,
		})
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeMessage(w http.ResponseWriter, status int, msg ForecastResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(msg)
	if err != nil {
		slog.Error("failed to encode protocol message", "err", err)
	}
}
