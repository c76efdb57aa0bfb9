package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sprinklerd/sprinklerd/controller"
)

type statusResponse struct {
	Status controller.ConStatus           `json:"status"`
	NV     controller.NonVolatileStatus    `json:"nv_status"`
	Health interface{}                    `json:"health,omitempty"`
	LastRun controller.LastRun            `json:"last_run"`
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := statusResponse{Status: s.eng.Status, NV: s.eng.NV, LastRun: s.eng.LastRun}
	s.mu.Unlock()

	if s.health != nil {
		resp.Health = s.health(r.Context())
	}
	writeJSON(w, resp)
}

func (s *Server) getOptions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	iopts := *s.eng.IOpts
	sopts := *s.eng.SOpts
	s.mu.Unlock()

	writeJSON(w, struct {
		Integer controller.IntegerOptions `json:"integer"`
		String  controller.StringOptions  `json:"string"`
	}{iopts, sopts})
}

func (s *Server) putOptions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Integer *controller.IntegerOptions `json:"integer,omitempty"`
		String  *controller.StringOptions  `json:"string,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if body.Integer != nil {
		for i, v := range body.Integer {
			if v > controller.IntegerOptionMax[i] {
				s.mu.Unlock()
				http.Error(w, "option value exceeds declared maximum", http.StatusBadRequest)
				return
			}
		}
		*s.eng.IOpts = *body.Integer
	}
	if body.String != nil {
		*s.eng.SOpts = *body.String
	}
	iopts := *s.eng.IOpts
	sopts := *s.eng.SOpts
	s.mu.Unlock()

	if err := s.store.SaveIOpts(iopts); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.store.SaveSOpts(sopts); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getStations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stations := append([]controller.Station(nil), s.eng.Stations...)
	s.mu.Unlock()
	writeJSON(w, stations)
}

func (s *Server) putStations(w http.ResponseWriter, r *http.Request) {
	var stations []controller.Station
	if err := json.NewDecoder(r.Body).Decode(&stations); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.eng.Stations = stations
	s.mu.Unlock()

	if err := s.store.SaveStations(stations); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getPrograms(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	programs := append([]controller.Program(nil), s.eng.Programs...)
	s.mu.Unlock()
	writeJSON(w, programs)
}

func (s *Server) putPrograms(w http.ResponseWriter, r *http.Request) {
	var programs []controller.Program
	if err := json.NewDecoder(r.Body).Decode(&programs); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.eng.Programs = programs
	s.mu.Unlock()

	if err := s.store.SavePrograms(programs); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// runStation enqueues a manual run for a single station, per spec.md §3's
// ProgramIDManual convention; duration is read from the "seconds" query
// parameter.
func (s *Server) runStation(w http.ResponseWriter, r *http.Request) {
	sid, err := strconv.Atoi(mux.Vars(r)["sid"])
	if err != nil {
		http.Error(w, "invalid station id", http.StatusBadRequest)
		return
	}
	seconds, err := strconv.Atoi(r.URL.Query().Get("seconds"))
	if err != nil || seconds <= 0 {
		http.Error(w, "missing or invalid seconds query parameter", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sid < 0 || sid >= len(s.eng.Stations) || s.eng.Stations[sid].Attrib.Disabled {
		http.Error(w, "unknown or disabled station", http.StatusBadRequest)
		return
	}
	now := s.eng.Clock.NowSeconds()
	_, ok := s.eng.Queue.Enqueue(controller.RuntimeEntry{
		StationID: sid,
		ProgramID: controller.ProgramIDManual,
		Duration:  uint32(seconds),
	})
	if !ok {
		http.Error(w, "queue full", http.StatusConflict)
		return
	}
	s.eng.Status.ProgramBusy = true
	s.eng.Scheduler.ScheduleAllStations(now)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reboot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	now := s.eng.Clock.NowSeconds()
	s.eng.RequestReboot(true, controller.RebootCauseWeb, now)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
