package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/classpick/classpick-backend/internal/hub"
	"github.com/classpick/classpick-backend/internal/room"
	"github.com/classpick/classpick-backend/internal/roster"
	"github.com/classpick/classpick-backend/internal/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

// ListClasses returns the loaded class names plus the duration presets the
// presentation should offer.
func ListClasses(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Classes         []string `json:"classes"`
			DurationPresets []int    `json:"duration_presets"`
			DefaultDuration int      `json:"default_duration_sec"`
		}{
			Classes:         store.Classes(),
			DurationPresets: types.DurationPresets,
			DefaultDuration: types.DefaultDurationSec,
		})
	}
}

// StartSession creates (or resumes) the room for a class. Rounds are then
// driven over the websocket. Unknown classes and empty rosters are user
// errors; nothing is mutated for either.
func StartSession(h *hub.Hub, store *roster.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		class := chi.URLParam(r, "class")

		students, ok := store.Students(class)
		if !ok {
			writeErr(w, http.StatusNotFound, "please select a valid class")
			return
		}
		if len(students) == 0 {
			writeErr(w, http.StatusUnprocessableEntity, "no students found for "+class)
			return
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.EnsureRoom{Class: class, Roster: students, Reply: reply}
		if <-reply == nil {
			writeErr(w, http.StatusInternalServerError, "failed to create session")
			return
		}
		log.Info("session ready", zap.String("class", class))

		writeJSON(w, http.StatusCreated, struct {
			Class    string `json:"class"`
			Students int    `json:"students"`
		}{Class: class, Students: len(students)})
	}
}

// Summary reports the grades recorded so far for a class's session; an
// absent room simply means nothing has been recorded.
func Summary(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		class := chi.URLParam(r, "class")

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.GetRoom{Class: class, Reply: reply}
		rm := <-reply
		if rm == nil {
			writeJSON(w, http.StatusOK, struct {
				Class  string            `json:"class"`
				Grades map[string]string `json:"grades"`
			}{Class: class, Grades: map[string]string{}})
			return
		}

		view := make(chan room.View, 1)
		rm.Inbox() <- room.GetState{Reply: view}
		v := <-view

		grades := make(map[string]string, len(v.State.Grades))
		for student, rating := range v.State.Grades {
			grades[student] = string(rating)
		}
		writeJSON(w, http.StatusOK, struct {
			Class     string            `json:"class"`
			Grades    map[string]string `json:"grades"`
			Remaining int               `json:"remaining"`
		}{Class: class, Grades: grades, Remaining: len(v.State.Pool)})
	}
}

// EndSession drops a class's room, discarding its pool and grade book. This
// is the one way to refill a depleted class without restarting the process.
func EndSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.Inbox() <- hub.RemoveRoom{Class: chi.URLParam(r, "class")}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
