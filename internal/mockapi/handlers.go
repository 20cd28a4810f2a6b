package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tempus-app/tempus/internal/datetime"
	logpkg "github.com/tempus-app/tempus/internal/logger"
	"github.com/tempus-app/tempus/internal/models"
)

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var in models.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(in.TaskName) == "" {
		respondError(w, http.StatusBadRequest, "task_name is required")
		return
	}

	t := in.ToTask()
	if t.IsEvent && t.IsCompleted == nil {
		f := false
		t.IsCompleted = &f
	}
	created := s.SeedTask(userFromContext(r), t)
	s.logger.Debug("mock_task_created",
		zap.String("user_id", logpkg.SanitizeUserID(created.UserID)),
		zap.String("task_id", created.TaskID),
	)
	respondJSON(w, http.StatusCreated, "Task created successfully", created)
}

// ownedTask returns the caller's task or false
func (s *Server) ownedTask(r *http.Request) (models.Task, bool) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userFromContext(r) {
		return models.Task{}, false
	}
	return t.Clone(), true
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.ownedTask(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}
	respondJSON(w, http.StatusOK, "Task retrieved successfully", t)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.ownedTask(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}
	var u models.UpdateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if name, set := u.TaskName.Get(); set && strings.TrimSpace(name) == "" {
		respondError(w, http.StatusBadRequest, "task_name cannot be empty")
		return
	}

	updated := u.Apply(t)
	updated.TaskID = t.TaskID
	updated.UserID = t.UserID
	updated.TaskCreationDate = t.TaskCreationDate

	s.mu.Lock()
	s.tasks[t.TaskID] = updated.Clone()
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, "Task updated successfully", updated)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.ownedTask(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}
	s.mu.Lock()
	delete(s.tasks, t.TaskID)
	for i, id := range s.order {
		if id == t.TaskID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, "Task deleted successfully", nil)
}

// filterTasks returns the caller's tasks matching keep, in creation order
func (s *Server) filterTasks(r *http.Request, keep func(models.Task) bool) []models.Task {
	userID := userFromContext(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, 0)
	for _, id := range s.order {
		t := s.tasks[id]
		if t.UserID == userID && keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func startsIn(match func(datetime.Date) bool) func(models.Task) bool {
	return func(t models.Task) bool {
		d, err := t.StartDate()
		return err == nil && match(d)
	}
}

func (s *Server) tasksByDay(w http.ResponseWriter, r *http.Request) {
	day, err := datetime.ParseDate(mux.Vars(r)["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date")
		return
	}
	tasks := s.filterTasks(r, startsIn(func(d datetime.Date) bool { return d == day }))
	respondJSON(w, http.StatusOK, "Tasks retrieved successfully", tasks)
}

func (s *Server) tasksByMonth(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	month, _ := strconv.Atoi(vars["month"])
	year, _ := strconv.Atoi(vars["year"])
	window := datetime.Window{Month: month, Year: year}
	if err := window.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid month or year")
		return
	}
	tasks := s.filterTasks(r, startsIn(window.Contains))
	respondJSON(w, http.StatusOK, "Tasks retrieved successfully", tasks)
}

func (s *Server) tasksByYear(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(mux.Vars(r)["year"])
	tasks := s.filterTasks(r, startsIn(func(d datetime.Date) bool { return d.Year == year }))
	respondJSON(w, http.StatusOK, "Tasks retrieved successfully", tasks)
}

func (s *Server) tasksByList(w http.ResponseWriter, r *http.Request) {
	listID, _ := strconv.ParseInt(mux.Vars(r)["listID"], 10, 64)
	tasks := s.filterTasks(r, func(t models.Task) bool { return t.InList(listID) })
	respondJSON(w, http.StatusOK, "Tasks retrieved successfully", tasks)
}

func (s *Server) createList(w http.ResponseWriter, r *http.Request) {
	var in models.CreateListInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(in.ListName) == "" {
		respondError(w, http.StatusBadRequest, "list_name is required")
		return
	}
	created := s.SeedList(userFromContext(r), models.List{
		ListName:  in.ListName,
		ListIcon:  in.ListIcon,
		ListColor: in.ListColor,
	})
	respondJSON(w, http.StatusCreated, "List created successfully", created)
}

func (s *Server) getLists(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r)
	s.mu.Lock()
	out := make([]models.List, 0, len(s.lists))
	for _, l := range s.lists {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, "Lists retrieved successfully", out)
}

// NewTaskID is exposed for seeding fixtures with realistic ids
func NewTaskID() string { return uuid.NewString() }

// Timestamp formats t the way the server stamps creation dates
func Timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
