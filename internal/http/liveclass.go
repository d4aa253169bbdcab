package http

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"aulago/backend/internal/authz"
	"aulago/backend/internal/model"
)

type liveClassResponse struct {
	ID          string  `json:"id"`
	CourseID    string  `json:"courseId"`
	TeacherID   string  `json:"teacherId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ScheduledAt int64   `json:"scheduledAt"`
	Duration    int     `json:"duration"`
	Platform    string  `json:"platform"`
	MeetingURL  *string `json:"meetingUrl,omitempty"`
	Status      string  `json:"status"`
}

func toLiveClassResponse(class model.LiveClass) liveClassResponse {
	return liveClassResponse{
		ID:          class.ID,
		CourseID:    class.CourseID,
		TeacherID:   class.TeacherID,
		Title:       class.Title,
		Description: class.Description,
		ScheduledAt: class.ScheduledAt.Unix(),
		Duration:    class.Duration,
		Platform:    class.Platform,
		MeetingURL:  class.MeetingURL,
		Status:      string(class.Status),
	}
}

type scheduleLiveClassRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ScheduledAt int64   `json:"scheduledAt"`
	Duration    int     `json:"duration"`
	Platform    string  `json:"platform"`
	MeetingURL  *string `json:"meetingUrl"`
}

func (s *Server) handleScheduleLiveClass(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	courseID := chi.URLParam(r, "courseID")

	var req scheduleLiveClassRequest
	if err := decodeJSON(r, &req); err != nil || req.Title == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	scheduledAt := time.Unix(req.ScheduledAt, 0).UTC()
	if scheduledAt.Before(time.Now()) {
		writeError(w, http.StatusBadRequest, "scheduled_in_past")
		return
	}
	if req.Duration <= 0 {
		req.Duration = 60
	}

	ownerID, err := s.store.CourseOwner(r.Context(), courseID)
	if err != nil {
		storeError(w, err)
		return
	}
	if err := authz.RequireOwner(principal, ownerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	class := model.LiveClass{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		TeacherID:   principal.UserID,
		Title:       req.Title,
		Description: req.Description,
		ScheduledAt: scheduledAt,
		Duration:    req.Duration,
		Platform:    req.Platform,
		MeetingURL:  req.MeetingURL,
		Status:      model.LiveClassScheduled,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateLiveClass(r.Context(), class); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLiveClassResponse(class))
}

func (s *Server) handleCourseLiveClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.store.ListLiveClassesByCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLiveClassResponses(classes))
}

func (s *Server) handleTeacherAgenda(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	classes, err := s.store.ListLiveClassesByTeacher(r.Context(), principal.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLiveClassResponses(classes))
}

func (s *Server) handleUpcomingClasses(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	classes, err := s.store.ListUpcomingClassesForStudent(r.Context(), principal.UserID, time.Now().UTC())
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLiveClassResponses(classes))
}

func toLiveClassResponses(classes []model.LiveClass) []liveClassResponse {
	resp := make([]liveClassResponse, 0, len(classes))
	for _, class := range classes {
		resp = append(resp, toLiveClassResponse(class))
	}
	return resp
}

// handleCreateJoinCode mints a short-lived code students present to join a
// live class. Codes live only in Redis and expire on their own.
func (s *Server) handleCreateJoinCode(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		writeError(w, http.StatusServiceUnavailable, "join_codes_unavailable")
		return
	}
	principal := principalFromContext(r.Context())

	class, err := s.store.GetLiveClass(r.Context(), chi.URLParam(r, "classID"))
	if err != nil {
		storeError(w, err)
		return
	}
	if err := authz.RequireOwner(principal, class.TeacherID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if class.Status == model.LiveClassFinished || class.Status == model.LiveClassCancelled {
		writeError(w, http.StatusConflict, "class_over")
		return
	}

	code, err := newJoinCode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := s.redis.Set(r.Context(), joinCodeKey(class.ID), code, s.cfg.JoinCodeTTL).Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":      code,
		"expiresIn": int(s.cfg.JoinCodeTTL.Seconds()),
	})
}

type joinLiveClassRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleJoinLiveClass(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		writeError(w, http.StatusServiceUnavailable, "join_codes_unavailable")
		return
	}
	principal := principalFromContext(r.Context())

	var req joinLiveClassRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	class, err := s.store.GetLiveClass(r.Context(), chi.URLParam(r, "classID"))
	if err != nil {
		storeError(w, err)
		return
	}

	// The owning teacher joins without an enrollment; students need one.
	if class.TeacherID != principal.UserID {
		enrolled, err := s.store.ExistsEnrollment(r.Context(), principal.UserID, class.CourseID)
		if err != nil {
			storeError(w, err)
			return
		}
		if !enrolled {
			writeError(w, http.StatusForbidden, "not_enrolled")
			return
		}
	}

	stored, err := s.redis.Get(r.Context(), joinCodeKey(class.ID)).Result()
	if errors.Is(err, redis.Nil) {
		writeError(w, http.StatusUnauthorized, "invalid_join_code")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if stored != req.Code {
		writeError(w, http.StatusUnauthorized, "invalid_join_code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"classId":    class.ID,
		"meetingUrl": class.MeetingURL,
		"platform":   class.Platform,
	})
}

func joinCodeKey(classID string) string {
	return "live-class:join:" + classID
}

func newJoinCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
