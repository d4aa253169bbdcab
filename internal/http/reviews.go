package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"aulago/backend/internal/authz"
	"aulago/backend/internal/model"
	"aulago/backend/internal/repository"
)

type reviewResponse struct {
	ID                string  `json:"id"`
	CourseID          string  `json:"courseId"`
	StudentID         string  `json:"studentId"`
	Rating            int     `json:"rating"`
	Comment           string  `json:"comment"`
	TeacherResponse   *string `json:"teacherResponse,omitempty"`
	TeacherResponseAt *int64  `json:"teacherResponseAt,omitempty"`
	CreatedAt         int64   `json:"createdAt"`
}

func toReviewResponse(review model.Review) reviewResponse {
	resp := reviewResponse{
		ID:              review.ID,
		CourseID:        review.CourseID,
		StudentID:       review.StudentID,
		Rating:          review.Rating,
		Comment:         review.Comment,
		TeacherResponse: review.TeacherResponse,
		CreatedAt:       review.CreatedAt.Unix(),
	}
	if review.TeacherResponseAt != nil {
		at := review.TeacherResponseAt.Unix()
		resp.TeacherResponseAt = &at
	}
	return resp
}

type createReviewRequest struct {
	CourseID string `json:"courseId"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())

	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil || req.CourseID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "invalid_rating")
		return
	}

	// Only students who actually took the course get to rate it.
	enrolled, err := s.store.ExistsEnrollment(r.Context(), principal.UserID, req.CourseID)
	if err != nil {
		storeError(w, err)
		return
	}
	if !enrolled {
		writeError(w, http.StatusForbidden, "not_enrolled")
		return
	}

	review := model.Review{
		ID:        uuid.NewString(),
		CourseID:  req.CourseID,
		StudentID: principal.UserID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateReview(r.Context(), review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, http.StatusConflict, "already_reviewed")
			return
		}
		storeError(w, err)
		return
	}
	if err := s.store.UpdateCourseRating(r.Context(), review.CourseID); err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleCourseReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.store.ListReviewsByCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		storeError(w, err)
		return
	}
	resp := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		resp = append(resp, toReviewResponse(review))
	}
	writeJSON(w, http.StatusOK, resp)
}

type replyReviewRequest struct {
	Response string `json:"response"`
}

func (s *Server) handleReplyReview(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())

	var req replyReviewRequest
	if err := decodeJSON(r, &req); err != nil || req.Response == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	review, err := s.store.GetReview(r.Context(), chi.URLParam(r, "reviewID"))
	if err != nil {
		storeError(w, err)
		return
	}

	// Replying is reserved for the teacher who owns the reviewed course.
	ownerID, err := s.store.CourseOwner(r.Context(), review.CourseID)
	if err != nil {
		storeError(w, err)
		return
	}
	if err := authz.RequireOwner(principal, ownerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	updated, err := s.store.SetReviewReply(r.Context(), review.ID, req.Response, time.Now().UTC())
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(updated))
}
