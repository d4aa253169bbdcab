package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"aulago/backend/internal/auth"
	"aulago/backend/internal/authz"
	"aulago/backend/internal/config"
	"aulago/backend/internal/model"
	"aulago/backend/internal/repository"
	"aulago/backend/internal/service"
	"aulago/backend/internal/storage"
)

// Store is the persistence surface the handlers depend on. *repository.Store
// implements it; tests substitute fakes.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SetUserActive(ctx context.Context, userID string, active bool) (model.User, error)

	CreateCourse(ctx context.Context, course model.Course) error
	GetCourse(ctx context.Context, courseID string) (model.Course, error)
	CourseOwner(ctx context.Context, courseID string) (string, error)
	ListPublishedCourses(ctx context.Context, filters repository.CourseFilters) ([]model.Course, error)
	ListFeaturedCourses(ctx context.Context, limit int) ([]model.Course, error)
	ListCoursesByTeacher(ctx context.Context, teacherID string) ([]model.Course, error)
	ListCoursesByStudent(ctx context.Context, studentID string) ([]model.Course, error)
	ListCoursesByStatus(ctx context.Context, status model.CourseStatus) ([]model.Course, error)
	ListAllCourses(ctx context.Context) ([]model.Course, error)
	UpdateCourse(ctx context.Context, course model.Course) (model.Course, error)
	SetCourseStatus(ctx context.Context, courseID string, status model.CourseStatus) (model.Course, error)
	IncrementEnrolledStudents(ctx context.Context, courseID string) error
	UpdateCourseRating(ctx context.Context, courseID string) error

	CreateSection(ctx context.Context, section model.CourseSection) error
	CreateLesson(ctx context.Context, lesson model.Lesson) error
	ListSections(ctx context.Context, courseID string) ([]model.CourseSection, error)
	ListLessons(ctx context.Context, sectionID string) ([]model.Lesson, error)
	SectionCourse(ctx context.Context, sectionID string) (string, error)
	CountLessons(ctx context.Context, courseID string) (int, error)

	CreateEnrollment(ctx context.Context, enrollment model.Enrollment) error
	GetEnrollment(ctx context.Context, studentID, courseID string) (model.Enrollment, error)
	ExistsEnrollment(ctx context.Context, studentID, courseID string) (bool, error)
	ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	UpdateEnrollmentProgress(ctx context.Context, enrollment model.Enrollment) error
	ListStudentsByCourse(ctx context.Context, courseID string) ([]model.User, error)

	CreateReview(ctx context.Context, review model.Review) error
	GetReview(ctx context.Context, reviewID string) (model.Review, error)
	SetReviewReply(ctx context.Context, reviewID, response string, at time.Time) (model.Review, error)
	ListReviewsByCourse(ctx context.Context, courseID string) ([]model.Review, error)

	CreateMessage(ctx context.Context, message model.Message) error
	GetMessage(ctx context.Context, messageID string) (model.Message, error)
	ListInbox(ctx context.Context, receiverID string) ([]model.Message, error)
	MarkMessageRead(ctx context.Context, messageID string) error
	CountUnread(ctx context.Context, receiverID string) (int64, error)

	CreateLiveClass(ctx context.Context, class model.LiveClass) error
	GetLiveClass(ctx context.Context, classID string) (model.LiveClass, error)
	ListLiveClassesByCourse(ctx context.Context, courseID string) ([]model.LiveClass, error)
	ListLiveClassesByTeacher(ctx context.Context, teacherID string) ([]model.LiveClass, error)
	ListUpcomingClassesForStudent(ctx context.Context, studentID string, now time.Time) ([]model.LiveClass, error)

	GetPlatformStats(ctx context.Context) (repository.PlatformStats, error)
	TeacherRevenue(ctx context.Context, teacherID string) (float64, error)
}

type Server struct {
	cfg      config.Config
	store    Store
	creds    *service.Credentials
	uploader storage.Uploader
	redis    *redis.Client
}

func NewServer(cfg config.Config, store Store, creds *service.Credentials, uploader storage.Uploader, redisClient *redis.Client) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		creds:    creds,
		uploader: uploader,
		redis:    redisClient,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withPrincipal)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Locally stored media. When uploads go to object storage the directory is
	// simply empty.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.cfg.MediaDir))))

	// Public routes.
	r.Post("/api/auth/register", s.handleRegister)
	r.Post("/api/auth/login", s.handleLogin)
	r.Get("/api/courses", s.handleListCourses)
	r.Get("/api/courses/featured", s.handleFeaturedCourses)
	r.Get("/api/courses/{courseID}", s.handleGetCourse)
	r.Get("/api/courses/{courseID}/reviews", s.handleCourseReviews)
	r.Get("/api/courses/{courseID}/live-classes", s.handleCourseLiveClasses)

	// Everything below requires a verified principal.
	r.With(s.requireAuth).Get("/api/auth/validate", s.handleValidate)

	r.With(s.requireAuth, s.requireRole(model.RoleTeacher)).Post("/api/courses", s.handleCreateCourse)
	r.With(s.requireAuth, s.requireRole(model.RoleTeacher)).Post("/api/courses/{courseID}/sections", s.handleAddSection)
	r.With(s.requireAuth, s.requireRole(model.RoleTeacher)).Post("/api/sections/{sectionID}/lessons", s.handleAddLesson)
	r.With(s.requireAuth, s.requireRole(model.RoleTeacher)).Post("/api/courses/{courseID}/live-classes", s.handleScheduleLiveClass)
	r.With(s.requireAuth, s.requireRole(model.RoleTeacher)).Post("/api/live-classes/{classID}/join-code", s.handleCreateJoinCode)

	r.Route("/api/teachers", func(r chi.Router) {
		r.Use(s.requireAuth, s.requireRole(model.RoleTeacher))
		r.Get("/my-courses", s.handleMyCourses)
		r.Get("/revenue", s.handleTeacherRevenue)
		r.Get("/live-classes", s.handleTeacherAgenda)
		r.Get("/courses/{courseID}", s.handleTeacherCourse)
		r.Patch("/courses/{courseID}", s.handleUpdateCourse)
		r.Get("/courses/{courseID}/students", s.handleCourseStudents)
	})

	r.With(s.requireAuth, s.requireRole(model.RoleStudent)).Post("/api/enrollments", s.handleEnroll)
	r.With(s.requireAuth, s.requireRole(model.RoleStudent)).Post("/api/reviews", s.handleCreateReview)
	r.With(s.requireAuth, s.requireRole(model.RoleTeacher)).Patch("/api/reviews/{reviewID}/reply", s.handleReplyReview)

	r.Route("/api/students", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/enrollments", s.handleMyEnrollments)
		r.Get("/enrolled-courses", s.handleEnrolledCourses)
		r.Get("/upcoming-classes", s.handleUpcomingClasses)
		r.Get("/courses/{courseID}/progress", s.handleCourseProgress)
		r.Get("/courses/{courseID}/is-enrolled", s.handleIsEnrolled)
		r.Post("/courses/{courseID}/lessons/{lessonID}/complete", s.handleCompleteLesson)
		r.Get("/courses/{courseID}/certificate", s.handleDownloadCertificate)
	})

	r.Route("/api/messages", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/", s.handleSendMessage)
		r.Get("/inbox", s.handleInbox)
		r.Get("/unread-count", s.handleUnreadCount)
		r.Patch("/{messageID}/read", s.handleMarkRead)
	})

	r.With(s.requireAuth).Post("/api/live-classes/{classID}/join", s.handleJoinLiveClass)
	r.With(s.requireAuth).Post("/api/media/upload", s.handleUpload)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(s.requireAuth, s.requireRole(model.RoleAdmin))
		r.Get("/users", s.handleListUsers)
		r.Patch("/users/{userID}/status", s.handleToggleUserStatus)
		r.Get("/courses", s.handleAdminCourses)
		r.Get("/courses/pending", s.handlePendingCourses)
		r.Patch("/courses/{courseID}/approve", s.handleApproveCourse)
		r.Patch("/courses/{courseID}/reject", s.handleRejectCourse)
		r.Get("/stats", s.handleStats)
	})

	return r
}

// withPrincipal is the authentication interceptor. It runs on every request.
// A missing, malformed, badly signed or expired token, and a token whose
// account no longer exists or is inactive, all leave the request without a
// principal; the route-class gate downstream decides whether that matters,
// so public routes behind a bad token keep working. A store failure is the
// one exception: it is a server fault, never an access denial.
func (s *Server) withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		subject, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.store.GetUserByEmail(r.Context(), subject)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		if !user.Active {
			// A disabled account is rejected on its very next request, even
			// with a structurally valid token.
			next.ServeHTTP(w, r)
			return
		}

		principal := &authz.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}
		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := authz.RequireAuthenticated(principalFromContext(r.Context())); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := authz.RequireRole(principalFromContext(r.Context()), roles...)
			switch {
			case errors.Is(err, authz.ErrUnauthenticated):
				writeError(w, http.StatusUnauthorized, "unauthenticated")
			case errors.Is(err, authz.ErrForbidden):
				writeError(w, http.StatusForbidden, "forbidden")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

type principalKey struct{}

func principalFromContext(ctx context.Context) *authz.Principal {
	value := ctx.Value(principalKey{})
	principal, _ := value.(*authz.Principal)
	return principal
}

// --- auth handlers ---

type registerRequest struct {
	Name        string  `json:"name"`
	Surname     string  `json:"surname"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Role        string  `json:"role"`
	PhoneNumber *string `json:"phoneNumber"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  userSummary `json:"user"`
}

type userSummary struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Surname     string  `json:"surname"`
	Role        string  `json:"role"`
	Avatar      *string `json:"avatar,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	Biography   *string `json:"biography,omitempty"`
	Active      bool    `json:"isActive"`
}

func toUserSummary(user model.User) userSummary {
	return userSummary{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Surname:     user.Surname,
		Role:        string(user.Role),
		Avatar:      user.Avatar,
		PhoneNumber: user.PhoneNumber,
		Biography:   user.Biography,
		Active:      user.Active,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	token, user, err := s.creds.Register(r.Context(), service.RegisterInput{
		Name:        req.Name,
		Surname:     req.Surname,
		Email:       req.Email,
		Password:    req.Password,
		Role:        model.Role(strings.ToUpper(req.Role)),
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateIdentity):
			writeError(w, http.StatusConflict, "duplicate_identity")
		case errors.Is(err, service.ErrInvalidRole):
			writeError(w, http.StatusBadRequest, "invalid_role")
		default:
			writeError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserSummary(user)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	token, user, err := s.creds.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserSummary(user)})
}

// handleValidate exists for the frontend to check a stored token on reload.
// Reaching it at all means the interceptor accepted the token.
func (s *Server) handleValidate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, true)
}

// --- helpers ---

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// storeError maps persistence failures onto wire statuses: a missing row is a
// 404, anything else is an infrastructure fault and must not masquerade as a
// denial.
func storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeError(w, http.StatusInternalServerError, "server_error")
}
