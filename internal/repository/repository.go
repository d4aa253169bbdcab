package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"aulago/backend/internal/model"
)

var (
	ErrNotFound = errors.New("not_found")
	// ErrDuplicate is raised from the database uniqueness constraint. It is the
	// authoritative duplicate signal: no check-then-insert race can bypass it.
	ErrDuplicate = errors.New("duplicate")
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// --- users ---

const userColumns = `id, email, password_hash, name, surname, role, avatar, phone_number,
	biography, linkedin_url, website_url, active, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Surname,
		&user.Role,
		&user.Avatar,
		&user.PhoneNumber,
		&user.Biography,
		&user.LinkedinURL,
		&user.WebsiteURL,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, mapErr(err)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, surname, role, avatar, phone_number,
			biography, linkedin_url, website_url, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, user.ID, user.Email, user.PasswordHash, user.Name, user.Surname, user.Role, user.Avatar,
		user.PhoneNumber, user.Biography, user.LinkedinURL, user.WebsiteURL, user.Active,
		user.CreatedAt, user.UpdatedAt)
	return mapErr(err)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, mapErr(rows.Err())
}

func (s *Store) SetUserActive(ctx context.Context, userID string, active bool) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET active = $1, updated_at = $2 WHERE id = $3
		RETURNING `+userColumns, active, time.Now().UTC(), userID)
	return scanUser(row)
}

// --- courses ---

const courseColumns = `id, teacher_id, title, description, short_description, category, level,
	language, price, currency, thumbnail, preview_video, learning_objectives, requirements,
	tags, enrolled_students, rating, total_reviews, status, has_certificate, has_live_classes,
	created_at, updated_at`

func scanCourse(row pgx.Row) (model.Course, error) {
	var course model.Course
	err := row.Scan(
		&course.ID,
		&course.TeacherID,
		&course.Title,
		&course.Description,
		&course.ShortDescription,
		&course.Category,
		&course.Level,
		&course.Language,
		&course.Price,
		&course.Currency,
		&course.Thumbnail,
		&course.PreviewVideo,
		&course.LearningObjectives,
		&course.Requirements,
		&course.Tags,
		&course.EnrolledStudents,
		&course.Rating,
		&course.TotalReviews,
		&course.Status,
		&course.HasCertificate,
		&course.HasLiveClasses,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	return course, mapErr(err)
}

func (s *Store) CreateCourse(ctx context.Context, course model.Course) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO courses (id, teacher_id, title, description, short_description, category,
			level, language, price, currency, thumbnail, preview_video, learning_objectives,
			requirements, tags, enrolled_students, rating, total_reviews, status,
			has_certificate, has_live_classes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23)
	`, course.ID, course.TeacherID, course.Title, course.Description, course.ShortDescription,
		course.Category, course.Level, course.Language, course.Price, course.Currency,
		course.Thumbnail, course.PreviewVideo, course.LearningObjectives, course.Requirements,
		course.Tags, course.EnrolledStudents, course.Rating, course.TotalReviews, course.Status,
		course.HasCertificate, course.HasLiveClasses, course.CreatedAt, course.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetCourse(ctx context.Context, courseID string) (model.Course, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, courseID)
	return scanCourse(row)
}

// CourseOwner resolves just the owning teacher id, for the ownership gate.
func (s *Store) CourseOwner(ctx context.Context, courseID string) (string, error) {
	var teacherID string
	err := s.pool.QueryRow(ctx, `SELECT teacher_id FROM courses WHERE id = $1`, courseID).Scan(&teacherID)
	return teacherID, mapErr(err)
}

type CourseFilters struct {
	Category string
	Level    string
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Limit    int
}

func (s *Store) ListPublishedCourses(ctx context.Context, filters CourseFilters) ([]model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE status = 'PUBLISHED'`
	args := []interface{}{}
	idx := 1
	add := func(clause string, value interface{}) {
		query += ` AND ` + clause
		args = append(args, value)
		idx++
	}
	if filters.Category != "" {
		add(`category = $`+strconv.Itoa(idx), filters.Category)
	}
	if filters.Level != "" {
		add(`level = $`+strconv.Itoa(idx), filters.Level)
	}
	if filters.Search != "" {
		add(`(title ILIKE '%' || $`+strconv.Itoa(idx)+` || '%' OR description ILIKE '%' || $`+strconv.Itoa(idx)+` || '%')`, filters.Search)
	}
	if filters.MinPrice != nil {
		add(`price >= $`+strconv.Itoa(idx), *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		add(`price <= $`+strconv.Itoa(idx), *filters.MaxPrice)
	}
	query += ` ORDER BY created_at DESC`
	if filters.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(idx)
		args = append(args, filters.Limit)
	}
	return s.queryCourses(ctx, query, args...)
}

func (s *Store) ListFeaturedCourses(ctx context.Context, limit int) ([]model.Course, error) {
	return s.queryCourses(ctx, `
		SELECT `+courseColumns+` FROM courses
		WHERE status = 'PUBLISHED'
		ORDER BY rating DESC, enrolled_students DESC
		LIMIT $1
	`, limit)
}

func (s *Store) ListCoursesByTeacher(ctx context.Context, teacherID string) ([]model.Course, error) {
	return s.queryCourses(ctx, `
		SELECT `+courseColumns+` FROM courses WHERE teacher_id = $1 ORDER BY created_at DESC
	`, teacherID)
}

func (s *Store) ListCoursesByStudent(ctx context.Context, studentID string) ([]model.Course, error) {
	return s.queryCourses(ctx, `
		SELECT `+courseColumns+` FROM courses
		WHERE id IN (SELECT course_id FROM enrollments WHERE student_id = $1)
		ORDER BY created_at DESC
	`, studentID)
}

func (s *Store) ListCoursesByStatus(ctx context.Context, status model.CourseStatus) ([]model.Course, error) {
	return s.queryCourses(ctx, `
		SELECT `+courseColumns+` FROM courses WHERE status = $1 ORDER BY created_at DESC
	`, status)
}

func (s *Store) ListAllCourses(ctx context.Context) ([]model.Course, error) {
	return s.queryCourses(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC`)
}

func (s *Store) queryCourses(ctx context.Context, query string, args ...interface{}) ([]model.Course, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, mapErr(rows.Err())
}

func (s *Store) UpdateCourse(ctx context.Context, course model.Course) (model.Course, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE courses SET title = $1, description = $2, short_description = $3, category = $4,
			level = $5, language = $6, price = $7, currency = $8, thumbnail = $9,
			preview_video = $10, learning_objectives = $11, requirements = $12, tags = $13,
			has_certificate = $14, has_live_classes = $15, updated_at = $16
		WHERE id = $17
		RETURNING `+courseColumns,
		course.Title, course.Description, course.ShortDescription, course.Category, course.Level,
		course.Language, course.Price, course.Currency, course.Thumbnail, course.PreviewVideo,
		course.LearningObjectives, course.Requirements, course.Tags, course.HasCertificate,
		course.HasLiveClasses, time.Now().UTC(), course.ID)
	return scanCourse(row)
}

func (s *Store) SetCourseStatus(ctx context.Context, courseID string, status model.CourseStatus) (model.Course, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE courses SET status = $1, updated_at = $2 WHERE id = $3
		RETURNING `+courseColumns, status, time.Now().UTC(), courseID)
	return scanCourse(row)
}

func (s *Store) IncrementEnrolledStudents(ctx context.Context, courseID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE courses SET enrolled_students = enrolled_students + 1, updated_at = $1 WHERE id = $2
	`, time.Now().UTC(), courseID)
	return mapErr(err)
}

func (s *Store) UpdateCourseRating(ctx context.Context, courseID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE courses SET
			rating = COALESCE((SELECT AVG(rating)::float8 FROM reviews WHERE course_id = $1), 0),
			total_reviews = (SELECT COUNT(*) FROM reviews WHERE course_id = $1),
			updated_at = $2
		WHERE id = $1
	`, courseID, time.Now().UTC())
	return mapErr(err)
}

// --- sections and lessons ---

func (s *Store) CreateSection(ctx context.Context, section model.CourseSection) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO course_sections (id, course_id, title, position)
		VALUES ($1, $2, $3, $4)
	`, section.ID, section.CourseID, section.Title, section.Position)
	return mapErr(err)
}

func (s *Store) CreateLesson(ctx context.Context, lesson model.Lesson) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO lessons (id, section_id, title, content_url, duration, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, lesson.ID, lesson.SectionID, lesson.Title, lesson.ContentURL, lesson.Duration, lesson.Position)
	return mapErr(err)
}

func (s *Store) ListSections(ctx context.Context, courseID string) ([]model.CourseSection, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, course_id, title, position FROM course_sections
		WHERE course_id = $1 ORDER BY position
	`, courseID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var sections []model.CourseSection
	for rows.Next() {
		var section model.CourseSection
		if err := rows.Scan(&section.ID, &section.CourseID, &section.Title, &section.Position); err != nil {
			return nil, mapErr(err)
		}
		sections = append(sections, section)
	}
	return sections, mapErr(rows.Err())
}

func (s *Store) ListLessons(ctx context.Context, sectionID string) ([]model.Lesson, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, section_id, title, content_url, duration, position FROM lessons
		WHERE section_id = $1 ORDER BY position
	`, sectionID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		var lesson model.Lesson
		if err := rows.Scan(&lesson.ID, &lesson.SectionID, &lesson.Title, &lesson.ContentURL,
			&lesson.Duration, &lesson.Position); err != nil {
			return nil, mapErr(err)
		}
		lessons = append(lessons, lesson)
	}
	return lessons, mapErr(rows.Err())
}

// SectionCourse resolves the course a section belongs to, so content edits can
// be ownership-gated through the owning course.
func (s *Store) SectionCourse(ctx context.Context, sectionID string) (string, error) {
	var courseID string
	err := s.pool.QueryRow(ctx, `SELECT course_id FROM course_sections WHERE id = $1`, sectionID).Scan(&courseID)
	return courseID, mapErr(err)
}

func (s *Store) CountLessons(ctx context.Context, courseID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM lessons l
		JOIN course_sections cs ON cs.id = l.section_id
		WHERE cs.course_id = $1
	`, courseID).Scan(&count)
	return count, mapErr(err)
}

// --- enrollments ---

const enrollmentColumns = `id, student_id, course_id, amount_paid, currency, payment_id, status,
	enrolled_at, completed_at, progress_percentage, completed_lesson_ids`

func scanEnrollment(row pgx.Row) (model.Enrollment, error) {
	var enrollment model.Enrollment
	err := row.Scan(
		&enrollment.ID,
		&enrollment.StudentID,
		&enrollment.CourseID,
		&enrollment.AmountPaid,
		&enrollment.Currency,
		&enrollment.PaymentID,
		&enrollment.Status,
		&enrollment.EnrolledAt,
		&enrollment.CompletedAt,
		&enrollment.ProgressPercentage,
		&enrollment.CompletedLessonIDs,
	)
	return enrollment, mapErr(err)
}

func (s *Store) CreateEnrollment(ctx context.Context, enrollment model.Enrollment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enrollments (id, student_id, course_id, amount_paid, currency, payment_id,
			status, enrolled_at, completed_at, progress_percentage, completed_lesson_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, enrollment.ID, enrollment.StudentID, enrollment.CourseID, enrollment.AmountPaid,
		enrollment.Currency, enrollment.PaymentID, enrollment.Status, enrollment.EnrolledAt,
		enrollment.CompletedAt, enrollment.ProgressPercentage, enrollment.CompletedLessonIDs)
	return mapErr(err)
}

func (s *Store) GetEnrollment(ctx context.Context, studentID, courseID string) (model.Enrollment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+enrollmentColumns+` FROM enrollments WHERE student_id = $1 AND course_id = $2
	`, studentID, courseID)
	return scanEnrollment(row)
}

func (s *Store) ExistsEnrollment(ctx context.Context, studentID, courseID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2)
	`, studentID, courseID).Scan(&exists)
	return exists, mapErr(err)
}

func (s *Store) ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+enrollmentColumns+` FROM enrollments WHERE student_id = $1 ORDER BY enrolled_at DESC
	`, studentID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enrollment)
	}
	return enrollments, mapErr(rows.Err())
}

func (s *Store) UpdateEnrollmentProgress(ctx context.Context, enrollment model.Enrollment) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE enrollments SET status = $1, completed_at = $2, progress_percentage = $3,
			completed_lesson_ids = $4
		WHERE id = $5
	`, enrollment.Status, enrollment.CompletedAt, enrollment.ProgressPercentage,
		enrollment.CompletedLessonIDs, enrollment.ID)
	return mapErr(err)
}

func (s *Store) ListStudentsByCourse(ctx context.Context, courseID string) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id IN (SELECT student_id FROM enrollments WHERE course_id = $1)
		ORDER BY created_at DESC
	`, courseID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, mapErr(rows.Err())
}

// --- reviews ---

const reviewColumns = `id, course_id, student_id, rating, comment, teacher_response,
	teacher_response_at, created_at`

func scanReview(row pgx.Row) (model.Review, error) {
	var review model.Review
	err := row.Scan(
		&review.ID,
		&review.CourseID,
		&review.StudentID,
		&review.Rating,
		&review.Comment,
		&review.TeacherResponse,
		&review.TeacherResponseAt,
		&review.CreatedAt,
	)
	return review, mapErr(err)
}

func (s *Store) CreateReview(ctx context.Context, review model.Review) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reviews (id, course_id, student_id, rating, comment, teacher_response,
			teacher_response_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, review.ID, review.CourseID, review.StudentID, review.Rating, review.Comment,
		review.TeacherResponse, review.TeacherResponseAt, review.CreatedAt)
	return mapErr(err)
}

func (s *Store) GetReview(ctx context.Context, reviewID string) (model.Review, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, reviewID)
	return scanReview(row)
}

func (s *Store) SetReviewReply(ctx context.Context, reviewID, response string, at time.Time) (model.Review, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE reviews SET teacher_response = $1, teacher_response_at = $2 WHERE id = $3
		RETURNING `+reviewColumns, response, at, reviewID)
	return scanReview(row)
}

func (s *Store) ListReviewsByCourse(ctx context.Context, courseID string) ([]model.Review, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reviewColumns+` FROM reviews WHERE course_id = $1 ORDER BY created_at DESC
	`, courseID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, mapErr(rows.Err())
}

// --- messages ---

const messageColumns = `id, sender_id, receiver_id, subject, content, is_read, sent_at`

func scanMessage(row pgx.Row) (model.Message, error) {
	var message model.Message
	err := row.Scan(
		&message.ID,
		&message.SenderID,
		&message.ReceiverID,
		&message.Subject,
		&message.Content,
		&message.Read,
		&message.SentAt,
	)
	return message, mapErr(err)
}

func (s *Store) CreateMessage(ctx context.Context, message model.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, subject, content, is_read, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, message.ID, message.SenderID, message.ReceiverID, message.Subject, message.Content,
		message.Read, message.SentAt)
	return mapErr(err)
}

func (s *Store) GetMessage(ctx context.Context, messageID string) (model.Message, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, messageID)
	return scanMessage(row)
}

func (s *Store) ListInbox(ctx context.Context, receiverID string) ([]model.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE receiver_id = $1 ORDER BY sent_at DESC
	`, receiverID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, mapErr(rows.Err())
}

func (s *Store) MarkMessageRead(ctx context.Context, messageID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE messages SET is_read = true WHERE id = $1`, messageID)
	return mapErr(err)
}

func (s *Store) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND is_read = false
	`, receiverID).Scan(&count)
	return count, mapErr(err)
}

// --- live classes ---

const liveClassColumns = `id, course_id, teacher_id, title, description, scheduled_at, duration,
	platform, meeting_url, status, created_at`

func scanLiveClass(row pgx.Row) (model.LiveClass, error) {
	var class model.LiveClass
	err := row.Scan(
		&class.ID,
		&class.CourseID,
		&class.TeacherID,
		&class.Title,
		&class.Description,
		&class.ScheduledAt,
		&class.Duration,
		&class.Platform,
		&class.MeetingURL,
		&class.Status,
		&class.CreatedAt,
	)
	return class, mapErr(err)
}

func (s *Store) CreateLiveClass(ctx context.Context, class model.LiveClass) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO live_classes (id, course_id, teacher_id, title, description, scheduled_at,
			duration, platform, meeting_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, class.ID, class.CourseID, class.TeacherID, class.Title, class.Description,
		class.ScheduledAt, class.Duration, class.Platform, class.MeetingURL, class.Status,
		class.CreatedAt)
	return mapErr(err)
}

func (s *Store) GetLiveClass(ctx context.Context, classID string) (model.LiveClass, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+liveClassColumns+` FROM live_classes WHERE id = $1`, classID)
	return scanLiveClass(row)
}

func (s *Store) ListLiveClassesByCourse(ctx context.Context, courseID string) ([]model.LiveClass, error) {
	return s.queryLiveClasses(ctx, `
		SELECT `+liveClassColumns+` FROM live_classes WHERE course_id = $1 ORDER BY scheduled_at
	`, courseID)
}

func (s *Store) ListLiveClassesByTeacher(ctx context.Context, teacherID string) ([]model.LiveClass, error) {
	return s.queryLiveClasses(ctx, `
		SELECT `+liveClassColumns+` FROM live_classes WHERE teacher_id = $1 ORDER BY scheduled_at
	`, teacherID)
}

func (s *Store) ListUpcomingClassesForStudent(ctx context.Context, studentID string, now time.Time) ([]model.LiveClass, error) {
	return s.queryLiveClasses(ctx, `
		SELECT `+liveClassColumns+` FROM live_classes
		WHERE course_id IN (SELECT course_id FROM enrollments WHERE student_id = $1)
			AND scheduled_at >= $2 AND status = 'SCHEDULED'
		ORDER BY scheduled_at
	`, studentID, now)
}

func (s *Store) queryLiveClasses(ctx context.Context, query string, args ...interface{}) ([]model.LiveClass, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var classes []model.LiveClass
	for rows.Next() {
		class, err := scanLiveClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	return classes, mapErr(rows.Err())
}

// SweepLiveClassStatuses advances SCHEDULED classes whose start time has passed
// to LIVE, and LIVE classes whose duration has elapsed to FINISHED. Returns the
// number of rows touched.
func (s *Store) SweepLiveClassStatuses(ctx context.Context, now time.Time) (int64, error) {
	started, err := s.pool.Exec(ctx, `
		UPDATE live_classes SET status = 'LIVE'
		WHERE status = 'SCHEDULED' AND scheduled_at <= $1
	`, now)
	if err != nil {
		return 0, mapErr(err)
	}
	finished, err := s.pool.Exec(ctx, `
		UPDATE live_classes SET status = 'FINISHED'
		WHERE status = 'LIVE' AND scheduled_at + (duration || ' minutes')::interval <= $1
	`, now)
	if err != nil {
		return started.RowsAffected(), mapErr(err)
	}
	return started.RowsAffected() + finished.RowsAffected(), nil
}

// --- admin stats ---

type PlatformStats struct {
	TotalUsers       int64
	TotalCourses     int64
	TotalEnrollments int64
	TotalRevenue     float64
}

func (s *Store) GetPlatformStats(ctx context.Context) (PlatformStats, error) {
	var stats PlatformStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM enrollments),
			(SELECT COALESCE(SUM(amount_paid), 0) FROM enrollments)
	`).Scan(&stats.TotalUsers, &stats.TotalCourses, &stats.TotalEnrollments, &stats.TotalRevenue)
	return stats, mapErr(err)
}

func (s *Store) TeacherRevenue(ctx context.Context, teacherID string) (float64, error) {
	var revenue float64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(e.amount_paid), 0)
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE c.teacher_id = $1
	`, teacherID).Scan(&revenue)
	return revenue, mapErr(err)
}

