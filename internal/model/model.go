package model

import "time"

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

type CourseStatus string

const (
	CourseDraft         CourseStatus = "DRAFT"
	CoursePendingReview CourseStatus = "PENDING_REVIEW"
	CoursePublished     CourseStatus = "PUBLISHED"
	CourseRejected      CourseStatus = "REJECTED"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentCancelled EnrollmentStatus = "CANCELLED"
)

type LiveClassStatus string

const (
	LiveClassScheduled LiveClassStatus = "SCHEDULED"
	LiveClassLive      LiveClassStatus = "LIVE"
	LiveClassFinished  LiveClassStatus = "FINISHED"
	LiveClassCancelled LiveClassStatus = "CANCELLED"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Surname      string
	Role         Role
	Avatar       *string
	PhoneNumber  *string
	Biography    *string
	LinkedinURL  *string
	WebsiteURL   *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Course struct {
	ID                 string
	TeacherID          string
	Title              string
	Description        string
	ShortDescription   string
	Category           string
	Level              string
	Language           string
	Price              float64
	Currency           string
	Thumbnail          *string
	PreviewVideo       *string
	LearningObjectives []string
	Requirements       []string
	Tags               []string
	EnrolledStudents   int
	Rating             float64
	TotalReviews       int
	Status             CourseStatus
	HasCertificate     bool
	HasLiveClasses     bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CourseSection struct {
	ID       string
	CourseID string
	Title    string
	Position int
}

type Lesson struct {
	ID         string
	SectionID  string
	Title      string
	ContentURL *string
	Duration   int
	Position   int
}

type Enrollment struct {
	ID                 string
	StudentID          string
	CourseID           string
	AmountPaid         float64
	Currency           string
	PaymentID          string
	Status             EnrollmentStatus
	EnrolledAt         time.Time
	CompletedAt        *time.Time
	ProgressPercentage int
	CompletedLessonIDs []string
}

type Review struct {
	ID                string
	CourseID          string
	StudentID         string
	Rating            int
	Comment           string
	TeacherResponse   *string
	TeacherResponseAt *time.Time
	CreatedAt         time.Time
}

type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	Subject    string
	Content    string
	Read       bool
	SentAt     time.Time
}

type LiveClass struct {
	ID          string
	CourseID    string
	TeacherID   string
	Title       string
	Description string
	ScheduledAt time.Time
	Duration    int
	Platform    string
	MeetingURL  *string
	Status      LiveClassStatus
	CreatedAt   time.Time
}
