package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"gorm.io/gorm"

	"github.com/simplelms/api/model"
)

// CertificateService renders the course certificate document. The
// completion date is the latest completion row's timestamp; with no
// completions at all it falls back to the current time, so a 0% student
// still receives a dated certificate.
type CertificateService struct {
	db         *gorm.DB
	engagement *EngagementService
	tmpl       *template.Template
}

// Certificate is the rendered certificate payload
type Certificate struct {
	CourseID           uint      `json:"course_id"`
	CourseName         string    `json:"course_name"`
	StudentName        string    `json:"student_name"`
	TeacherName        string    `json:"teacher_name"`
	ProgressPercentage float64   `json:"progress_percentage"`
	CompletionDate     time.Time `json:"completion_date"`
	CertificateHTML    string    `json:"certificate_html"`
}

const certificateTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Certificate of Completion</title>
<style>
body { font-family: Georgia, serif; text-align: center; padding: 60px; }
.certificate { border: 12px double #2c3e50; padding: 48px; }
h1 { font-size: 40px; letter-spacing: 4px; color: #2c3e50; }
.student { font-size: 32px; margin: 24px 0; }
.course { font-size: 24px; font-style: italic; }
.footer { margin-top: 48px; font-size: 14px; color: #7f8c8d; }
</style>
</head>
<body>
<div class="certificate">
<h1>CERTIFICATE OF COMPLETION</h1>
<p>This certifies that</p>
<p class="student">{{.StudentName}}</p>
<p>has completed {{printf "%.2f" .ProgressPercentage}}% of the course</p>
<p class="course">{{.CourseName}}</p>
<p class="footer">Instructor: {{.TeacherName}}<br>Date: {{.CompletionDate.Format "January 2, 2006"}}</p>
</div>
</body>
</html>
`

// NewCertificateService creates a new certificate service
func NewCertificateService(db *gorm.DB, engagement *EngagementService) *CertificateService {
	return &CertificateService{
		db:         db,
		engagement: engagement,
		tmpl:       template.Must(template.New("certificate").Parse(certificateTemplate)),
	}
}

// Generate builds the certificate for a (course, user) pair
func (s *CertificateService) Generate(ctx context.Context, courseID, userID uint) (*Certificate, error) {
	var course model.Course
	err := s.db.WithContext(ctx).Preload("Teacher").First(&course, courseID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	var student model.User
	if err := s.db.WithContext(ctx).First(&student, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	progress, err := s.engagement.Progress(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}

	completionDate := time.Now()
	var latest model.CompletionTracking
	err = s.db.WithContext(ctx).
		Joins("JOIN course_contents ON course_contents.id = completion_trackings.content_id").
		Where("completion_trackings.user_id = ? AND course_contents.course_id = ?", userID, courseID).
		Order("completion_trackings.completed_at DESC").
		First(&latest).Error
	if err == nil {
		completionDate = latest.CompletedAt
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to load latest completion: %w", err)
	}

	cert := &Certificate{
		CourseID:           course.ID,
		CourseName:         course.Name,
		StudentName:        student.FullName(),
		TeacherName:        course.Teacher.FullName(),
		ProgressPercentage: progress.ProgressPercentage,
		CompletionDate:     completionDate,
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, cert); err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	cert.CertificateHTML = buf.String()

	return cert, nil
}
