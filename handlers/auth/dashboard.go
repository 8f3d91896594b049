package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/simplelms/api/model"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
)

// DashboardResponse is the per-user activity summary
type DashboardResponse struct {
	CoursesEnrolled int64    `json:"courses_enrolled"`
	CoursesTeaching int64    `json:"courses_teaching"`
	CommentsWritten int64    `json:"comments_written"`
	RecentActivity  []string `json:"recent_activity"`
}

// GetDashboard returns counters plus up to 5 recent activity strings:
// the 3 most recent enrollments and the 3 most recent comments, truncated.
func (h *AuthHandler) GetDashboard(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	res := DashboardResponse{RecentActivity: []string{}}

	err := h.db.Model(&model.CourseMember{}).
		Where("user_id = ? AND role = ?", user.ID, model.RoleStudent).
		Count(&res.CoursesEnrolled).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard")
	}

	err = h.db.Model(&model.Course{}).
		Where("teacher_id = ?", user.ID).
		Count(&res.CoursesTeaching).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard")
	}

	err = h.db.Model(&model.Comment{}).
		Joins("JOIN course_members ON course_members.id = comments.member_id").
		Where("course_members.user_id = ?", user.ID).
		Count(&res.CommentsWritten).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard")
	}

	var enrollments []model.CourseMember
	err = h.db.Preload("Course").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(3).
		Find(&enrollments).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard")
	}
	for _, enrollment := range enrollments {
		res.RecentActivity = append(res.RecentActivity,
			fmt.Sprintf("Enrolled in %s", enrollment.Course.Name))
	}

	var comments []model.Comment
	err = h.db.Preload("Content").
		Joins("JOIN course_members ON course_members.id = comments.member_id").
		Where("course_members.user_id = ?", user.ID).
		Order("comments.created_at DESC").
		Limit(3).
		Find(&comments).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard")
	}
	for _, comment := range comments {
		text := comment.Comment
		if len(text) > 50 {
			text = text[:50] + "..."
		}
		res.RecentActivity = append(res.RecentActivity,
			fmt.Sprintf("Commented on %s: %s", comment.Content.Name, text))
	}

	if len(res.RecentActivity) > 5 {
		res.RecentActivity = res.RecentActivity[:5]
	}

	return response.Success(c, res)
}
