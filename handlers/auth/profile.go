package auth

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/simplelms/api/model"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
	"github.com/simplelms/api/utils/validation"
)

// ProfileResponse is the user projection plus course counters
type ProfileResponse struct {
	UserResponse
	TotalCoursesEnrolled int64 `json:"total_courses_enrolled"`
	TotalCoursesTeaching int64 `json:"total_courses_teaching"`
}

// GetProfile returns the authenticated user's profile with course counters
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	res := ProfileResponse{UserResponse: toUserResponse(user)}

	err := h.db.Model(&model.CourseMember{}).
		Where("user_id = ? AND role = ?", user.ID, model.RoleStudent).
		Count(&res.TotalCoursesEnrolled).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load profile")
	}

	err = h.db.Model(&model.Course{}).
		Where("teacher_id = ?", user.ID).
		Count(&res.TotalCoursesTeaching).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load profile")
	}

	return response.Success(c, res)
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
}

// UpdateProfile applies a partial update to the authenticated user
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.Email != nil {
		email := validation.SanitizeString(*req.Email)
		var count int64
		h.db.Model(&model.User{}).
			Where("email = ? AND id != ?", email, user.ID).
			Count(&count)
		if count > 0 {
			return response.Conflict(c, "Email already registered")
		}
		user.Email = email
	}
	if req.FirstName != nil {
		user.FirstName = validation.SanitizeString(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = validation.SanitizeString(*req.LastName)
	}

	if err := h.db.Save(user).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return response.Conflict(c, "Email already registered")
		}
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.SuccessWithMessage(c, "Profile updated successfully", toUserResponse(user))
}
