package course

import (
	"github.com/gofiber/fiber/v2"

	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
	"github.com/simplelms/api/utils/storage"
)

// UploadImage stores a course image in the blob store and records its
// object key; course teacher only.
func (h *CourseHandler) UploadImage(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}
	if course.TeacherID != userID {
		return response.Forbidden(c, "Only the course teacher can upload a course image")
	}

	if h.blobStore == nil {
		return response.InternalServerError(c, "File storage is not configured")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return response.BadRequest(c, "Image file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "Failed to read uploaded file")
	}
	defer file.Close()

	key := storage.GenerateKey("course-images", fileHeader.Filename)
	contentType := storage.GetContentType(fileHeader.Filename)

	url, err := h.blobStore.UploadFile(c.Context(), key, file, contentType)
	if err != nil {
		return response.InternalServerError(c, "Failed to upload image")
	}

	course.Image = &key
	if err := h.db.Save(course).Error; err != nil {
		return response.InternalServerError(c, "Failed to save course image")
	}

	return response.SuccessWithMessage(c, "Course image uploaded", fiber.Map{
		"image_key": key,
		"image_url": url,
	})
}
