package handlers

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-portal/internal/api/dto"
	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/service"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

// ComplaintsHandler manages citizen-facing complaint endpoints.
type ComplaintsHandler struct {
	service *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{service: complaintService}
}

// Submit POST /api/complaints. Multipart form: name, city, state,
// description, optional image.
func (h *ComplaintsHandler) Submit(c *fiber.Ctx) error {
	input := service.SubmitInput{
		SubmitterName: c.FormValue("name"),
		City:          c.FormValue("city"),
		State:         c.FormValue("state"),
		Description:   c.FormValue("description"),
	}

	if fileHeader, err := c.FormFile("image"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			return apperrors.NewValidationError("unreadable image upload", nil)
		}
		defer file.Close()
		input.Image = &service.ImageUpload{
			Reader:      file,
			Size:        fileHeader.Size,
			ContentType: contentTypeOf(fileHeader),
		}
	}

	complaint, err := h.service.Submit(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.SubmitComplaintResponse{
		TrackingCode: complaint.TrackingCode,
		Department:   complaint.Department,
		Confidence:   complaint.Confidence,
	}})
}

// Track GET /api/complaints/:code.
func (h *ComplaintsHandler) Track(c *fiber.Ctx) error {
	complaint, err := h.service.Track(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": trackResponse(complaint)})
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func trackResponse(complaint *domain.Complaint) dto.TrackComplaintResponse {
	return dto.TrackComplaintResponse{
		TrackingCode: complaint.TrackingCode,
		City:         complaint.City,
		State:        complaint.State,
		Description:  complaint.Description,
		Department:   complaint.Department,
		Status:       complaint.Status,
		CreatedAt:    complaint.CreatedAt,
		UpdatedAt:    complaint.UpdatedAt,
	}
}
