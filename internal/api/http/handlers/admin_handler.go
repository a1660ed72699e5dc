package handlers

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-portal/internal/api/dto"
	"github.com/spec-kit/complaint-portal/internal/auth"
	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/repository"
	"github.com/spec-kit/complaint-portal/internal/service"
	"github.com/spec-kit/complaint-portal/internal/storage"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

// AdminHandler manages authentication and administrator endpoints.
type AdminHandler struct {
	complaints *service.ComplaintService
	authSvc    *service.AuthService
	images     storage.ImageStore
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewAdminHandler constructs handler.
func NewAdminHandler(complaints *service.ComplaintService, authSvc *service.AuthService, images storage.ImageStore, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		complaints: complaints,
		authSvc:    authSvc,
		images:     images,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Login POST /auth/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return apperrors.NewValidationError("email and password required", nil)
	}

	admin, token, exp, err := h.authSvc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AdminLoginResponse{
		Token:     token,
		ExpiresAt: exp,
		AdminName: admin.Name,
	}})
}

// ListComplaints GET /api/admin/complaints.
func (h *AdminHandler) ListComplaints(c *fiber.Ctx) error {
	filter := parseComplaintQuery(c)
	complaints, err := h.complaints.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		items = append(items, complaintSummary(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetComplaint GET /api/admin/complaints/:id.
func (h *AdminHandler) GetComplaint(c *fiber.Ctx) error {
	complaint, history, err := h.complaints.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.complaintDetail(c, complaint, history)})
}

// UpdateStatus PATCH /api/admin/complaints/:id/status.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Admin == nil {
		return apperrors.NewUnauthorized("admin required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return apperrors.NewValidationError("status required", nil)
	}

	complaint, err := h.complaints.UpdateStatus(
		c.UserContext(),
		principal.Admin.ID,
		c.Params("id"),
		domain.ComplaintStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		req.Note,
	)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintSummary(complaint)})
}

// Stats GET /api/admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.complaints.Stats(c.UserContext())
	if err != nil {
		return err
	}

	byStatus := make(map[string]int64, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[string(status)] = count
	}
	byDept := make(map[string]int64, len(stats.ByDepartment))
	for dept, count := range stats.ByDepartment {
		byDept[string(dept)] = count
	}
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		Total:        stats.Total,
		ByStatus:     byStatus,
		ByDepartment: byDept,
	}})
}

func parseComplaintQuery(c *fiber.Ctx) repository.ComplaintFilter {
	filter := repository.ComplaintFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.ComplaintStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if deptStr := c.Query("department"); deptStr != "" {
		for _, part := range strings.Split(deptStr, ",") {
			filter.Departments = append(filter.Departments, domain.Department(strings.TrimSpace(part)))
		}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func complaintSummary(complaint *domain.Complaint) dto.ComplaintSummary {
	return dto.ComplaintSummary{
		ID:           complaint.ID,
		TrackingCode: complaint.TrackingCode,
		City:         complaint.City,
		State:        complaint.State,
		Department:   complaint.Department,
		Confidence:   complaint.Confidence,
		Status:       complaint.Status,
		CreatedAt:    complaint.CreatedAt,
		UpdatedAt:    complaint.UpdatedAt,
	}
}

func (h *AdminHandler) complaintDetail(c *fiber.Ctx, complaint *domain.Complaint, history []domain.StatusHistory) dto.ComplaintDetailResponse {
	entries := make([]dto.StatusHistoryResponse, 0, len(history))
	for _, entry := range history {
		entries = append(entries, dto.StatusHistoryResponse{
			ID:        entry.ID,
			AdminID:   entry.AdminID,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		})
	}

	detail := dto.ComplaintDetailResponse{
		ID:            complaint.ID,
		TrackingCode:  complaint.TrackingCode,
		SubmitterName: complaint.SubmitterName,
		City:          complaint.City,
		State:         complaint.State,
		Description:   complaint.Description,
		Department:    complaint.Department,
		Confidence:    complaint.Confidence,
		Status:        complaint.Status,
		CreatedAt:     complaint.CreatedAt,
		UpdatedAt:     complaint.UpdatedAt,
		History:       entries,
	}
	if complaint.ImageKey != nil && h.images != nil {
		url, err := h.images.PresignedURL(c.UserContext(), *complaint.ImageKey)
		if err != nil {
			h.logger.Warn("presign image failed", zap.Error(err))
		} else {
			detail.ImageURL = &url
		}
	}
	return detail
}
