// Package handler chứa HTTP handler cho API báo cáo hàng ngày.
package handler

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "store_reports/internal/api/base/handler"
	"store_reports/internal/api/submission/dto"
	submissionmodels "store_reports/internal/api/submission/models"
	submissionsvc "store_reports/internal/api/submission/service"
	"store_reports/internal/common"
	"store_reports/internal/global"
	"store_reports/internal/logger"
)

// SubmissionHandler xử lý các request về báo cáo hàng ngày
type SubmissionHandler struct {
	service *submissionsvc.SubmissionService
}

// NewSubmissionHandler tạo mới SubmissionHandler
func NewSubmissionHandler() (*SubmissionHandler, error) {
	service, err := submissionsvc.NewSubmissionService()
	if err != nil {
		return nil, err
	}
	return &SubmissionHandler{service: service}, nil
}

// HandleSubmit nộp báo cáo hàng ngày. Nộp lại cùng ngày sẽ ghi đè báo cáo cũ.
func (h *SubmissionHandler) HandleSubmit(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var req dto.SubmitRequest
		if err := c.Bind().Body(&req); err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				common.MsgValidationError,
				common.StatusBadRequest,
				err.Error(),
			))
			return nil
		}
		if err := global.Validate.Struct(&req); err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				common.MsgValidationError,
				common.StatusBadRequest,
				err.Error(),
			))
			return nil
		}

		userID, err1 := primitive.ObjectIDFromHex(req.UserID)
		storeID, err2 := primitive.ObjectIDFromHex(req.StoreID)
		departmentID, err3 := primitive.ObjectIDFromHex(req.DepartmentID)
		if err1 != nil || err2 != nil || err3 != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
			return nil
		}

		status := req.Status
		if status == "" {
			status = submissionmodels.StatusSubmitted
		}

		submission := submissionmodels.Submission{
			UserID:       userID,
			StoreID:      storeID,
			DepartmentID: departmentID,
			ReportDate:   req.ReportDate,
			Status:       status,
			Roles:        req.Roles,
			Fixed:        req.Fixed,
			Payload:      req.Payload,
		}

		saved, err := h.service.SubmitDaily(c.Context(), submission)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogSubmission("submit", saved.ID.Hex(), c, map[string]interface{}{
			"store_id":      saved.StoreID.Hex(),
			"department_id": saved.DepartmentID.Hex(),
			"report_date":   saved.ReportDate,
			"status":        saved.Status,
		})

		basehdl.HandleResponse(c, saved, nil)
		return nil
	})
}

// HandleFind truy vấn danh sách báo cáo theo cửa hàng, bộ phận, nhân sự và khoảng ngày
func (h *SubmissionHandler) HandleFind(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var query dto.FindSubmissionsQuery
		if err := c.Bind().Query(&query); err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				common.MsgValidationError,
				common.StatusBadRequest,
				err.Error(),
			))
			return nil
		}
		if err := global.Validate.Struct(&query); err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				common.MsgValidationError,
				common.StatusBadRequest,
				err.Error(),
			))
			return nil
		}

		storeID, err := primitive.ObjectIDFromHex(query.StoreID)
		if err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
			return nil
		}

		filter := submissionsvc.SubmissionFilter{
			StoreID:  storeID,
			Status:   query.Status,
			FromDate: query.FromDate,
			ToDate:   query.ToDate,
		}
		if query.DepartmentID != "" {
			departmentID, err := primitive.ObjectIDFromHex(query.DepartmentID)
			if err != nil {
				basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
				return nil
			}
			filter.DepartmentID = &departmentID
		}
		if query.UserID != "" {
			userID, err := primitive.ObjectIDFromHex(query.UserID)
			if err != nil {
				basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
				return nil
			}
			filter.UserID = &userID
		}

		page := query.Page
		if page < 1 {
			page = 1
		}
		limit := query.Limit
		if limit < 1 {
			limit = 20
		}

		result, err := h.service.FindSubmissions(c.Context(), filter, page, limit)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		basehdl.HandleResponse(c, result, nil)
		return nil
	})
}
