// Package handler chứa HTTP handler cho API tổng hợp báo cáo.
package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "store_reports/internal/api/base/handler"
	"store_reports/internal/api/report/dto"
	reportsvc "store_reports/internal/api/report/service"
	submissionmodels "store_reports/internal/api/submission/models"
	"store_reports/internal/common"
	"store_reports/internal/global"
	"store_reports/internal/logger"
)

// ReportHandler xử lý các request tổng hợp báo cáo
type ReportHandler struct {
	service *reportsvc.ReportService
}

// NewReportHandler tạo mới ReportHandler với engine nối các service Mongo thật
func NewReportHandler() (*ReportHandler, error) {
	service, err := reportsvc.NewReportService()
	if err != nil {
		return nil, err
	}
	return &ReportHandler{service: service}, nil
}

// NewReportHandlerWithService tạo ReportHandler với engine được tiêm vào, dùng cho test
func NewReportHandlerWithService(service *reportsvc.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// HandleAggregate tổng hợp báo cáo của một cửa hàng trong khoảng ngày.
// departmentId bỏ trống hoặc "all" nghĩa là gộp cả cửa hàng.
func (h *ReportHandler) HandleAggregate(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var query dto.AggregateQuery
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

		from, err := time.Parse(dto.QueryDateLayout, query.From)
		if err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidRange)
			return nil
		}
		to, err := time.Parse(dto.QueryDateLayout, query.To)
		if err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidRange)
			return nil
		}

		aggregateQuery := reportsvc.AggregateQuery{
			StoreID:       storeID,
			FromDate:      from.Format(submissionmodels.ReportDateLayout),
			ToDate:        to.Format(submissionmodels.ReportDateLayout),
			IncludeValues: query.IncludeValues,
		}
		if query.DepartmentID != "" && query.DepartmentID != "all" {
			departmentID, err := primitive.ObjectIDFromHex(query.DepartmentID)
			if err != nil {
				basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
				return nil
			}
			aggregateQuery.DepartmentID = &departmentID
		}

		summary, err := h.service.Aggregate(c.Context(), aggregateQuery)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogAggregation(summary.StoreID, c, map[string]interface{}{
			"from":                aggregateQuery.FromDate,
			"to":                  aggregateQuery.ToDate,
			"departments":         len(summary.Departments),
			"skipped_submissions": summary.Meta.SkippedSubmissions,
			"ambiguous_fields":    summary.Meta.AmbiguousFields,
			"config_fallbacks":    summary.Meta.ConfigFallbacks,
		})

		basehdl.HandleResponse(c, summary, nil)
		return nil
	})
}
