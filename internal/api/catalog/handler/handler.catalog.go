// Package handler chứa HTTP handler cho API danh mục field chuẩn.
package handler

import (
	"github.com/gofiber/fiber/v3"

	basehdl "store_reports/internal/api/base/handler"
	"store_reports/internal/api/catalog/dto"
	catalogsvc "store_reports/internal/api/catalog/service"
	"store_reports/internal/common"
	"store_reports/internal/global"
	"store_reports/internal/logger"
)

// CatalogHandler xử lý các request về danh mục field chuẩn
type CatalogHandler struct {
	service *catalogsvc.CatalogService
}

// NewCatalogHandler tạo mới CatalogHandler
func NewCatalogHandler() (*CatalogHandler, error) {
	service, err := catalogsvc.NewCatalogService()
	if err != nil {
		return nil, err
	}
	return &CatalogHandler{service: service}, nil
}

// HandleGetFields trả về danh sách field chuẩn của một bộ phận từ snapshot hiện tại.
// Bộ phận chưa có field nào trong danh mục trả về danh sách rỗng, không phải lỗi.
func (h *CatalogHandler) HandleGetFields(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var query dto.CatalogFieldsQuery
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
				"Thiếu tham số departmentCode",
				common.StatusBadRequest,
				err.Error(),
			))
			return nil
		}

		snapshot, err := h.service.Snapshot(c.Context())
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		resp := dto.CatalogFieldsResponse{
			DepartmentCode: query.DepartmentCode,
			Fields:         []dto.FieldDefinitionDTO{},
			LoadedAt:       snapshot.LoadedAt,
		}
		if dc := snapshot.Department(query.DepartmentCode); dc != nil {
			for _, f := range dc.Fields {
				resp.Fields = append(resp.Fields, dto.FieldDefinitionDTO{
					ID:        f.ID,
					Label:     f.Label,
					ValueType: f.ValueType,
					Unit:      f.Unit,
					Category:  f.Category,
					Synonyms:  f.Synonyms,
					RowFields: f.RowFields,
					Formula:   f.Formula,
					Order:     f.Order,
				})
			}
		}

		basehdl.HandleResponse(c, resp, nil)
		return nil
	})
}

// HandleReload đọc lại danh mục field từ database và thay snapshot đang dùng.
// Gọi sau khi chỉnh sửa collection catalog_fields để thay đổi có hiệu lực ngay.
func (h *CatalogHandler) HandleReload(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		snapshot, err := h.service.Reload(c.Context())
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		fieldCount := 0
		for _, code := range snapshot.DepartmentCodes() {
			fieldCount += len(snapshot.Department(code).Fields)
		}

		logger.LogCatalogReload(c, map[string]interface{}{
			"departments": len(snapshot.DepartmentCodes()),
			"fields":      fieldCount,
		})

		basehdl.HandleResponse(c, dto.CatalogReloadResponse{
			Departments: len(snapshot.DepartmentCodes()),
			Fields:      fieldCount,
			LoadedAt:    snapshot.LoadedAt,
		}, nil)
		return nil
	})
}
