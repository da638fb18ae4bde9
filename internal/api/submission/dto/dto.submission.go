// Package dto chứa các cấu trúc request/response cho API báo cáo hàng ngày.
package dto

import (
	submissionmodels "store_reports/internal/api/submission/models"
)

// SubmitRequest là body của request nộp báo cáo hàng ngày
type SubmitRequest struct {
	UserID       string `json:"userId" validate:"required,exists=org_users"`             // ID nhân sự nộp báo cáo
	StoreID      string `json:"storeId" validate:"required,exists=org_stores"`           // ID cửa hàng
	DepartmentID string `json:"departmentId" validate:"required,exists=org_departments"` // ID bộ phận
	ReportDate   string `json:"reportDate" validate:"required,report_date"`              // Ngày nghiệp vụ, dạng YYYY-MM-DD
	Status       string `json:"status" validate:"omitempty,oneof=DRAFT SUBMITTED"`       // Mặc định SUBMITTED nếu bỏ trống

	Roles   []string                      `json:"roles,omitempty"`   // Vai trò của người nộp lúc nộp
	Fixed   *submissionmodels.FixedRecord `json:"fixed,omitempty"`   // Phần bảng cố định của form
	Payload interface{}                   `json:"payload,omitempty"` // Phần tự do của form (map key → giá trị)
}

// FindSubmissionsQuery là tham số truy vấn danh sách báo cáo
type FindSubmissionsQuery struct {
	StoreID      string `query:"storeId" validate:"required"`                       // Bắt buộc
	DepartmentID string `query:"departmentId"`                                      // Tùy chọn
	UserID       string `query:"userId"`                                            // Tùy chọn
	Status       string `query:"status" validate:"omitempty,oneof=DRAFT SUBMITTED"` // Tùy chọn
	FromDate     string `query:"fromDate" validate:"omitempty,report_date"`         // Tùy chọn, YYYY-MM-DD
	ToDate       string `query:"toDate" validate:"omitempty,report_date"`           // Tùy chọn, YYYY-MM-DD
	Page         int64  `query:"page"`                                              // Mặc định 1
	Limit        int64  `query:"limit"`                                             // Mặc định 20
}
