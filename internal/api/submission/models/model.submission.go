// Package models chứa model báo cáo hàng ngày của nhân sự.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái của một báo cáo
const (
	StatusDraft     = "DRAFT"     // Nháp, không được tính khi tổng hợp
	StatusSubmitted = "SUBMITTED" // Đã nộp
)

// ReportDateLayout là định dạng ngày báo cáo (ngày nghiệp vụ, không phải thời điểm nộp)
const ReportDateLayout = "2006-01-02"

// RoleSet là danh sách vai trò của người nộp tại thời điểm nộp báo cáo
type RoleSet []string

// Has kiểm tra role có trong danh sách hay không
func (r RoleSet) Has(role string) bool {
	for _, item := range r {
		if item == role {
			return true
		}
	}
	return false
}

// FixedRecord là phần dữ liệu cố định của form báo cáo: các cột có cấu trúc
// biết trước, đối chiếu về field chuẩn qua FixedAttr trong danh mục.
// Dùng con trỏ để phân biệt "không nhập" với "nhập 0".
type FixedRecord struct {
	RevenueCash   *float64 `json:"revenueCash,omitempty" bson:"revenueCash,omitempty"`     // Doanh thu tiền mặt (đơn vị nhỏ)
	RevenueCard   *float64 `json:"revenueCard,omitempty" bson:"revenueCard,omitempty"`     // Doanh thu thẻ (đơn vị nhỏ)
	CustomerCount *int64   `json:"customerCount,omitempty" bson:"customerCount,omitempty"` // Số lượt khách
	StaffCount    *int64   `json:"staffCount,omitempty" bson:"staffCount,omitempty"`       // Số nhân sự ca làm việc
	Note          string   `json:"note,omitempty" bson:"note,omitempty"`                   // Ghi chú ca
}

// Submission là một báo cáo hàng ngày của một nhân sự cho một bộ phận.
// Mỗi (userId, departmentId, reportDate, status) chỉ có một document:
// nộp lại trong ngày sẽ ghi đè báo cáo cũ thay vì tạo bản ghi mới.
type Submission struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID       primitive.ObjectID `json:"userId" bson:"userId" index:"compound:user_dept_date_status_unique"`
	StoreID      primitive.ObjectID `json:"storeId" bson:"storeId" index:"single:1;compound:store_date"`
	DepartmentID primitive.ObjectID `json:"departmentId" bson:"departmentId" index:"single:1;compound:user_dept_date_status_unique"`
	ReportDate   string             `json:"reportDate" bson:"reportDate" index:"compound:user_dept_date_status_unique;compound:store_date" validate:"required,report_date"` // Ngày nghiệp vụ, dạng YYYY-MM-DD
	Status       string             `json:"status" bson:"status" index:"compound:user_dept_date_status_unique"`                                                             // DRAFT | SUBMITTED
	Roles        RoleSet            `json:"roles,omitempty" bson:"roles,omitempty"`                                                                                         // Vai trò của người nộp lúc nộp

	// Fixed là phần bảng cố định của form; Payload là phần tự do (map key → giá trị),
	// trong đó giá trị có thể là số, chuỗi hoặc danh sách row cho field dạng bảng động.
	Fixed   *FixedRecord `json:"fixed,omitempty" bson:"fixed,omitempty"`
	Payload interface{}  `json:"payload,omitempty" bson:"payload,omitempty"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
