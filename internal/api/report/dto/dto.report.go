// Package dto chứa cấu trúc request cho API tổng hợp báo cáo.
package dto

// QueryDateLayout là định dạng ngày trong query string của API tổng hợp
// (dd-mm-yyyy, theo thói quen nhập ngày của người dùng Việt Nam)
const QueryDateLayout = "02-01-2006"

// AggregateQuery là tham số của request tổng hợp báo cáo
type AggregateQuery struct {
	StoreID       string `query:"storeId" validate:"required"` // ID cửa hàng
	DepartmentID  string `query:"departmentId"`                // Rỗng hoặc "all" = cả cửa hàng
	From          string `query:"from" validate:"required"`    // Ngày đầu, dd-mm-yyyy, bao gồm
	To            string `query:"to" validate:"required"`      // Ngày cuối, dd-mm-yyyy, bao gồm
	IncludeValues bool   `query:"includeValues"`               // Kèm giá trị drill-down
}
