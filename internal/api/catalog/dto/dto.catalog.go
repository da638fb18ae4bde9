// Package dto chứa các cấu trúc request/response cho API danh mục field.
package dto

// CatalogFieldsQuery là tham số truy vấn danh sách field chuẩn của một bộ phận
type CatalogFieldsQuery struct {
	DepartmentCode string `query:"departmentCode" validate:"required"` // Mã bộ phận (ví dụ: "kitchen")
}

// FieldDefinitionDTO là một field chuẩn trong response danh mục
type FieldDefinitionDTO struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	ValueType string   `json:"valueType"`
	Unit      string   `json:"unit,omitempty"`
	Category  string   `json:"category"`
	Synonyms  []string `json:"synonyms,omitempty"`
	RowFields []string `json:"rowFields,omitempty"`
	Formula   string   `json:"formula,omitempty"`
	Order     int      `json:"order"`
}

// CatalogFieldsResponse là response danh sách field chuẩn của một bộ phận
type CatalogFieldsResponse struct {
	DepartmentCode string               `json:"departmentCode"`
	Fields         []FieldDefinitionDTO `json:"fields"`
	LoadedAt       int64                `json:"loadedAt"` // Unix milli lúc snapshot được load
}

// CatalogReloadResponse là response sau khi reload danh mục từ database
type CatalogReloadResponse struct {
	Departments int   `json:"departments"` // Số bộ phận có field trong danh mục
	Fields      int   `json:"fields"`      // Tổng số field đã load
	LoadedAt    int64 `json:"loadedAt"`    // Unix milli lúc snapshot mới được load
}
