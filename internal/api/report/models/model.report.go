// Package models chứa các cấu trúc trung gian và kết quả của engine tổng hợp
// báo cáo: giá trị field đã chuẩn hóa, thống kê theo field, theo bộ phận và
// theo cửa hàng.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	catalogmodels "store_reports/internal/api/catalog/models"
)

// Nguồn của một giá trị field đã chuẩn hóa
const (
	SourceFixedTable  = "fixedTable"  // Từ bảng cố định của form (nguồn có schema, thắng khi trùng)
	SourceFormPayload = "formPayload" // Từ phần tự do của form
	SourceCalculated  = "calculated"  // Tính từ formula sau khi gộp
	SourceMixed       = "mixed"       // Gộp từ nhiều nguồn (chỉ xuất hiện trong rollup)
)

// NormalizedFieldValue là một giá trị field đã chuẩn hóa từ một báo cáo.
// Sinh ra bởi normalizer, tiêu thụ một lần bởi bước khử trùng lặp rồi engine
// gộp; không bao giờ bị sửa sau khi tạo.
type NormalizedFieldValue struct {
	SubmissionID primitive.ObjectID
	UserID       primitive.ObjectID
	ReportDate   string // YYYY-MM-DD

	FieldID string                          // Mã field chuẩn sau phân giải
	Def     *catalogmodels.FieldDefinition  // Định nghĩa field (có thể là field custom synthesized)

	SourceKind string  // fixedTable | formPayload
	Numeric    float64 // Giá trị số đã quy về đơn vị lớn
	IsNumeric  bool    // false với giá trị chữ (chỉ vào drill-down)
	Text       string  // Giá trị chữ

	// Với field dạng bảng động: một entry per (row, cột số).
	// Column rỗng với giá trị vô hướng; RowIndex = -1 khi không theo row.
	Column   string
	RowIndex int
	Row      map[string]interface{} // Row đầy đủ cho drill-down

	// Giá trị payload bị nguồn bảng cố định đè khi trùng field: không vào
	// tổng, chỉ giữ lại trong drill-down khi caller yêu cầu
	Supplementary bool
}

// DrillDownValue là một giá trị đóng góp được giữ lại để giải thích con số tổng
type DrillDownValue struct {
	UserID        string      `json:"userId"`
	UserName      string      `json:"userName,omitempty"`
	ReportDate    string      `json:"reportDate"`
	Value         interface{} `json:"value"`
	RowIndex      *int        `json:"rowIndex,omitempty"`      // Chỉ có với row của bảng động
	Supplementary bool        `json:"supplementary,omitempty"` // Giá trị payload bị nguồn bảng cố định đè
}

// RowFieldInfo mô tả một cột con của field dạng bảng động trong response
type RowFieldInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"` // number | text
}

// FieldSummary là thống kê đã gộp của một field chuẩn
type FieldSummary struct {
	FieldID    string `json:"fieldId"`
	Label      string `json:"label"`
	Category   string `json:"category"`
	ValueType  string `json:"valueType,omitempty"`
	Unit       string `json:"unit,omitempty"`
	IsCustom   bool   `json:"isCustom"`
	SourceType string `json:"sourceType"` // fixedTable | formPayload | calculated | mixed

	Total   float64 `json:"total"`
	Count   int     `json:"count"`   // Số báo cáo đóng góp (distinct)
	Average float64 `json:"average"` // total / count, bằng 0 khi count = 0

	// RowTotals là tổng theo từng cột số của field dạng bảng động
	RowTotals map[string]float64 `json:"rowTotals,omitempty"`
	RowFields []RowFieldInfo     `json:"rowFields,omitempty"`

	Values []DrillDownValue `json:"values,omitempty"` // Chỉ có khi includeValues=true
}

// DepartmentSummary là thống kê đã gộp của một bộ phận trong khoảng ngày
type DepartmentSummary struct {
	DepartmentID    string  `json:"departmentId"`
	DepartmentCode  string  `json:"departmentCode"`
	DepartmentName  string  `json:"departmentName"`
	AttributionRule string  `json:"attributionRule"` // Quy tắc gán đã áp dụng (vai trò hoặc AUTO)
	UserCount       int     `json:"userCount"`       // Số nhân sự đang hoạt động phải báo cáo
	SubmittedCount  int     `json:"submittedCount"`  // Số nhân sự có ít nhất một báo cáo được tính
	CompletionRate  float64 `json:"completionRate"`  // submittedCount / userCount, bằng 0 khi userCount = 0

	Fields []FieldSummary `json:"fields"`
}

// AggregationMeta là các bộ đếm bất thường của một lần tổng hợp.
// Đây là metadata, không phải lỗi: một bản ghi hỏng không làm trống báo cáo.
type AggregationMeta struct {
	SkippedSubmissions int `json:"skippedSubmissions"` // Báo cáo có payload hỏng, đóng góp 0 giá trị từ payload
	AmbiguousFields    int `json:"ambiguousFields"`    // Key khớp chuỗi con với nhiều field, bị loại
	ConfigFallbacks    int `json:"configFallbacks"`    // Cấu hình gán hỏng, phải rơi về mức thấp hơn
}

// Add cộng dồn bộ đếm từ một bộ phận vào tổng của cửa hàng
func (m *AggregationMeta) Add(other AggregationMeta) {
	m.SkippedSubmissions += other.SkippedSubmissions
	m.AmbiguousFields += other.AmbiguousFields
	m.ConfigFallbacks += other.ConfigFallbacks
}

// StoreSummary là kết quả tổng hợp của một cửa hàng trong khoảng ngày
type StoreSummary struct {
	StoreID   string `json:"storeId"`
	StoreName string `json:"storeName"`
	FromDate  string `json:"fromDate"` // YYYY-MM-DD, bao gồm
	ToDate    string `json:"toDate"`   // YYYY-MM-DD, bao gồm

	Departments []DepartmentSummary `json:"departments"`

	// StoreFields là rollup toàn cửa hàng: gộp field của mọi bộ phận theo mã
	// field chuẩn, dùng cho dashboard cấp cửa hàng
	StoreFields []FieldSummary `json:"storeFields"`

	Meta AggregationMeta `json:"meta"`
}
