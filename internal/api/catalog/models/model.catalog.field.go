// Package models chứa model danh mục field chuẩn và snapshot catalog dùng khi tổng hợp.
package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Value type constants cho field
const (
	ValueTypeNumber      = "number"       // Số thường
	ValueTypeMoney       = "money"        // Tiền tệ
	ValueTypeText        = "text"         // Chuỗi một dòng, không cộng dồn
	ValueTypeTextarea    = "textarea"     // Chuỗi nhiều dòng, không cộng dồn
	ValueTypeBoolean     = "boolean"      // Có/không, cộng dồn như 1/0
	ValueTypeSelect      = "select"       // Chọn một giá trị từ danh sách
	ValueTypeMultiselect = "multiselect"  // Chọn nhiều giá trị từ danh sách
	ValueTypeDynamicRows = "dynamic_rows" // Bảng dòng động (danh sách row con)
	ValueTypeCalculated  = "calculated"   // Tính từ formula sau khi tổng hợp
)

// Unit constants cho field tiền tệ
const (
	UnitMinor = "minor" // Đơn vị nhỏ (xu), chia 100 khi chuẩn hóa
	UnitMajor = "major" // Đơn vị lớn, giữ nguyên
)

// CategoryOther là category mặc định cho field ngoài danh mục
const CategoryOther = "other"

// CatalogField là một field chuẩn trong danh mục, một document per (departmentCode, fieldId).
type CatalogField struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FieldID        string             `json:"fieldId" bson:"fieldId" index:"compound:dept_field_unique"`                       // Mã field chuẩn (ví dụ: "revenue_cash")
	DepartmentCode string             `json:"departmentCode" bson:"departmentCode" index:"single:1;compound:dept_field_unique"` // Bộ phận sở hữu field
	Label          string             `json:"label" bson:"label"`                                                              // Nhãn hiển thị
	ValueType      string             `json:"valueType" bson:"valueType"`                                                      // number | money | text | dynamic_rows | calculated
	Unit           string             `json:"unit,omitempty" bson:"unit,omitempty"`                                            // minor | major (chỉ cho money)
	Category       string             `json:"category" bson:"category"`                                                        // Nhóm field (ví dụ: "revenue", "inventory")
	Synonyms       []string           `json:"synonyms,omitempty" bson:"synonyms,omitempty"`                                    // Các tên khác mà form có thể dùng
	RowFields      []string           `json:"rowFields,omitempty" bson:"rowFields,omitempty"`                                  // Cột con của dynamic_rows
	Formula        string             `json:"formula,omitempty" bson:"formula,omitempty"`                                      // Công thức cho calculated
	FixedAttr      string             `json:"fixedAttr,omitempty" bson:"fixedAttr,omitempty"`                                  // Thuộc tính fixed-table tương ứng (nếu có)
	Order          int                `json:"order" bson:"order"`                                                              // Thứ tự hiển thị trong catalog
	Active         bool               `json:"active" bson:"active" index:"single:1"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// FieldDefinition là định nghĩa field trong snapshot catalog (bất biến sau khi load).
// IsCustom đánh dấu field ngoài danh mục (synthesized từ key lạ hoặc key có custom prefix).
type FieldDefinition struct {
	ID        string   // Mã field chuẩn (hoặc key gốc với field custom)
	Label     string   // Nhãn hiển thị
	ValueType string   // number | money | text | dynamic_rows | calculated ("" với field custom, suy ra từ giá trị)
	Unit      string   // minor | major
	Category  string   // Nhóm field
	Synonyms  []string // Các tên khác
	RowFields []string // Cột con của dynamic_rows
	Formula   string   // Công thức cho calculated
	FixedAttr string   // Thuộc tính fixed-table tương ứng
	Order     int      // Thứ tự trong catalog
	IsCustom  bool     // Field ngoài danh mục
}

// DepartmentCatalog là snapshot catalog của một bộ phận với các chỉ mục tra cứu.
// Bất biến sau khi build; an toàn cho truy cập đồng thời.
type DepartmentCatalog struct {
	Code   string             // Mã bộ phận
	Fields []*FieldDefinition // Theo thứ tự Order

	byID        map[string]*FieldDefinition // key: lower(fieldId)
	bySynonym   map[string]*FieldDefinition // key: lower(synonym)
	byFixedAttr map[string]*FieldDefinition // key: lower(fixedAttr)
}

// NewDepartmentCatalog build snapshot bộ phận từ danh sách field đã sắp theo Order
func NewDepartmentCatalog(code string, fields []*FieldDefinition) *DepartmentCatalog {
	dc := &DepartmentCatalog{
		Code:        code,
		Fields:      fields,
		byID:        make(map[string]*FieldDefinition, len(fields)),
		bySynonym:   make(map[string]*FieldDefinition),
		byFixedAttr: make(map[string]*FieldDefinition),
	}
	for _, f := range fields {
		dc.byID[strings.ToLower(f.ID)] = f
		for _, syn := range f.Synonyms {
			dc.bySynonym[strings.ToLower(syn)] = f
		}
		if f.FixedAttr != "" {
			dc.byFixedAttr[strings.ToLower(f.FixedAttr)] = f
		}
	}
	return dc
}

// FieldByID tra field theo mã chuẩn (không phân biệt hoa thường)
func (dc *DepartmentCatalog) FieldByID(id string) (*FieldDefinition, bool) {
	f, ok := dc.byID[strings.ToLower(id)]
	return f, ok
}

// FieldBySynonym tra field theo synonym (không phân biệt hoa thường)
func (dc *DepartmentCatalog) FieldBySynonym(name string) (*FieldDefinition, bool) {
	f, ok := dc.bySynonym[strings.ToLower(name)]
	return f, ok
}

// FieldByFixedAttr tra field theo tên thuộc tính fixed-table
func (dc *DepartmentCatalog) FieldByFixedAttr(attr string) (*FieldDefinition, bool) {
	f, ok := dc.byFixedAttr[strings.ToLower(attr)]
	return f, ok
}

// Catalog là snapshot toàn bộ danh mục field theo bộ phận.
// Bất biến; được thay nguyên con trỏ khi reload.
type Catalog struct {
	departments map[string]*DepartmentCatalog
	LoadedAt    int64 // Unix milli lúc load
}

// NewCatalog tạo snapshot catalog từ map bộ phận
func NewCatalog(departments map[string]*DepartmentCatalog, loadedAt int64) *Catalog {
	return &Catalog{departments: departments, LoadedAt: loadedAt}
}

// Department trả về catalog của một bộ phận; nil nếu bộ phận chưa có field nào
func (c *Catalog) Department(code string) *DepartmentCatalog {
	if c == nil {
		return nil
	}
	return c.departments[strings.ToLower(code)]
}

// DepartmentCodes trả về danh sách mã bộ phận có trong catalog
func (c *Catalog) DepartmentCodes() []string {
	codes := make([]string, 0, len(c.departments))
	for code := range c.departments {
		codes = append(codes, code)
	}
	return codes
}
