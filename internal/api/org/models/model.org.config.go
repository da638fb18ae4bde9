package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Config scope constants
const (
	ConfigScopeGlobal = "global" // Áp dụng cho toàn chuỗi
	ConfigScopeStore  = "store"  // Áp dụng cho một cửa hàng cụ thể (ghi đè global)
)

// AttributionKeyPrefix là prefix key cấu hình quy tắc gán báo cáo theo bộ phận.
// Key đầy đủ: "report.attribution.<departmentCode>", value là tên vai trò hoặc "AUTO".
const AttributionKeyPrefix = "report.attribution."

// ConfigItem là một mục cấu hình vận hành (một document per key per scope).
// Store scope ghi đè global scope khi cùng key.
type ConfigItem struct {
	ID      primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Key     string             `json:"key" bson:"key" index:"compound:scope_key_store_unique"`
	Scope   string             `json:"scope" bson:"scope" index:"compound:scope_key_store_unique"` // "global" | "store"
	StoreID primitive.ObjectID `json:"storeId,omitempty" bson:"storeId,omitempty" index:"compound:scope_key_store_unique,sparse"`

	Value       interface{} `json:"value" bson:"value" validate:"config_value"` // Giá trị cấu hình
	DataType    string      `json:"dataType" bson:"dataType"`                   // string | number | integer | boolean | array | object
	Constraints string      `json:"constraints,omitempty" bson:"constraints,omitempty"` // JSON string ràng buộc giá trị

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
