package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User đại diện cho một nhân sự thuộc một bộ phận của cửa hàng.
// Roles là danh sách vai trò dùng cho quy tắc gán báo cáo (ví dụ: "bartender", "cashier").
type User struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	StoreID      primitive.ObjectID `json:"storeId" bson:"storeId" index:"single:1"`
	DepartmentID primitive.ObjectID `json:"departmentId" bson:"departmentId" index:"single:1"`
	Roles        []string           `json:"roles" bson:"roles"`
	Active       bool               `json:"active" bson:"active" index:"single:1"` // Nhân sự còn làm việc hay không

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
