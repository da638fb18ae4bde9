package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Department đại diện cho một bộ phận trong cửa hàng (bar, bếp, phục vụ...)
// Code là mã bộ phận dùng chung toàn chuỗi, dùng để tra catalog field theo bộ phận.
type Department struct {
	ID      primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	StoreID primitive.ObjectID `json:"storeId" bson:"storeId" index:"single:1;compound:storeId_code_unique"` // Cửa hàng chứa bộ phận
	Code    string             `json:"code" bson:"code" index:"compound:storeId_code_unique"`                // Mã bộ phận (ví dụ: "bar", "kitchen")
	Name    string             `json:"name" bson:"name"`                                                     // Tên hiển thị
	Active  bool               `json:"active" bson:"active" index:"single:1"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
