// Package models chứa các model tổ chức: cửa hàng, bộ phận, nhân sự và cấu hình vận hành.
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Store đại diện cho một cửa hàng trong chuỗi
type Store struct {
	ID      primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Code    string             `json:"code" bson:"code" index:"unique"`  // Mã cửa hàng (ví dụ: "HN01")
	Name    string             `json:"name" bson:"name" index:"single:1"` // Tên cửa hàng
	Address string             `json:"address,omitempty" bson:"address,omitempty"`
	Active  bool               `json:"active" bson:"active" index:"single:1"` // Cửa hàng còn hoạt động hay không

	CreatedAt int64 `json:"createdAt" bson:"createdAt" index:"single:1"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
