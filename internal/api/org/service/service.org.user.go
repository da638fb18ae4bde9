package orgsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "store_reports/internal/api/base/service"
	orgmodels "store_reports/internal/api/org/models"
	"store_reports/internal/common"
	"store_reports/internal/global"
)

// UserService là service quản lý nhân sự
type UserService struct {
	*basesvc.BaseServiceMongoImpl[orgmodels.User]
}

// NewUserService tạo mới UserService
func NewUserService() (*UserService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Users)
	if !exist {
		return nil, fmt.Errorf("failed to get org_users collection: %v", common.ErrNotFound)
	}
	return &UserService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[orgmodels.User](coll),
	}, nil
}

// FindActiveByDepartment trả về danh sách nhân sự đang hoạt động của một bộ phận.
// Engine tổng hợp dùng danh sách này để tính tỷ lệ hoàn thành và gắn tên
// người nộp vào các giá trị drill-down.
func (s *UserService) FindActiveByDepartment(ctx context.Context, departmentID primitive.ObjectID) ([]orgmodels.User, error) {
	return s.Find(ctx, bson.M{"departmentId": departmentID, "active": true}, nil)
}
