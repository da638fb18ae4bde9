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

// DepartmentService là service quản lý bộ phận trong cửa hàng
type DepartmentService struct {
	*basesvc.BaseServiceMongoImpl[orgmodels.Department]
}

// NewDepartmentService tạo mới DepartmentService
func NewDepartmentService() (*DepartmentService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Departments)
	if !exist {
		return nil, fmt.Errorf("failed to get org_departments collection: %v", common.ErrNotFound)
	}
	return &DepartmentService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[orgmodels.Department](coll),
	}, nil
}

// FindActiveByStore trả về các bộ phận đang hoạt động của một cửa hàng
func (s *DepartmentService) FindActiveByStore(ctx context.Context, storeID primitive.ObjectID) ([]orgmodels.Department, error) {
	return s.Find(ctx, bson.M{"storeId": storeID, "active": true}, nil)
}

// FindActiveByID tìm một bộ phận đang hoạt động theo ID.
// Trả về common.ErrDepartmentNotFound nếu không tồn tại hoặc đã ngừng hoạt động.
func (s *DepartmentService) FindActiveByID(ctx context.Context, id primitive.ObjectID) (orgmodels.Department, error) {
	dept, err := s.FindOne(ctx, bson.M{"_id": id, "active": true}, nil)
	if err != nil {
		if err == common.ErrNotFound {
			return orgmodels.Department{}, common.ErrDepartmentNotFound
		}
		return orgmodels.Department{}, err
	}
	return dept, nil
}
