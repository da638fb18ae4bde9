// Package orgsvc chứa các service truy cập dữ liệu tổ chức: cửa hàng, bộ phận, nhân sự, cấu hình.
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

// StoreService là service quản lý cửa hàng
type StoreService struct {
	*basesvc.BaseServiceMongoImpl[orgmodels.Store]
}

// NewStoreService tạo mới StoreService
func NewStoreService() (*StoreService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Stores)
	if !exist {
		return nil, fmt.Errorf("failed to get org_stores collection: %v", common.ErrNotFound)
	}
	return &StoreService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[orgmodels.Store](coll),
	}, nil
}

// FindActiveByID tìm một cửa hàng đang hoạt động theo ID.
// Trả về common.ErrStoreNotFound nếu không tồn tại hoặc đã ngừng hoạt động.
func (s *StoreService) FindActiveByID(ctx context.Context, id primitive.ObjectID) (orgmodels.Store, error) {
	store, err := s.FindOne(ctx, bson.M{"_id": id, "active": true}, nil)
	if err != nil {
		if err == common.ErrNotFound {
			return orgmodels.Store{}, common.ErrStoreNotFound
		}
		return orgmodels.Store{}, err
	}
	return store, nil
}
