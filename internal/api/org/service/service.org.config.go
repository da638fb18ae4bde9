package orgsvc

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "store_reports/internal/api/base/service"
	orgmodels "store_reports/internal/api/org/models"
	"store_reports/internal/common"
	"store_reports/internal/global"
	"store_reports/internal/logger"
)

// AttributionRuleAuto là quy tắc gán mặc định: mọi báo cáo SUBMITTED của bộ phận đều được tính.
const AttributionRuleAuto = "AUTO"

// ConfigService là service quản lý cấu hình vận hành (global và theo cửa hàng)
type ConfigService struct {
	*basesvc.BaseServiceMongoImpl[orgmodels.ConfigItem]
}

// NewConfigService tạo mới ConfigService
func NewConfigService() (*ConfigService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.ConfigItems)
	if !exist {
		return nil, fmt.Errorf("failed to get org_config_items collection: %v", common.ErrNotFound)
	}
	return &ConfigService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[orgmodels.ConfigItem](coll),
	}, nil
}

// configFinder tra một mục cấu hình theo filter. Tách ra để logic ưu tiên
// test được mà không cần MongoDB.
type configFinder func(ctx context.Context, filter bson.M) (orgmodels.ConfigItem, error)

// GetAttributionRule trả về quy tắc gán báo cáo cho một bộ phận của một cửa hàng.
// Thứ tự ưu tiên: cấu hình theo cửa hàng → cấu hình global → AUTO.
// usedFallback = true khi có mục cấu hình nhưng giá trị hỏng (không phải chuỗi,
// hoặc chuỗi rỗng) và phải rơi về mức thấp hơn. Thiếu cấu hình hoàn toàn là
// trạng thái bình thường, không tính là fallback.
func (s *ConfigService) GetAttributionRule(ctx context.Context, storeID primitive.ObjectID, departmentCode string) (rule string, usedFallback bool, err error) {
	find := func(ctx context.Context, filter bson.M) (orgmodels.ConfigItem, error) {
		return s.FindOne(ctx, filter, nil)
	}
	return resolveAttributionRule(ctx, find, storeID, departmentCode)
}

func resolveAttributionRule(ctx context.Context, find configFinder, storeID primitive.ObjectID, departmentCode string) (rule string, usedFallback bool, err error) {
	key := orgmodels.AttributionKeyPrefix + departmentCode

	// Mức 1: cấu hình theo cửa hàng
	item, err := find(ctx, bson.M{
		"key":     key,
		"scope":   orgmodels.ConfigScopeStore,
		"storeId": storeID,
	})
	if err == nil {
		if rule, ok := parseAttributionValue(item.Value); ok {
			return rule, usedFallback, nil
		}
		// Giá trị hỏng: log và rơi xuống mức global
		usedFallback = true
		logger.WithModuleAndCollection("org", global.MongoDB_ColNames.ConfigItems).
			WithField("key", key).
			Warn("Giá trị cấu hình gán báo cáo theo cửa hàng không hợp lệ, dùng cấu hình global")
	} else if err != common.ErrNotFound {
		return "", false, err
	}

	// Mức 2: cấu hình global
	item, err = find(ctx, bson.M{
		"key":   key,
		"scope": orgmodels.ConfigScopeGlobal,
	})
	if err == nil {
		if rule, ok := parseAttributionValue(item.Value); ok {
			return rule, usedFallback, nil
		}
		usedFallback = true
		logger.WithModuleAndCollection("org", global.MongoDB_ColNames.ConfigItems).
			WithField("key", key).
			Warn("Giá trị cấu hình gán báo cáo global không hợp lệ, dùng quy tắc AUTO")
	} else if err != common.ErrNotFound {
		return "", false, err
	}

	// Mức 3: mặc định AUTO
	return AttributionRuleAuto, usedFallback, nil
}

// parseAttributionValue kiểm tra value cấu hình có phải tên vai trò hợp lệ (hoặc "AUTO") hay không
func parseAttributionValue(value interface{}) (string, bool) {
	s, ok := value.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}
