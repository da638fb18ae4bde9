// Package initsvc chứa InitService dùng để khởi tạo dữ liệu ban đầu
// (danh mục field chuẩn, cấu hình gán báo cáo, cửa hàng demo).
// Tách ra package riêng để tránh import cycle giữa các domain service.
package initsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "store_reports/internal/api/base/service"
	catalogmodels "store_reports/internal/api/catalog/models"
	orgmodels "store_reports/internal/api/org/models"
	"store_reports/internal/common"
	"store_reports/internal/global"
	"store_reports/internal/logger"
)

// InitService khởi tạo dữ liệu mặc định cho hệ thống báo cáo.
// Mọi bước đều upsert theo khóa tự nhiên nên chạy lại nhiều lần không tạo bản ghi trùng.
type InitService struct {
	storeService      *basesvc.BaseServiceMongoImpl[orgmodels.Store]
	departmentService *basesvc.BaseServiceMongoImpl[orgmodels.Department]
	userService       *basesvc.BaseServiceMongoImpl[orgmodels.User]
	configService     *basesvc.BaseServiceMongoImpl[orgmodels.ConfigItem]
	catalogService    *basesvc.BaseServiceMongoImpl[catalogmodels.CatalogField]
}

// NewInitService tạo mới InitService từ registry collections
func NewInitService() (*InitService, error) {
	storeCol, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Stores)
	if !exist {
		return nil, fmt.Errorf("failed to get org_stores collection: %v", common.ErrNotFound)
	}
	departmentCol, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Departments)
	if !exist {
		return nil, fmt.Errorf("failed to get org_departments collection: %v", common.ErrNotFound)
	}
	userCol, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Users)
	if !exist {
		return nil, fmt.Errorf("failed to get org_users collection: %v", common.ErrNotFound)
	}
	configCol, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.ConfigItems)
	if !exist {
		return nil, fmt.Errorf("failed to get org_config_items collection: %v", common.ErrNotFound)
	}
	catalogCol, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.CatalogFields)
	if !exist {
		return nil, fmt.Errorf("failed to get catalog_fields collection: %v", common.ErrNotFound)
	}

	return &InitService{
		storeService:      basesvc.NewBaseServiceMongo[orgmodels.Store](storeCol),
		departmentService: basesvc.NewBaseServiceMongo[orgmodels.Department](departmentCol),
		userService:       basesvc.NewBaseServiceMongo[orgmodels.User](userCol),
		configService:     basesvc.NewBaseServiceMongo[orgmodels.ConfigItem](configCol),
		catalogService:    basesvc.NewBaseServiceMongo[catalogmodels.CatalogField](catalogCol),
	}, nil
}

// InitDefaultCatalog tạo danh mục field chuẩn mặc định cho các bộ phận bar và bếp.
// Upsert theo (departmentCode, fieldId) nên chỉnh tay trong DB sẽ bị ghi đè khi chạy lại INITMODE.
func (s *InitService) InitDefaultCatalog(ctx context.Context) error {
	fields := []catalogmodels.CatalogField{
		// Bộ phận bar
		{
			FieldID:        "revenue_cash",
			DepartmentCode: "bar",
			Label:          "Doanh thu tiền mặt",
			ValueType:      catalogmodels.ValueTypeMoney,
			Unit:           catalogmodels.UnitMinor,
			Category:       "revenue",
			Synonyms:       []string{"tien_mat", "cash"},
			FixedAttr:      "revenueCash",
			Order:          1,
			Active:         true,
		},
		{
			FieldID:        "revenue_card",
			DepartmentCode: "bar",
			Label:          "Doanh thu thẻ",
			ValueType:      catalogmodels.ValueTypeMoney,
			Unit:           catalogmodels.UnitMinor,
			Category:       "revenue",
			Synonyms:       []string{"tien_the", "card"},
			FixedAttr:      "revenueCard",
			Order:          2,
			Active:         true,
		},
		{
			FieldID:        "customer_count",
			DepartmentCode: "bar",
			Label:          "Số lượt khách",
			ValueType:      catalogmodels.ValueTypeNumber,
			Category:       "operations",
			Synonyms:       []string{"so_khach", "luot_khach"},
			FixedAttr:      "customerCount",
			Order:          3,
			Active:         true,
		},
		{
			FieldID:        "staff_count",
			DepartmentCode: "bar",
			Label:          "Số nhân sự ca",
			ValueType:      catalogmodels.ValueTypeNumber,
			Category:       "operations",
			FixedAttr:      "staffCount",
			Order:          4,
			Active:         true,
		},
		{
			FieldID:        "shift_note",
			DepartmentCode: "bar",
			Label:          "Ghi chú ca",
			ValueType:      catalogmodels.ValueTypeText,
			Category:       "operations",
			FixedAttr:      "note",
			Order:          5,
			Active:         true,
		},
		{
			FieldID:        "drink_sales",
			DepartmentCode: "bar",
			Label:          "Bán hàng theo món",
			ValueType:      catalogmodels.ValueTypeDynamicRows,
			Category:       "revenue",
			RowFields:      []string{"item", "qty", "amount"},
			Order:          6,
			Active:         true,
		},
		{
			FieldID:        "avg_ticket",
			DepartmentCode: "bar",
			Label:          "Doanh thu trên lượt khách",
			ValueType:      catalogmodels.ValueTypeCalculated,
			Category:       "revenue",
			Formula:        "(revenue_cash + revenue_card) / customer_count",
			Order:          7,
			Active:         true,
		},

		// Bộ phận bếp
		{
			FieldID:        "revenue_cash",
			DepartmentCode: "kitchen",
			Label:          "Doanh thu tiền mặt",
			ValueType:      catalogmodels.ValueTypeMoney,
			Unit:           catalogmodels.UnitMinor,
			Category:       "revenue",
			Synonyms:       []string{"tien_mat"},
			FixedAttr:      "revenueCash",
			Order:          1,
			Active:         true,
		},
		{
			FieldID:        "waste_count",
			DepartmentCode: "kitchen",
			Label:          "Số món hủy",
			ValueType:      catalogmodels.ValueTypeNumber,
			Category:       "inventory",
			Synonyms:       []string{"so_mon_huy", "waste"},
			Order:          2,
			Active:         true,
		},
		{
			FieldID:        "prep_rows",
			DepartmentCode: "kitchen",
			Label:          "Sơ chế theo nguyên liệu",
			ValueType:      catalogmodels.ValueTypeDynamicRows,
			Category:       "inventory",
			RowFields:      []string{"item", "qty"},
			Order:          3,
			Active:         true,
		},
	}

	for _, field := range fields {
		filter := bson.M{"departmentCode": field.DepartmentCode, "fieldId": field.FieldID}
		if _, err := s.catalogService.Upsert(ctx, filter, field); err != nil {
			return fmt.Errorf("failed to upsert catalog field %s/%s: %w", field.DepartmentCode, field.FieldID, err)
		}
	}

	logger.WithModule("init").Infof("Đã khởi tạo %d field danh mục mặc định", len(fields))
	return nil
}

// InitAttributionConfig tạo cấu hình gán báo cáo mặc định ở scope global:
// bar chỉ tính báo cáo của vai trò bartender, bếp dùng quy tắc AUTO.
func (s *InitService) InitAttributionConfig(ctx context.Context) error {
	items := []orgmodels.ConfigItem{
		{
			Key:      orgmodels.AttributionKeyPrefix + "bar",
			Scope:    orgmodels.ConfigScopeGlobal,
			Value:    "bartender",
			DataType: "string",
		},
		{
			Key:      orgmodels.AttributionKeyPrefix + "kitchen",
			Scope:    orgmodels.ConfigScopeGlobal,
			Value:    "AUTO",
			DataType: "string",
		},
	}

	for _, item := range items {
		filter := bson.M{"key": item.Key, "scope": item.Scope}
		if _, err := s.configService.Upsert(ctx, filter, item); err != nil {
			return fmt.Errorf("failed to upsert config %s: %w", item.Key, err)
		}
	}

	logger.WithModule("init").Info("Đã khởi tạo cấu hình gán báo cáo mặc định")
	return nil
}

// InitDemoStore tạo một cửa hàng demo với hai bộ phận và nhân sự mẫu.
// Trả về store đã tạo (hoặc đã tồn tại) để các bước sau dùng tiếp.
func (s *InitService) InitDemoStore(ctx context.Context) (orgmodels.Store, error) {
	store, err := s.storeService.Upsert(ctx, bson.M{"code": "HN01"}, orgmodels.Store{
		Code:    "HN01",
		Name:    "Cửa hàng Hà Nội 1",
		Address: "1 Tràng Tiền, Hoàn Kiếm, Hà Nội",
		Active:  true,
	})
	if err != nil {
		return orgmodels.Store{}, fmt.Errorf("failed to upsert demo store: %w", err)
	}

	departments := []orgmodels.Department{
		{StoreID: store.ID, Code: "bar", Name: "Bar", Active: true},
		{StoreID: store.ID, Code: "kitchen", Name: "Bếp", Active: true},
	}
	departmentIDs := make(map[string]primitive.ObjectID, len(departments))
	for _, department := range departments {
		saved, err := s.departmentService.Upsert(ctx,
			bson.M{"storeId": department.StoreID, "code": department.Code}, department)
		if err != nil {
			return orgmodels.Store{}, fmt.Errorf("failed to upsert department %s: %w", department.Code, err)
		}
		departmentIDs[department.Code] = saved.ID
	}

	users := []orgmodels.User{
		{Name: "Nguyễn Văn Bar", StoreID: store.ID, DepartmentID: departmentIDs["bar"], Roles: []string{"bartender"}, Active: true},
		{Name: "Trần Thị Thu Ngân", StoreID: store.ID, DepartmentID: departmentIDs["bar"], Roles: []string{"cashier"}, Active: true},
		{Name: "Lê Văn Bếp", StoreID: store.ID, DepartmentID: departmentIDs["kitchen"], Roles: []string{"cook"}, Active: true},
	}
	for _, user := range users {
		if _, err := s.userService.Upsert(ctx,
			bson.M{"name": user.Name, "departmentId": user.DepartmentID}, user); err != nil {
			return orgmodels.Store{}, fmt.Errorf("failed to upsert demo user %s: %w", user.Name, err)
		}
	}

	logger.WithModule("init").WithField("storeId", store.ID.Hex()).Info("Đã khởi tạo cửa hàng demo")
	return store, nil
}
