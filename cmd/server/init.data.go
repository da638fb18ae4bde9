package main

import (
	"context"

	catalogsvc "store_reports/internal/api/catalog/service"
	"store_reports/internal/api/initsvc"
	"store_reports/internal/logger"
)

// InitDefaultData khởi tạo dữ liệu mặc định khi chạy chế độ INITMODE:
// danh mục field chuẩn, cấu hình gán báo cáo và một cửa hàng demo.
// Mọi bước đều idempotent nên chạy lại nhiều lần không tạo bản ghi trùng.
func InitDefaultData() {
	log := logger.GetAppLogger()
	log.Info("Starting InitDefaultData...")

	initService, err := initsvc.NewInitService()
	if err != nil {
		log.Fatalf("Failed to initialize init service: %v", err)
	}

	ctx := context.Background()

	// 1. Danh mục field chuẩn cho các bộ phận
	if err := initService.InitDefaultCatalog(ctx); err != nil {
		log.Fatalf("Failed to initialize default catalog: %v", err)
	}
	log.Info("Default catalog initialized")

	// 2. Cấu hình gán báo cáo mặc định (scope global)
	if err := initService.InitAttributionConfig(ctx); err != nil {
		log.Fatalf("Failed to initialize attribution config: %v", err)
	}
	log.Info("Attribution config initialized")

	// 3. Cửa hàng demo với bộ phận và nhân sự mẫu
	store, err := initService.InitDemoStore(ctx)
	if err != nil {
		log.Warnf("Failed to initialize demo store: %v", err)
	} else {
		log.Infof("Demo store initialized (ID: %s)", store.ID.Hex())
	}

	log.Info("InitDefaultData completed successfully")
}

// WarmCatalog load snapshot danh mục field vào bộ nhớ trước khi server nhận request.
// Lỗi load không chặn khởi động: snapshot sẽ được lazy load ở request đầu tiên.
func WarmCatalog() {
	log := logger.GetAppLogger()

	catalogService, err := catalogsvc.NewCatalogService()
	if err != nil {
		log.Warnf("Failed to create catalog service for warm load: %v", err)
		return
	}

	snapshot, err := catalogService.Reload(context.Background())
	if err != nil {
		log.Warnf("Failed to warm load catalog snapshot: %v", err)
		return
	}

	log.Infof("Catalog snapshot warmed: %d departments", len(snapshot.DepartmentCodes()))
}
