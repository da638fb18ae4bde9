package main

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"store_reports/internal/global"
	"store_reports/internal/logger"
)

// initLogger khởi tạo và cấu hình logger cho toàn bộ ứng dụng
func initLogger() {
	// Logger tự đọc environment variables để cấu hình (LOG_DIR, LOG_LEVEL, ...)
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	log := logger.GetAppLogger()
	log.Info("Logger system initialized successfully")
}

// main_thread khởi tạo và chạy Fiber server trên main thread
func main_thread() {
	app, err := InitFiberApp()
	if err != nil {
		logger.GetAppLogger().Fatalf("Failed to initialize Fiber app: %v", err)
	}

	cfg := global.MongoDB_ServerConfig
	log := logger.GetAppLogger()
	log.WithFields(map[string]interface{}{
		"address":  cfg.Address,
		"protocol": "HTTP",
	}).Info("Starting Fiber server...")

	if err := app.Listen(cfg.Address, fiber.ListenConfig{}); err != nil {
		log.Fatalf("Error in Fiber Listen: %v", err)
	}
}

// Hàm main
func main() {
	// Khởi tạo logger
	initLogger()

	// Khởi tạo các biến toàn cục (colnames, validator, config, mongo)
	InitGlobal()

	// Khởi tạo registry collections và index
	InitRegistry()

	// Khởi tạo dữ liệu mặc định khi chạy chế độ INITMODE
	if global.MongoDB_ServerConfig.InitMode {
		InitDefaultData()
	}

	// Warm load snapshot danh mục field trước khi nhận request
	WarmCatalog()

	// Chạy Fiber server trên main thread
	main_thread()
}
