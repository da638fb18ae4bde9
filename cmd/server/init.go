package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"store_reports/config"
	catalogmodels "store_reports/internal/api/catalog/models"
	orgmodels "store_reports/internal/api/org/models"
	submissionmodels "store_reports/internal/api/submission/models"
	"store_reports/internal/database"
	"store_reports/internal/global"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối database
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	global.MongoDB_ColNames.Stores = "org_stores"
	global.MongoDB_ColNames.Departments = "org_departments"
	global.MongoDB_ColNames.Users = "org_users"
	global.MongoDB_ColNames.ConfigItems = "org_config_items"
	global.MongoDB_ColNames.CatalogFields = "catalog_fields"
	global.MongoDB_ColNames.ReportSubmissions = "report_submissions"

	logrus.Info("Initialized collection names")
}

// Hàm khởi tạo validator (global.InitValidator đăng ký custom validators: exists, config_value, report_date)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.MongoDB_ServerConfig = config.NewConfig()
	if global.MongoDB_ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil")
	}
	logrus.Info("Initialized server config")
}

// Hàm khởi tạo kết nối database
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.MongoDB_ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")

	// Khởi tạo db và các collection nếu chưa có
	if err := database.EnsureDatabaseAndCollections(global.MongoDB_Session); err != nil {
		logrus.Fatalf("Failed to ensure database and collections: %v", err)
	}
	logrus.Info("Ensured database and collections")

	// Khởi tạo index cho các collection từ tag trên model
	dbName := global.MongoDB_ServerConfig.MongoDB_DBName
	db := global.MongoDB_Session.Database(dbName)
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.Stores), orgmodels.Store{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.Departments), orgmodels.Department{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.Users), orgmodels.User{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.ConfigItems), orgmodels.ConfigItem{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.CatalogFields), catalogmodels.CatalogField{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.ReportSubmissions), submissionmodels.Submission{})
}
