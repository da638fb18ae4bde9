package global

import (
	"store_reports/config"
	"store_reports/internal/registry"

	"go.mongodb.org/mongo-driver/mongo"
	validator "gopkg.in/go-playground/validator.v9"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	Stores            string // Tên collection cho cửa hàng
	Departments       string // Tên collection cho bộ phận trong cửa hàng
	Users             string // Tên collection cho nhân sự
	ConfigItems       string // Tên collection cho cấu hình vận hành (toàn cục và theo cửa hàng)
	CatalogFields     string // Tên collection cho danh mục field chuẩn
	ReportSubmissions string // Tên collection cho báo cáo hàng ngày của nhân sự
}

// Các biến toàn cục
var Validate *validator.Validate                                           // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client                                          // Phiên kết nối tới MongoDB
var MongoDB_ServerConfig *config.Configuration                             // Cấu hình của server
var MongoDB_ColNames MongoDB_CollectionName = *new(MongoDB_CollectionName) // Tên các collection

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
