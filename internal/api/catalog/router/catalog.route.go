// Package router đăng ký các route cho API danh mục field chuẩn.
package router

import (
	"github.com/gofiber/fiber/v3"

	"store_reports/internal/api/catalog/handler"
	"store_reports/internal/api/router"
)

// Register đăng ký các route danh mục field vào group /api/v1
func Register(v1 fiber.Router, _ *router.Router) error {
	catalogHandler, err := handler.NewCatalogHandler()
	if err != nil {
		return err
	}

	router.RegisterRouteWithMiddleware(v1, "/catalog", "GET", "/fields", nil, catalogHandler.HandleGetFields)
	router.RegisterRouteWithMiddleware(v1, "/catalog", "POST", "/reload", nil, catalogHandler.HandleReload)

	return nil
}
