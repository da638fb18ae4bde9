// Package router đăng ký các route cho API tổng hợp báo cáo.
package router

import (
	"github.com/gofiber/fiber/v3"

	"store_reports/internal/api/report/handler"
	"store_reports/internal/api/router"
)

// Register đăng ký các route tổng hợp báo cáo vào group /api/v1
func Register(v1 fiber.Router, _ *router.Router) error {
	reportHandler, err := handler.NewReportHandler()
	if err != nil {
		return err
	}

	router.RegisterRouteWithMiddleware(v1, "/reports", "GET", "/aggregate", nil, reportHandler.HandleAggregate)

	return nil
}
