// Package router đăng ký các route cho API báo cáo hàng ngày.
package router

import (
	"github.com/gofiber/fiber/v3"

	"store_reports/internal/api/router"
	"store_reports/internal/api/submission/handler"
)

// Register đăng ký các route báo cáo hàng ngày vào group /api/v1
func Register(v1 fiber.Router, _ *router.Router) error {
	submissionHandler, err := handler.NewSubmissionHandler()
	if err != nil {
		return err
	}

	router.RegisterRouteWithMiddleware(v1, "/submissions", "POST", "/submit", nil, submissionHandler.HandleSubmit)
	router.RegisterRouteWithMiddleware(v1, "/submissions", "GET", "/find", nil, submissionHandler.HandleFind)

	return nil
}
