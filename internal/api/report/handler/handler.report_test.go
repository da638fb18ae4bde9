package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	catalogmodels "store_reports/internal/api/catalog/models"
	orgmodels "store_reports/internal/api/org/models"
	reportsvc "store_reports/internal/api/report/service"
	submissionmodels "store_reports/internal/api/submission/models"
	"store_reports/internal/common"
	"store_reports/internal/global"
)

// ===== Collaborator giả cho engine =====

type stubSubmissionSource struct {
	submissions []submissionmodels.Submission
}

func (s *stubSubmissionSource) FindForAggregation(_ context.Context, storeID primitive.ObjectID, _ *primitive.ObjectID, fromDate, toDate string) ([]submissionmodels.Submission, error) {
	var result []submissionmodels.Submission
	for _, item := range s.submissions {
		if item.StoreID == storeID && item.ReportDate >= fromDate && item.ReportDate <= toDate {
			result = append(result, item)
		}
	}
	return result, nil
}

type stubStoreSource struct {
	store orgmodels.Store
}

func (s *stubStoreSource) FindActiveByID(_ context.Context, id primitive.ObjectID) (orgmodels.Store, error) {
	if id != s.store.ID {
		return orgmodels.Store{}, common.ErrStoreNotFound
	}
	return s.store, nil
}

type stubDepartmentSource struct {
	department orgmodels.Department
}

func (s *stubDepartmentSource) FindActiveByStore(_ context.Context, _ primitive.ObjectID) ([]orgmodels.Department, error) {
	return []orgmodels.Department{s.department}, nil
}

func (s *stubDepartmentSource) FindActiveByID(_ context.Context, id primitive.ObjectID) (orgmodels.Department, error) {
	if id != s.department.ID {
		return orgmodels.Department{}, common.ErrDepartmentNotFound
	}
	return s.department, nil
}

type stubUserSource struct {
	users []orgmodels.User
}

func (s *stubUserSource) FindActiveByDepartment(_ context.Context, _ primitive.ObjectID) ([]orgmodels.User, error) {
	return s.users, nil
}

type stubAttributionSource struct{}

func (s *stubAttributionSource) GetAttributionRule(_ context.Context, _ primitive.ObjectID, _ string) (string, bool, error) {
	return reportsvc.AttributionRuleAuto, false, nil
}

type stubCatalogSource struct {
	catalog *catalogmodels.Catalog
}

func (s *stubCatalogSource) Snapshot(_ context.Context) (*catalogmodels.Catalog, error) {
	return s.catalog, nil
}

// newTestApp dựng Fiber app với một cửa hàng, một bộ phận bar và một báo cáo đã nộp
func newTestApp(t *testing.T) (*fiber.App, orgmodels.Store) {
	t.Helper()
	global.InitValidator()

	store := orgmodels.Store{ID: primitive.NewObjectID(), Code: "HN01", Name: "Cửa hàng Hà Nội 1", Active: true}
	department := orgmodels.Department{ID: primitive.NewObjectID(), StoreID: store.ID, Code: "bar", Name: "Bar", Active: true}
	user := orgmodels.User{ID: primitive.NewObjectID(), Name: "Nguyễn Văn A", StoreID: store.ID, DepartmentID: department.ID, Roles: []string{"STAFF"}, Active: true}

	catalog := catalogmodels.NewCatalog(map[string]*catalogmodels.DepartmentCatalog{
		"bar": catalogmodels.NewDepartmentCatalog("bar", []*catalogmodels.FieldDefinition{
			{
				ID:        "revenue_cash",
				Label:     "Doanh thu tiền mặt",
				ValueType: catalogmodels.ValueTypeMoney,
				Unit:      catalogmodels.UnitMinor,
				Category:  "revenue",
				Synonyms:  []string{"tien_mat"},
				FixedAttr: "revenueCash",
			},
		}),
	}, 0)

	submissions := &stubSubmissionSource{submissions: []submissionmodels.Submission{
		{
			ID:           primitive.NewObjectID(),
			UserID:       user.ID,
			StoreID:      store.ID,
			DepartmentID: department.ID,
			ReportDate:   "2026-03-10",
			Status:       submissionmodels.StatusSubmitted,
			Roles:        user.Roles,
			Payload:      map[string]interface{}{"tien_mat": float64(150)},
			CreatedAt:    1,
		},
	}}

	service := reportsvc.NewReportServiceWithSources(reportsvc.ReportSources{
		Submissions: submissions,
		Stores:      &stubStoreSource{store: store},
		Departments: &stubDepartmentSource{department: department},
		Users:       &stubUserSource{users: []orgmodels.User{user}},
		Attribution: &stubAttributionSource{},
		Catalog:     &stubCatalogSource{catalog: catalog},
	}, 366, "custom_", "vi")

	reportHandler := NewReportHandlerWithService(service)

	app := fiber.New()
	app.Get("/api/v1/reports/aggregate", reportHandler.HandleAggregate)
	return app, store
}

func doAggregate(t *testing.T, app *fiber.App, query string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("GET", "/api/v1/reports/aggregate?"+query, nil)
	resp, err := app.Test(req)
	require.NoError(t, err, "Gọi app.Test không được lỗi")
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body), "Response phải là JSON hợp lệ")
	return resp.StatusCode, body
}

func TestHandleAggregate_Success(t *testing.T) {
	app, store := newTestApp(t)

	status, body := doAggregate(t, app,
		fmt.Sprintf("storeId=%s&from=01-03-2026&to=31-03-2026", store.ID.Hex()))

	assert.Equal(t, common.StatusOK, status)
	assert.Equal(t, "success", body["status"])

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "data phải là object kết quả tổng hợp")
	assert.Equal(t, store.ID.Hex(), data["storeId"])
	assert.Equal(t, "2026-03-01", data["fromDate"], "Ngày query dd-mm-yyyy phải được đổi sang yyyy-mm-dd")
	assert.Equal(t, "2026-03-31", data["toDate"])

	departments, ok := data["departments"].([]interface{})
	require.True(t, ok, "departments phải là mảng")
	require.Len(t, departments, 1)

	bar := departments[0].(map[string]interface{})
	assert.Equal(t, "bar", bar["departmentCode"])
	assert.Equal(t, float64(1), bar["submittedCount"])
	assert.Equal(t, float64(1), bar["completionRate"])

	fields, ok := bar["fields"].([]interface{})
	require.True(t, ok, "fields phải là mảng")
	require.Len(t, fields, 1)
	field := fields[0].(map[string]interface{})
	assert.Equal(t, "revenue_cash", field["fieldId"])
	assert.Equal(t, float64(150), field["total"])
}

func TestHandleAggregate_MissingParams(t *testing.T) {
	app, store := newTestApp(t)

	status, body := doAggregate(t, app, "from=01-03-2026&to=31-03-2026")
	assert.Equal(t, common.StatusBadRequest, status, "Thiếu storeId phải trả 400")
	assert.Equal(t, "error", body["status"])

	status, body = doAggregate(t, app, fmt.Sprintf("storeId=%s&from=01-03-2026", store.ID.Hex()))
	assert.Equal(t, common.StatusBadRequest, status, "Thiếu to phải trả 400")
	assert.Equal(t, "error", body["status"])
}

func TestHandleAggregate_BadDateFormat(t *testing.T) {
	app, store := newTestApp(t)

	status, body := doAggregate(t, app,
		fmt.Sprintf("storeId=%s&from=2026-03-01&to=2026-03-31", store.ID.Hex()))

	assert.Equal(t, common.StatusBadRequest, status, "Ngày sai định dạng dd-mm-yyyy phải trả 400")
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, common.ErrInvalidRange.(*common.Error).Message, body["message"])
}

func TestHandleAggregate_UnknownStore(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doAggregate(t, app,
		fmt.Sprintf("storeId=%s&from=01-03-2026&to=31-03-2026", primitive.NewObjectID().Hex()))

	assert.Equal(t, common.StatusNotFound, status, "Cửa hàng không tồn tại phải trả 404")
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, common.ErrStoreNotFound.(*common.Error).Message, body["message"])
}

func TestHandleAggregate_BadObjectID(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doAggregate(t, app, "storeId=abc&from=01-03-2026&to=31-03-2026")
	assert.Equal(t, common.StatusBadRequest, status, "storeId không phải ObjectID phải trả 400")
	assert.Equal(t, "error", body["status"])
}
