package reportsvc

import (
	"context"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	catalogmodels "store_reports/internal/api/catalog/models"
	orgmodels "store_reports/internal/api/org/models"
	reportmodels "store_reports/internal/api/report/models"
	submissionmodels "store_reports/internal/api/submission/models"
	"store_reports/internal/common"
)

// ===== Các collaborator giả chạy trong bộ nhớ =====

type fakeSubmissionSource struct {
	submissions []submissionmodels.Submission
}

func (f *fakeSubmissionSource) FindForAggregation(_ context.Context, storeID primitive.ObjectID, departmentID *primitive.ObjectID, fromDate, toDate string) ([]submissionmodels.Submission, error) {
	var result []submissionmodels.Submission
	for _, s := range f.submissions {
		if s.StoreID != storeID {
			continue
		}
		if departmentID != nil && s.DepartmentID != *departmentID {
			continue
		}
		if s.ReportDate < fromDate || s.ReportDate > toDate {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

type fakeStoreSource struct {
	stores map[primitive.ObjectID]orgmodels.Store
}

func (f *fakeStoreSource) FindActiveByID(_ context.Context, id primitive.ObjectID) (orgmodels.Store, error) {
	store, ok := f.stores[id]
	if !ok {
		return orgmodels.Store{}, common.ErrStoreNotFound
	}
	return store, nil
}

type fakeDepartmentSource struct {
	departments []orgmodels.Department
}

func (f *fakeDepartmentSource) FindActiveByStore(_ context.Context, storeID primitive.ObjectID) ([]orgmodels.Department, error) {
	var result []orgmodels.Department
	for _, d := range f.departments {
		if d.StoreID == storeID {
			result = append(result, d)
		}
	}
	return result, nil
}

func (f *fakeDepartmentSource) FindActiveByID(_ context.Context, id primitive.ObjectID) (orgmodels.Department, error) {
	for _, d := range f.departments {
		if d.ID == id {
			return d, nil
		}
	}
	return orgmodels.Department{}, common.ErrDepartmentNotFound
}

type fakeUserSource struct {
	users []orgmodels.User
}

func (f *fakeUserSource) FindActiveByDepartment(_ context.Context, departmentID primitive.ObjectID) ([]orgmodels.User, error) {
	var result []orgmodels.User
	for _, u := range f.users {
		if u.DepartmentID == departmentID {
			result = append(result, u)
		}
	}
	return result, nil
}

type fakeAttributionSource struct {
	rules     map[string]string // departmentCode → rule
	fallbacks map[string]bool   // departmentCode → usedFallback
}

func (f *fakeAttributionSource) GetAttributionRule(_ context.Context, _ primitive.ObjectID, departmentCode string) (string, bool, error) {
	rule, ok := f.rules[departmentCode]
	if !ok {
		rule = AttributionRuleAuto
	}
	return rule, f.fallbacks[departmentCode], nil
}

type fakeCatalogSource struct {
	catalog *catalogmodels.Catalog
}

func (f *fakeCatalogSource) Snapshot(_ context.Context) (*catalogmodels.Catalog, error) {
	return f.catalog, nil
}

// ===== Kịch bản test =====

type testWorld struct {
	engine      *ReportService
	store       orgmodels.Store
	kitchen     orgmodels.Department
	sales       orgmodels.Department
	cook        orgmodels.User
	seller      orgmodels.User
	submissions *fakeSubmissionSource
	attribution *fakeAttributionSource
}

// newTestWorld dựng một cửa hàng với hai bộ phận: bếp (kitchen) quy tắc AUTO
// và bán hàng (sales) yêu cầu vai trò STAFF
func newTestWorld() *testWorld {
	storeID := primitive.NewObjectID()
	store := orgmodels.Store{ID: storeID, Code: "HN01", Name: "Cửa hàng Hà Nội 1", Active: true}

	kitchen := orgmodels.Department{ID: primitive.NewObjectID(), StoreID: storeID, Code: "kitchen", Name: "Bếp", Active: true}
	sales := orgmodels.Department{ID: primitive.NewObjectID(), StoreID: storeID, Code: "sales", Name: "Bán hàng", Active: true}

	cook := orgmodels.User{ID: primitive.NewObjectID(), Name: "Nguyễn Văn Bếp", StoreID: storeID, DepartmentID: kitchen.ID, Roles: []string{"STAFF"}, Active: true}
	seller := orgmodels.User{ID: primitive.NewObjectID(), Name: "Trần Thị Bán", StoreID: storeID, DepartmentID: sales.ID, Roles: []string{"STAFF"}, Active: true}

	catalog := catalogmodels.NewCatalog(map[string]*catalogmodels.DepartmentCatalog{
		"kitchen": kitchenCatalog(),
	}, 0)

	submissions := &fakeSubmissionSource{}
	attribution := &fakeAttributionSource{
		rules:     map[string]string{"sales": "STAFF"},
		fallbacks: map[string]bool{},
	}

	engine := NewReportServiceWithSources(ReportSources{
		Submissions: submissions,
		Stores:      &fakeStoreSource{stores: map[primitive.ObjectID]orgmodels.Store{storeID: store}},
		Departments: &fakeDepartmentSource{departments: []orgmodels.Department{kitchen, sales}},
		Users:       &fakeUserSource{users: []orgmodels.User{cook, seller}},
		Attribution: attribution,
		Catalog:     &fakeCatalogSource{catalog: catalog},
	}, 366, "custom_", "vi")

	return &testWorld{
		engine:      engine,
		store:       store,
		kitchen:     kitchen,
		sales:       sales,
		cook:        cook,
		seller:      seller,
		submissions: submissions,
		attribution: attribution,
	}
}

func (w *testWorld) addSubmission(user orgmodels.User, department orgmodels.Department, reportDate, status string, payload interface{}, fixed *submissionmodels.FixedRecord) submissionmodels.Submission {
	submission := submissionmodels.Submission{
		ID:           primitive.NewObjectID(),
		UserID:       user.ID,
		StoreID:      w.store.ID,
		DepartmentID: department.ID,
		ReportDate:   reportDate,
		Status:       status,
		Roles:        user.Roles,
		Fixed:        fixed,
		Payload:      payload,
		CreatedAt:    int64(len(w.submissions.submissions) + 1),
	}
	w.submissions.submissions = append(w.submissions.submissions, submission)
	return submission
}

func (w *testWorld) aggregate(t *testing.T, fromDate, toDate string, includeValues bool) *reportmodels.StoreSummary {
	t.Helper()
	summary, err := w.engine.Aggregate(context.Background(), AggregateQuery{
		StoreID:       w.store.ID,
		FromDate:      fromDate,
		ToDate:        toDate,
		IncludeValues: includeValues,
	})
	if err != nil {
		t.Fatalf("Tổng hợp lỗi không mong muốn: %v", err)
	}
	return summary
}

func departmentByCode(t *testing.T, summary *reportmodels.StoreSummary, code string) reportmodels.DepartmentSummary {
	t.Helper()
	for _, d := range summary.Departments {
		if d.DepartmentCode == code {
			return d
		}
	}
	t.Fatalf("Không tìm thấy bộ phận %q trong kết quả", code)
	return reportmodels.DepartmentSummary{}
}

func fieldByID(t *testing.T, fields []reportmodels.FieldSummary, fieldID string) (reportmodels.FieldSummary, bool) {
	t.Helper()
	for _, f := range fields {
		if f.FieldID == fieldID {
			return f, true
		}
	}
	return reportmodels.FieldSummary{}, false
}

// ===== Engine tests =====

func TestAggregate_NoDoubleCounting(t *testing.T) {
	w := newTestWorld()
	cash := 5000.0 // 50 đơn vị lớn
	w.addSubmission(w.cook, w.kitchen, "2026-03-10", submissionmodels.StatusSubmitted,
		map[string]interface{}{"tien_mat": float64(50)}, // cùng chỉ số, nhập lại qua payload
		&submissionmodels.FixedRecord{RevenueCash: &cash})

	summary := w.aggregate(t, "2026-03-01", "2026-03-31", false)
	kitchen := departmentByCode(t, summary, "kitchen")

	field, ok := fieldByID(t, kitchen.Fields, "revenue_cash")
	if !ok {
		t.Fatal("Thiếu field revenue_cash trong kết quả")
	}
	if field.Total != 50 {
		t.Errorf("Tổng phải là 50 (chỉ tính bảng cố định), nhận được %v", field.Total)
	}
	if field.Count != 1 {
		t.Errorf("Count phải là 1 báo cáo, nhận được %d", field.Count)
	}
}

func TestAggregate_DraftExclusion(t *testing.T) {
	w := newTestWorld()
	big := 999999.0
	w.addSubmission(w.cook, w.kitchen, "2026-03-10", submissionmodels.StatusDraft,
		map[string]interface{}{"tien_mat": float64(888)},
		&submissionmodels.FixedRecord{RevenueCash: &big})

	summary := w.aggregate(t, "2026-03-01", "2026-03-31", false)
	kitchen := departmentByCode(t, summary, "kitchen")

	if kitchen.SubmittedCount != 0 {
		t.Errorf("DRAFT không được tính vào submittedCount, nhận được %d", kitchen.SubmittedCount)
	}
	if _, ok := fieldByID(t, kitchen.Fields, "revenue_cash"); ok {
		t.Error("DRAFT không được đóng góp giá trị field nào")
	}
}

func TestAggregate_RangeAdditivity(t *testing.T) {
	w := newTestWorld()
	w.addSubmission(w.cook, w.kitchen, "2026-03-05", submissionmodels.StatusSubmitted,
		map[string]interface{}{"tien_mat": float64(10)}, nil)
	w.addSubmission(w.cook, w.kitchen, "2026-03-12", submissionmodels.StatusSubmitted,
		map[string]interface{}{"tien_mat": float64(20)}, nil)
	w.addSubmission(w.cook, w.kitchen, "2026-03-20", submissionmodels.StatusSubmitted,
		map[string]interface{}{"tien_mat": float64(40)}, nil)

	whole := w.aggregate(t, "2026-03-01", "2026-03-31", false)
	firstHalf := w.aggregate(t, "2026-03-01", "2026-03-15", false)
	secondHalf := w.aggregate(t, "2026-03-16", "2026-03-31", false)

	wholeField, _ := fieldByID(t, departmentByCode(t, whole, "kitchen").Fields, "revenue_cash")
	firstField, _ := fieldByID(t, departmentByCode(t, firstHalf, "kitchen").Fields, "revenue_cash")
	secondField, _ := fieldByID(t, departmentByCode(t, secondHalf, "kitchen").Fields, "revenue_cash")

	if wholeField.Total != firstField.Total+secondField.Total {
		t.Errorf("Tổng phải cộng được qua hai nửa khoảng: %v != %v + %v",
			wholeField.Total, firstField.Total, secondField.Total)
	}
	if wholeField.Count != firstField.Count+secondField.Count {
		t.Errorf("Count phải cộng được qua hai nửa khoảng: %d != %d + %d",
			wholeField.Count, firstField.Count, secondField.Count)
	}
}

func TestAggregate_DynamicRowTotals(t *testing.T) {
	w := newTestWorld()
	w.addSubmission(w.cook, w.kitchen, "2026-03-10", submissionmodels.StatusSubmitted,
		map[string]interface{}{"sales_rows": []interface{}{
			map[string]interface{}{"item": "phở", "amount": float64(10)},
			map[string]interface{}{"item": "bún", "amount": float64(20)},
		}}, nil)
	secondCook := orgmodels.User{ID: primitive.NewObjectID(), DepartmentID: w.kitchen.ID, Roles: []string{"STAFF"}}
	w.addSubmission(secondCook, w.kitchen, "2026-03-11", submissionmodels.StatusSubmitted,
		map[string]interface{}{"sales_rows": []interface{}{
			map[string]interface{}{"item": "chè", "amount": float64(5)},
		}}, nil)

	summary := w.aggregate(t, "2026-03-01", "2026-03-31", true)
	kitchen := departmentByCode(t, summary, "kitchen")

	field, ok := fieldByID(t, kitchen.Fields, "sales_rows")
	if !ok {
		t.Fatal("Thiếu field sales_rows trong kết quả")
	}
	if field.Total != 35 {
		t.Errorf("Tổng bảng động phải là 35, nhận được %v", field.Total)
	}
	if field.Count != 2 {
		t.Errorf("Count phải là 2 báo cáo, nhận được %d", field.Count)
	}
	if field.RowTotals["amount"] != 35 {
		t.Errorf("Tổng cột amount phải là 35, nhận được %v", field.RowTotals["amount"])
	}
	if len(field.Values) != 3 {
		t.Errorf("Drill-down phải chứa đúng 3 row, nhận được %d", len(field.Values))
	}
}

func TestAggregate_RoleDisjointness(t *testing.T) {
	w := newTestWorld()
	lead := orgmodels.User{ID: primitive.NewObjectID(), DepartmentID: w.sales.ID, Roles: []string{"DEPT_LEAD"}}
	w.addSubmission(lead, w.sales, "2026-03-10", submissionmodels.StatusSubmitted,
		map[string]interface{}{"doanh_so": float64(700)}, nil)

	summary := w.aggregate(t, "2026-03-01", "2026-03-31", false)
	sales := departmentByCode(t, summary, "sales")

	if sales.SubmittedCount != 0 {
		t.Errorf("Người không mang vai trò STAFF không được tính, submittedCount = %d", sales.SubmittedCount)
	}
	if len(sales.Fields) != 0 {
		t.Errorf("Báo cáo bị loại theo vai trò không được đóng góp field, nhận được %d field", len(sales.Fields))
	}
}

func TestAggregate_IdempotentAndOrdered(t *testing.T) {
	w := newTestWorld()
	w.addSubmission(w.cook, w.kitchen, "2026-03-10", submissionmodels.StatusSubmitted,
		map[string]interface{}{
			"tien_mat":       float64(100),
			"khach_la":       float64(7), // key ngoài danh mục, thành field custom
			"customer_count": float64(30),
		}, nil)

	first := w.aggregate(t, "2026-03-01", "2026-03-31", true)
	second := w.aggregate(t, "2026-03-01", "2026-03-31", true)

	if !reflect.DeepEqual(first, second) {
		t.Error("Hai lần tổng hợp cùng đầu vào phải cho kết quả giống hệt nhau")
	}

	kitchen := departmentByCode(t, first, "kitchen")
	lastCatalogIndex := -1
	firstCustomIndex := len(kitchen.Fields)
	for i, f := range kitchen.Fields {
		if f.IsCustom {
			if i < firstCustomIndex {
				firstCustomIndex = i
			}
		} else {
			lastCatalogIndex = i
		}
	}
	if lastCatalogIndex > firstCustomIndex {
		t.Error("Field custom phải đứng sau toàn bộ field danh mục")
	}

	// Trong nhóm field danh mục, tổng lớn đứng trước
	cashIndex, countIndex := -1, -1
	for i, f := range kitchen.Fields {
		if f.FieldID == "revenue_cash" {
			cashIndex = i
		}
		if f.FieldID == "customer_count" {
			countIndex = i
		}
	}
	if cashIndex == -1 || countIndex == -1 || cashIndex > countIndex {
		t.Errorf("revenue_cash (100) phải đứng trước customer_count (30), vị trí %d và %d", cashIndex, countIndex)
	}
}

func TestAggregate_UnresolvedFieldVisibility(t *testing.T) {
	w := newTestWorld()
	w.addSubmission(w.cook, w.kitchen, "2026-03-10", submissionmodels.StatusSubmitted,
		map[string]interface{}{"chi_so_moi": float64(9)}, nil)

	summary := w.aggregate(t, "2026-03-01", "2026-03-31", false)
	kitchen := departmentByCode(t, summary, "kitchen")

	field, ok := fieldByID(t, kitchen.Fields, "chi_so_moi")
	if !ok {
		t.Fatal("Key không có trong danh mục vẫn phải xuất hiện trong kết quả")
	}
	if !field.IsCustom || field.Category != catalogmodels.CategoryOther {
		t.Errorf("Field không phân giải được phải là custom nhóm other, nhận được %+v", field)
	}
	if field.Total != 9 {
		t.Errorf("Tổng của field custom phải là 9, nhận được %v", field.Total)
	}
}

func TestAggregate_EmptyRange(t *testing.T) {
	w := newTestWorld()
	w.addSubmission(w.cook, w.kitchen, "2026-03-10", submissionmodels.StatusSubmitted,
		map[string]interface{}{"tien_mat": float64(100)}, nil)

	// Khoảng ngày không chứa báo cáo nào
	summary := w.aggregate(t, "2026-05-01", "2026-05-31", false)
	kitchen := departmentByCode(t, summary, "kitchen")

	if len(kitchen.Fields) != 0 {
		t.Errorf("Khoảng trống phải cho 0 field, nhận được %d", len(kitchen.Fields))
	}
	if kitchen.SubmittedCount != 0 || kitchen.CompletionRate != 0 {
		t.Errorf("Khoảng trống phải cho submittedCount 0 và completionRate 0, nhận được %d / %v",
			kitchen.SubmittedCount, kitchen.CompletionRate)
	}
	if kitchen.UserCount != 1 {
		t.Errorf("userCount vẫn phải là số nhân sự đang hoạt động, nhận được %d", kitchen.UserCount)
	}
}

func TestAggregate_CompletionRateZeroUsers(t *testing.T) {
	w := newTestWorld()
	// Bộ phận thứ ba không có nhân sự nào
	empty := orgmodels.Department{ID: primitive.NewObjectID(), StoreID: w.store.ID, Code: "warehouse", Name: "Kho", Active: true}
	deptSource := &fakeDepartmentSource{departments: []orgmodels.Department{w.kitchen, w.sales, empty}}
	w.engine.sources.Departments = deptSource

	summary := w.aggregate(t, "2026-03-01", "2026-03-31", false)
	warehouse := departmentByCode(t, summary, "warehouse")

	if warehouse.UserCount != 0 || warehouse.CompletionRate != 0 {
		t.Errorf("Bộ phận không nhân sự phải có completionRate 0 không lỗi chia, nhận được %v", warehouse.CompletionRate)
	}
}

func TestAggregate_InvalidRange(t *testing.T) {
	w := newTestWorld()

	_, err := w.engine.Aggregate(context.Background(), AggregateQuery{
		StoreID:  w.store.ID,
		FromDate: "2026-03-31",
		ToDate:   "2026-03-01",
	})
	if err != common.ErrInvalidRange {
		t.Errorf("Ngày cuối trước ngày đầu phải trả ErrInvalidRange, nhận được %v", err)
	}

	_, err = w.engine.Aggregate(context.Background(), AggregateQuery{
		StoreID:  w.store.ID,
		FromDate: "2020-01-01",
		ToDate:   "2026-03-01",
	})
	if err != common.ErrRangeTooWide {
		t.Errorf("Khoảng vượt giới hạn phải trả ErrRangeTooWide, nhận được %v", err)
	}
}

func TestAggregate_UnknownStore(t *testing.T) {
	w := newTestWorld()

	_, err := w.engine.Aggregate(context.Background(), AggregateQuery{
		StoreID:  primitive.NewObjectID(),
		FromDate: "2026-03-01",
		ToDate:   "2026-03-31",
	})
	if err != common.ErrStoreNotFound {
		t.Errorf("Cửa hàng không tồn tại phải trả ErrStoreNotFound, nhận được %v", err)
	}
}

func TestAggregate_ConfigFallbackCounted(t *testing.T) {
	w := newTestWorld()
	w.attribution.fallbacks["kitchen"] = true
	w.addSubmission(w.cook, w.kitchen, "2026-03-10", submissionmodels.StatusSubmitted,
		map[string]interface{}{"tien_mat": float64(10)}, nil)

	summary := w.aggregate(t, "2026-03-01", "2026-03-31", false)
	if summary.Meta.ConfigFallbacks != 1 {
		t.Errorf("Fallback cấu hình phải được đếm trong metadata, nhận được %d", summary.Meta.ConfigFallbacks)
	}
}

func TestAggregate_CorruptPayloadIsolated(t *testing.T) {
	w := newTestWorld()
	w.addSubmission(w.cook, w.kitchen, "2026-03-10", submissionmodels.StatusSubmitted,
		"payload hỏng", nil)
	secondCook := orgmodels.User{ID: primitive.NewObjectID(), DepartmentID: w.kitchen.ID, Roles: []string{"STAFF"}}
	w.addSubmission(secondCook, w.kitchen, "2026-03-11", submissionmodels.StatusSubmitted,
		map[string]interface{}{"tien_mat": float64(10)}, nil)

	summary := w.aggregate(t, "2026-03-01", "2026-03-31", false)
	kitchen := departmentByCode(t, summary, "kitchen")

	if summary.Meta.SkippedSubmissions != 1 {
		t.Errorf("Báo cáo hỏng phải được đếm vào skippedSubmissions, nhận được %d", summary.Meta.SkippedSubmissions)
	}
	field, ok := fieldByID(t, kitchen.Fields, "revenue_cash")
	if !ok || field.Total != 10 {
		t.Errorf("Báo cáo lành phải vẫn được tổng hợp bình thường, nhận được %+v", field)
	}
}

func TestAggregate_StoreFieldsRollup(t *testing.T) {
	w := newTestWorld()
	w.addSubmission(w.cook, w.kitchen, "2026-03-10", submissionmodels.StatusSubmitted,
		map[string]interface{}{"tien_mat": float64(100)}, nil)
	w.addSubmission(w.seller, w.sales, "2026-03-10", submissionmodels.StatusSubmitted,
		map[string]interface{}{"tien_mat": float64(40)}, nil)

	summary := w.aggregate(t, "2026-03-01", "2026-03-31", false)

	// Bộ phận sales không có catalog: key tien_mat thành field custom riêng,
	// còn bếp phân giải về revenue_cash. Cả hai phải có mặt trong rollup.
	if _, ok := fieldByID(t, summary.StoreFields, "revenue_cash"); !ok {
		t.Error("Rollup toàn cửa hàng phải chứa revenue_cash của bếp")
	}
	if _, ok := fieldByID(t, summary.StoreFields, "tien_mat"); !ok {
		t.Error("Rollup toàn cửa hàng phải chứa field custom tien_mat của sales")
	}

	// Cùng field từ hai bộ phận thì tổng cộng dồn
	w.addSubmission(w.seller, w.sales, "2026-03-11", submissionmodels.StatusSubmitted,
		map[string]interface{}{"tien_mat": float64(60)}, nil)
	summary = w.aggregate(t, "2026-03-01", "2026-03-31", false)
	custom, _ := fieldByID(t, summary.StoreFields, "tien_mat")
	if custom.Total != 100 {
		t.Errorf("Rollup phải cộng dồn qua các ngày của sales: mong đợi 100, nhận được %v", custom.Total)
	}
}

func TestAggregate_CalculatedField(t *testing.T) {
	w := newTestWorld()

	// Thêm field calculated vào catalog bếp
	fields := kitchenCatalog().Fields
	fields = append(fields, &catalogmodels.FieldDefinition{
		ID:        "avg_ticket",
		Label:     "Doanh thu trên lượt khách",
		ValueType: catalogmodels.ValueTypeCalculated,
		Category:  "revenue",
		Formula:   "revenue_cash / customer_count",
		Order:     10,
	})
	catalog := catalogmodels.NewCatalog(map[string]*catalogmodels.DepartmentCatalog{
		"kitchen": catalogmodels.NewDepartmentCatalog("kitchen", fields),
	}, 0)
	w.engine.sources.Catalog = &fakeCatalogSource{catalog: catalog}

	w.addSubmission(w.cook, w.kitchen, "2026-03-10", submissionmodels.StatusSubmitted,
		map[string]interface{}{"tien_mat": float64(100), "customer_count": float64(20)}, nil)

	summary := w.aggregate(t, "2026-03-01", "2026-03-31", false)
	kitchen := departmentByCode(t, summary, "kitchen")

	field, ok := fieldByID(t, kitchen.Fields, "avg_ticket")
	if !ok {
		t.Fatal("Field calculated phải xuất hiện trong kết quả bộ phận")
	}
	if field.Total != 5 {
		t.Errorf("avg_ticket phải là 100/20 = 5, nhận được %v", field.Total)
	}
	if field.SourceType != reportmodels.SourceCalculated {
		t.Errorf("Field calculated phải có sourceType calculated, nhận được %s", field.SourceType)
	}
}
