package reportsvc

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	catalogmodels "store_reports/internal/api/catalog/models"
	reportmodels "store_reports/internal/api/report/models"
	submissionmodels "store_reports/internal/api/submission/models"
)

// kitchenCatalog tạo catalog bộ phận bếp dùng chung cho các test chuẩn hóa
func kitchenCatalog() *catalogmodels.DepartmentCatalog {
	fields := []*catalogmodels.FieldDefinition{
		{
			ID:        "revenue_cash",
			Label:     "Doanh thu tiền mặt",
			ValueType: catalogmodels.ValueTypeMoney,
			Unit:      catalogmodels.UnitMinor,
			Category:  "revenue",
			Synonyms:  []string{"tien_mat"},
			FixedAttr: "revenueCash",
			Order:     1,
		},
		{
			ID:        "customer_count",
			Label:     "Số lượt khách",
			ValueType: catalogmodels.ValueTypeNumber,
			Category:  "visits",
			FixedAttr: "customerCount",
			Order:     2,
		},
		{
			ID:        "sales_rows",
			Label:     "Món bán trong ngày",
			ValueType: catalogmodels.ValueTypeDynamicRows,
			Category:  "revenue",
			RowFields: []string{"item", "qty", "amount"},
			Order:     3,
		},
		{
			ID:        "shift_note",
			Label:     "Ghi chú ca",
			ValueType: catalogmodels.ValueTypeText,
			Category:  "other",
			FixedAttr: "note",
			Order:     4,
		},
	}
	return catalogmodels.NewDepartmentCatalog("kitchen", fields)
}

func testSubmission(payload interface{}, fixed *submissionmodels.FixedRecord) submissionmodels.Submission {
	return submissionmodels.Submission{
		ID:           primitive.NewObjectID(),
		UserID:       primitive.NewObjectID(),
		StoreID:      primitive.NewObjectID(),
		DepartmentID: primitive.NewObjectID(),
		ReportDate:   "2026-03-15",
		Status:       submissionmodels.StatusSubmitted,
		Fixed:        fixed,
		Payload:      payload,
	}
}

func findValues(values []reportmodels.NormalizedFieldValue, fieldID string) []reportmodels.NormalizedFieldValue {
	var matched []reportmodels.NormalizedFieldValue
	for _, v := range values {
		if v.FieldID == fieldID {
			matched = append(matched, v)
		}
	}
	return matched
}

func TestNormalizeSubmission_FixedRecordMapping(t *testing.T) {
	dc := kitchenCatalog()
	cash := 5000.0
	customers := int64(12)
	submission := testSubmission(nil, &submissionmodels.FixedRecord{
		RevenueCash:   &cash,
		CustomerCount: &customers,
		Note:          "ca tối đông khách",
	})

	values, ambiguous, err := NormalizeSubmission(submission, dc, "custom_")
	if err != nil {
		t.Fatalf("Chuẩn hóa bảng cố định lỗi không mong muốn: %v", err)
	}
	if ambiguous != 0 {
		t.Errorf("Bảng cố định không được sinh key mơ hồ, nhận được %d", ambiguous)
	}

	cashValues := findValues(values, "revenue_cash")
	if len(cashValues) != 1 {
		t.Fatalf("Mong đợi 1 giá trị revenue_cash, nhận được %d", len(cashValues))
	}
	// 5000 đơn vị nhỏ = 50 đơn vị lớn
	if cashValues[0].Numeric != 50 {
		t.Errorf("Tiền đơn vị nhỏ phải được chia 100, mong đợi 50, nhận được %v", cashValues[0].Numeric)
	}
	if cashValues[0].SourceKind != reportmodels.SourceFixedTable {
		t.Errorf("Giá trị bảng cố định phải có nguồn fixedTable, nhận được %s", cashValues[0].SourceKind)
	}

	customerValues := findValues(values, "customer_count")
	if len(customerValues) != 1 || customerValues[0].Numeric != 12 {
		t.Errorf("Số lượt khách phải giữ nguyên giá trị 12, nhận được %+v", customerValues)
	}

	noteValues := findValues(values, "shift_note")
	if len(noteValues) != 1 || noteValues[0].Text != "ca tối đông khách" {
		t.Errorf("Ghi chú phải ánh xạ về shift_note dạng chữ, nhận được %+v", noteValues)
	}
}

func TestNormalizeSubmission_FixedMoneyUnitFromCatalog(t *testing.T) {
	// Danh mục khai báo field tiền nguồn bảng cố định với unit major:
	// giá trị phải giữ nguyên, không chia 100
	fields := []*catalogmodels.FieldDefinition{
		{
			ID:        "revenue_cash",
			Label:     "Doanh thu tiền mặt",
			ValueType: catalogmodels.ValueTypeMoney,
			Unit:      catalogmodels.UnitMajor,
			Category:  "revenue",
			FixedAttr: "revenueCash",
			Order:     1,
		},
	}
	dc := catalogmodels.NewDepartmentCatalog("kitchen", fields)

	cash := 5000.0
	submission := testSubmission(nil, &submissionmodels.FixedRecord{RevenueCash: &cash})

	values, _, err := NormalizeSubmission(submission, dc, "custom_")
	if err != nil {
		t.Fatalf("Chuẩn hóa bảng cố định lỗi không mong muốn: %v", err)
	}

	cashValues := findValues(values, "revenue_cash")
	if len(cashValues) != 1 {
		t.Fatalf("Mong đợi 1 giá trị revenue_cash, nhận được %d", len(cashValues))
	}
	if cashValues[0].Numeric != 5000 {
		t.Errorf("Field tiền unit major phải giữ nguyên giá trị 5000, nhận được %v", cashValues[0].Numeric)
	}

	// Thuộc tính tiền không có trong danh mục vẫn mặc định đơn vị nhỏ
	card := 5000.0
	submission = testSubmission(nil, &submissionmodels.FixedRecord{RevenueCard: &card})
	values, _, err = NormalizeSubmission(submission, dc, "custom_")
	if err != nil {
		t.Fatalf("Chuẩn hóa bảng cố định lỗi không mong muốn: %v", err)
	}
	cardValues := findValues(values, "revenuecard")
	if len(cardValues) != 1 || cardValues[0].Numeric != 50 {
		t.Errorf("Thuộc tính tiền ngoài danh mục phải chia 100 theo mặc định, nhận được %+v", cardValues)
	}
}

func TestNormalizeSubmission_CorruptPayload(t *testing.T) {
	dc := kitchenCatalog()
	submission := testSubmission("đây không phải map", nil)

	values, _, err := NormalizeSubmission(submission, dc, "custom_")
	if err == nil {
		t.Error("Payload không phải map phải trả lỗi để caller đếm skippedSubmissions")
	}
	if len(values) != 0 {
		t.Errorf("Báo cáo có payload hỏng phải đóng góp 0 giá trị, nhận được %d", len(values))
	}
}

func TestNormalizeSubmission_PayloadResolution(t *testing.T) {
	dc := kitchenCatalog()
	submission := testSubmission(map[string]interface{}{
		"tien_mat":   float64(30), // synonym của revenue_cash
		"mon_dac_biet": "chả cá",  // không có trong danh mục
	}, nil)

	values, ambiguous, err := NormalizeSubmission(submission, dc, "custom_")
	if err != nil {
		t.Fatalf("Chuẩn hóa payload lỗi không mong muốn: %v", err)
	}
	if ambiguous != 0 {
		t.Errorf("Không có key mơ hồ trong payload này, nhận được %d", ambiguous)
	}

	cashValues := findValues(values, "revenue_cash")
	if len(cashValues) != 1 {
		t.Fatalf("Synonym tien_mat phải về revenue_cash, nhận được %+v", values)
	}
	// Payload nhập theo đơn vị lớn, không chia 100
	if cashValues[0].Numeric != 30 {
		t.Errorf("Giá trị payload phải giữ đơn vị lớn, mong đợi 30, nhận được %v", cashValues[0].Numeric)
	}
	if cashValues[0].SourceKind != reportmodels.SourceFormPayload {
		t.Errorf("Giá trị payload phải có nguồn formPayload, nhận được %s", cashValues[0].SourceKind)
	}

	// Key lạ vẫn xuất hiện dưới dạng field custom nhóm other
	customValues := findValues(values, "mon_dac_biet")
	if len(customValues) != 1 {
		t.Fatalf("Key không có trong danh mục không được bị vứt bỏ, nhận được %+v", values)
	}
	if !customValues[0].Def.IsCustom || customValues[0].Def.Category != catalogmodels.CategoryOther {
		t.Errorf("Key lạ phải thành field custom nhóm other, nhận được %+v", customValues[0].Def)
	}
	if customValues[0].IsNumeric {
		t.Error("Giá trị chữ không được coi là số")
	}
}

func TestNormalizeSubmission_NumericStringAndBool(t *testing.T) {
	dc := kitchenCatalog()
	submission := testSubmission(map[string]interface{}{
		"tien_mat":      "45.5", // số dưới dạng chuỗi
		"custom_du_ca":  true,   // boolean tính 1/0
	}, nil)

	values, _, err := NormalizeSubmission(submission, dc, "custom_")
	if err != nil {
		t.Fatalf("Chuẩn hóa lỗi không mong muốn: %v", err)
	}

	cashValues := findValues(values, "revenue_cash")
	if len(cashValues) != 1 || !cashValues[0].IsNumeric || cashValues[0].Numeric != 45.5 {
		t.Errorf("Chuỗi số phải được parse thành số, nhận được %+v", cashValues)
	}

	boolValues := findValues(values, "custom_du_ca")
	if len(boolValues) != 1 || !boolValues[0].IsNumeric || boolValues[0].Numeric != 1 {
		t.Errorf("Boolean true phải tính là 1, nhận được %+v", boolValues)
	}
}

func TestFlattenDynamicRows_RowExpansion(t *testing.T) {
	dc := kitchenCatalog()
	submission := testSubmission(map[string]interface{}{
		"sales_rows": []interface{}{
			map[string]interface{}{"item": "phở", "qty": float64(2), "amount": float64(100)},
			map[string]interface{}{"item": "bún", "qty": float64(1), "amount": float64(50)},
		},
	}, nil)

	values, _, err := NormalizeSubmission(submission, dc, "custom_")
	if err != nil {
		t.Fatalf("Trải bảng động lỗi không mong muốn: %v", err)
	}

	rowValues := findValues(values, "sales_rows")
	// Mỗi (row, cột số) một entry: 2 row × 2 cột số (qty, amount)
	if len(rowValues) != 4 {
		t.Fatalf("Mong đợi 4 đóng góp từ 2 row × 2 cột số, nhận được %d", len(rowValues))
	}
	for _, v := range rowValues {
		if v.RowIndex < 0 || v.Row == nil {
			t.Errorf("Đóng góp theo row phải giữ rowIndex và row đầy đủ, nhận được %+v", v)
		}
		if v.Column != "qty" && v.Column != "amount" {
			t.Errorf("Cột chữ không được vào đóng góp số, nhận được cột %q", v.Column)
		}
	}
}

func TestFlattenDynamicRows_TextOnlyRowKeptForDrillDown(t *testing.T) {
	dc := kitchenCatalog()
	submission := testSubmission(map[string]interface{}{
		"sales_rows": []interface{}{
			map[string]interface{}{"item": "ghi chú riêng"},
		},
	}, nil)

	values, _, err := NormalizeSubmission(submission, dc, "custom_")
	if err != nil {
		t.Fatalf("Trải bảng động lỗi không mong muốn: %v", err)
	}

	rowValues := findValues(values, "sales_rows")
	if len(rowValues) != 1 {
		t.Fatalf("Row không có cột số vẫn phải sinh 1 entry cho drill-down, nhận được %d", len(rowValues))
	}
	if rowValues[0].IsNumeric {
		t.Error("Row chỉ có chữ không được đóng góp vào tổng")
	}
	if rowValues[0].Row == nil || rowValues[0].RowIndex != 0 {
		t.Errorf("Row chữ phải giữ nguyên nội dung cho drill-down, nhận được %+v", rowValues[0])
	}
}

func TestReconcileSubmission_FixedTableWins(t *testing.T) {
	dc := kitchenCatalog()
	cash := 5000.0
	submission := testSubmission(map[string]interface{}{
		"tien_mat": float64(50),
	}, &submissionmodels.FixedRecord{RevenueCash: &cash})

	values, _, err := NormalizeSubmission(submission, dc, "custom_")
	if err != nil {
		t.Fatalf("Chuẩn hóa lỗi không mong muốn: %v", err)
	}

	values = ReconcileSubmission(values)

	cashValues := findValues(values, "revenue_cash")
	if len(cashValues) != 2 {
		t.Fatalf("Cả hai nguồn phải còn trong danh sách sau reconcile, nhận được %d", len(cashValues))
	}
	for _, v := range cashValues {
		switch v.SourceKind {
		case reportmodels.SourceFixedTable:
			if v.Supplementary {
				t.Error("Giá trị bảng cố định không được bị đánh dấu supplementary")
			}
		case reportmodels.SourceFormPayload:
			if !v.Supplementary {
				t.Error("Giá trị payload trùng field với bảng cố định phải thành supplementary")
			}
		}
	}
}

func TestReconcileSubmission_PassThrough(t *testing.T) {
	dc := kitchenCatalog()
	submission := testSubmission(map[string]interface{}{
		"tien_mat":     float64(50),
		"mon_dac_biet": float64(3),
	}, nil)

	values, _, err := NormalizeSubmission(submission, dc, "custom_")
	if err != nil {
		t.Fatalf("Chuẩn hóa lỗi không mong muốn: %v", err)
	}

	values = ReconcileSubmission(values)
	for _, v := range values {
		if v.Supplementary {
			t.Errorf("Field chỉ có một nguồn phải đi qua nguyên vẹn, %q bị đánh dấu supplementary", v.FieldID)
		}
	}
}

func TestIncludeSubmission(t *testing.T) {
	draft := testSubmission(nil, nil)
	draft.Status = submissionmodels.StatusDraft
	if IncludeSubmission(draft, AttributionRuleAuto) {
		t.Error("DRAFT phải bị loại ở mọi quy tắc, kể cả AUTO")
	}

	submitted := testSubmission(nil, nil)
	submitted.Roles = submissionmodels.RoleSet{"DEPT_LEAD"}
	if !IncludeSubmission(submitted, AttributionRuleAuto) {
		t.Error("AUTO phải tính mọi báo cáo SUBMITTED")
	}
	if IncludeSubmission(submitted, "STAFF") {
		t.Error("Quy tắc vai trò STAFF phải loại người chỉ có vai trò DEPT_LEAD")
	}
	if !IncludeSubmission(submitted, "DEPT_LEAD") {
		t.Error("Người mang đúng vai trò yêu cầu phải được tính")
	}
}

func TestDedupeLatest(t *testing.T) {
	userID := primitive.NewObjectID()
	departmentID := primitive.NewObjectID()

	older := testSubmission(map[string]interface{}{"tien_mat": float64(10)}, nil)
	older.UserID = userID
	older.DepartmentID = departmentID
	older.CreatedAt = 1000

	newer := testSubmission(map[string]interface{}{"tien_mat": float64(99)}, nil)
	newer.UserID = userID
	newer.DepartmentID = departmentID
	newer.ReportDate = older.ReportDate
	newer.CreatedAt = 2000

	result := DedupeLatest([]submissionmodels.Submission{older, newer})
	if len(result) != 1 {
		t.Fatalf("Hai bản ghi cùng khóa phải gộp còn 1, nhận được %d", len(result))
	}
	if result[0].ID != newer.ID {
		t.Error("Bản mới nhất theo createdAt phải thắng")
	}

	// Khóa khác nhau thì giữ nguyên cả hai
	other := testSubmission(nil, nil)
	result = DedupeLatest([]submissionmodels.Submission{older, other})
	if len(result) != 2 {
		t.Errorf("Bản ghi khác khóa không được gộp, nhận được %d", len(result))
	}
}
