package catalogsvc

import (
	"testing"

	catalogmodels "store_reports/internal/api/catalog/models"
)

// buildTestCatalog tạo catalog bộ phận bếp dùng chung cho các test phân giải key
func buildTestCatalog() *catalogmodels.DepartmentCatalog {
	fields := []*catalogmodels.FieldDefinition{
		{
			ID:        "revenue_cash",
			Label:     "Doanh thu tiền mặt",
			ValueType: catalogmodels.ValueTypeMoney,
			Unit:      catalogmodels.UnitMinor,
			Category:  "revenue",
			Synonyms:  []string{"tien_mat", "cash"},
			Order:     1,
		},
		{
			ID:        "revenue_card",
			Label:     "Doanh thu thẻ",
			ValueType: catalogmodels.ValueTypeMoney,
			Unit:      catalogmodels.UnitMinor,
			Category:  "revenue",
			Synonyms:  []string{"tien_the", "card"},
			Order:     2,
		},
		{
			ID:        "waste_count",
			Label:     "Số món hủy",
			ValueType: catalogmodels.ValueTypeNumber,
			Category:  "inventory",
			Order:     3,
		},
	}
	return catalogmodels.NewDepartmentCatalog("kitchen", fields)
}

func TestResolveFieldKey_CatalogID(t *testing.T) {
	dc := buildTestCatalog()

	def, res := ResolveFieldKey(dc, "revenue_cash", "custom_")
	if res != ResolutionCatalogID {
		t.Errorf("Mong đợi resolution catalog_id, nhận được %s", res)
	}
	if def == nil || def.ID != "revenue_cash" {
		t.Errorf("Mong đợi field revenue_cash, nhận được %+v", def)
	}

	// Không phân biệt hoa thường
	def, res = ResolveFieldKey(dc, "Revenue_Cash", "custom_")
	if res != ResolutionCatalogID || def.ID != "revenue_cash" {
		t.Errorf("Key viết hoa phải vẫn trùng mã field chuẩn, nhận được %s / %+v", res, def)
	}
}

func TestResolveFieldKey_Synonym(t *testing.T) {
	dc := buildTestCatalog()

	def, res := ResolveFieldKey(dc, "tien_mat", "custom_")
	if res != ResolutionSynonym {
		t.Errorf("Mong đợi resolution synonym, nhận được %s", res)
	}
	if def == nil || def.ID != "revenue_cash" {
		t.Errorf("Synonym tien_mat phải trỏ về revenue_cash, nhận được %+v", def)
	}
}

func TestResolveFieldKey_UniqueSubstring(t *testing.T) {
	dc := buildTestCatalog()

	// Key dài chứa synonym tien_mat
	def, res := ResolveFieldKey(dc, "tong_tien_mat_ca", "custom_")
	if res != ResolutionSubstring {
		t.Errorf("Key chứa synonym phải khớp chuỗi con, nhận được %s", res)
	}
	if def == nil || def.ID != "revenue_cash" {
		t.Errorf("Key chứa synonym tien_mat phải trỏ về revenue_cash, nhận được %+v", def)
	}

	// Chiều ngược lại: synonym tien_mat chứa key
	def, res = ResolveFieldKey(dc, "mat", "custom_")
	if res != ResolutionSubstring {
		t.Errorf("Synonym chứa key phải khớp chuỗi con, nhận được %s", res)
	}
	if def == nil || def.ID != "revenue_cash" {
		t.Errorf("Key mat nằm trong synonym tien_mat phải trỏ về revenue_cash, nhận được %+v", def)
	}
}

func TestResolveFieldKey_AmbiguousSubstring(t *testing.T) {
	dc := buildTestCatalog()

	// "tien" nằm trong cả tien_mat lẫn tien_the
	def, res := ResolveFieldKey(dc, "tien", "custom_")
	if res != ResolutionAmbiguous {
		t.Errorf("Mong đợi resolution ambiguous, nhận được %s", res)
	}
	if def != nil {
		t.Errorf("Key mơ hồ không được trả về field, nhận được %+v", def)
	}
}

func TestResolveFieldKey_IDFragmentBecomesCustom(t *testing.T) {
	dc := buildTestCatalog()

	// "revenue" là chuỗi con của hai mã field nhưng không dính synonym nào:
	// mã field không tham gia bước khớp chuỗi con nên key phải thành field
	// custom nhóm other thay vì bị loại vì mơ hồ
	def, res := ResolveFieldKey(dc, "revenue", "custom_")
	if res != ResolutionUnresolved {
		t.Errorf("Key chỉ dính mã field phải unresolved, nhận được %s", res)
	}
	if def == nil || !def.IsCustom || def.Category != catalogmodels.CategoryOther {
		t.Errorf("Key chỉ dính mã field phải thành field custom nhóm other, nhận được %+v", def)
	}
	if def.ID != "revenue" {
		t.Errorf("Field custom sinh ra phải giữ key gốc, nhận được %q", def.ID)
	}

	// Chuỗi con của một mã duy nhất cũng vậy
	def, res = ResolveFieldKey(dc, "waste", "custom_")
	if res != ResolutionUnresolved {
		t.Errorf("Chuỗi con của mã waste_count không được khớp substring, nhận được %s", res)
	}
	if def == nil || !def.IsCustom {
		t.Errorf("Mong đợi field custom, nhận được %+v", def)
	}
}

func TestResolveFieldKey_CustomPrefix(t *testing.T) {
	dc := buildTestCatalog()

	// Key có prefix custom không tra danh mục, kể cả khi phần sau trùng field chuẩn
	def, res := ResolveFieldKey(dc, "custom_revenue_cash", "custom_")
	if res != ResolutionCustomPrefix {
		t.Errorf("Mong đợi resolution custom_prefix, nhận được %s", res)
	}
	if def == nil || !def.IsCustom {
		t.Errorf("Key có prefix custom phải sinh field custom, nhận được %+v", def)
	}
	if def.ID != "custom_revenue_cash" {
		t.Errorf("Field custom phải giữ key gốc làm ID, nhận được %q", def.ID)
	}
	if def.Category != catalogmodels.CategoryOther {
		t.Errorf("Field custom phải thuộc nhóm other, nhận được %q", def.Category)
	}
}

func TestResolveFieldKey_Unresolved(t *testing.T) {
	dc := buildTestCatalog()

	def, res := ResolveFieldKey(dc, "ghi_chu_dac_biet", "custom_")
	if res != ResolutionUnresolved {
		t.Errorf("Mong đợi resolution unresolved, nhận được %s", res)
	}
	if def == nil || !def.IsCustom {
		t.Errorf("Key không khớp gì phải sinh field custom, nhận được %+v", def)
	}
	if def.ID != "ghi_chu_dac_biet" {
		t.Errorf("Field custom sinh ra phải giữ key gốc viết thường, nhận được %q", def.ID)
	}
}

func TestResolveFieldKey_NilCatalog(t *testing.T) {
	// Bộ phận chưa có field nào trong danh mục: mọi key thành field custom
	def, res := ResolveFieldKey(nil, "so_khach", "custom_")
	if res != ResolutionUnresolved {
		t.Errorf("Mong đợi resolution unresolved khi không có catalog, nhận được %s", res)
	}
	if def == nil || !def.IsCustom {
		t.Errorf("Mong đợi field custom khi không có catalog, nhận được %+v", def)
	}
}

func TestResolveFieldKey_TrimsWhitespace(t *testing.T) {
	dc := buildTestCatalog()

	def, res := ResolveFieldKey(dc, "  revenue_cash  ", "custom_")
	if res != ResolutionCatalogID || def == nil || def.ID != "revenue_cash" {
		t.Errorf("Key có khoảng trắng thừa phải vẫn trùng mã field chuẩn, nhận được %s / %+v", res, def)
	}
}
