// Package reportsvc chứa engine tổng hợp báo cáo: chuẩn hóa, trải bảng động,
// khử trùng lặp, lọc theo quy tắc gán vai trò và gộp thống kê.
package reportsvc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	catalogmodels "store_reports/internal/api/catalog/models"
	catalogsvc "store_reports/internal/api/catalog/service"
	reportmodels "store_reports/internal/api/report/models"
	submissionmodels "store_reports/internal/api/submission/models"
)

// NormalizeSubmission chuyển một báo cáo thành danh sách giá trị field đã chuẩn hóa.
// Trả về số key mơ hồ đã bị loại và lỗi nếu payload không phải cấu trúc map:
// khi đó báo cáo đóng góp 0 giá trị và caller đếm vào skippedSubmissions,
// các báo cáo còn lại trong batch vẫn được xử lý bình thường.
func NormalizeSubmission(submission submissionmodels.Submission, dc *catalogmodels.DepartmentCatalog, customPrefix string) ([]reportmodels.NormalizedFieldValue, int, error) {
	payloadMap, ok := asPayloadMap(submission.Payload)
	if !ok {
		return nil, 0, fmt.Errorf("payload của báo cáo %s không phải cấu trúc map", submission.ID.Hex())
	}

	var values []reportmodels.NormalizedFieldValue
	values = append(values, normalizeFixedRecord(submission, dc)...)

	payloadValues, ambiguous := normalizePayload(submission, payloadMap, dc, customPrefix)
	values = append(values, payloadValues...)

	return values, ambiguous, nil
}

// normalizeFixedRecord ánh xạ từng thuộc tính có giá trị của bảng cố định về
// field chuẩn qua fixedAttr trong danh mục. Thuộc tính không có trong danh mục
// vẫn được giữ dưới dạng field custom thay vì bị vứt bỏ.
// Đơn vị tiền lấy theo tag unit của field trong danh mục: unit minor quy về
// đơn vị lớn tại đây để mọi phép tính phía sau chỉ làm việc với một đơn vị.
// Thuộc tính tiền không có trong danh mục mặc định coi là đơn vị nhỏ vì bảng
// cố định lưu tiền theo xu.
func normalizeFixedRecord(submission submissionmodels.Submission, dc *catalogmodels.DepartmentCatalog) []reportmodels.NormalizedFieldValue {
	fixed := submission.Fixed
	if fixed == nil {
		return nil
	}

	var values []reportmodels.NormalizedFieldValue

	addNumeric := func(attr string, raw float64, minorDefault bool) {
		def := fixedFieldDef(dc, attr)
		minorUnit := minorDefault
		if def.Unit != "" {
			minorUnit = def.Unit == catalogmodels.UnitMinor
		}
		numeric := raw
		if minorUnit {
			numeric = raw / 100
		}
		values = append(values, reportmodels.NormalizedFieldValue{
			SubmissionID: submission.ID,
			UserID:       submission.UserID,
			ReportDate:   submission.ReportDate,
			FieldID:      def.ID,
			Def:          def,
			SourceKind:   reportmodels.SourceFixedTable,
			Numeric:      numeric,
			IsNumeric:    true,
			RowIndex:     -1,
		})
	}

	if fixed.RevenueCash != nil {
		addNumeric("revenueCash", *fixed.RevenueCash, true)
	}
	if fixed.RevenueCard != nil {
		addNumeric("revenueCard", *fixed.RevenueCard, true)
	}
	if fixed.CustomerCount != nil {
		addNumeric("customerCount", float64(*fixed.CustomerCount), false)
	}
	if fixed.StaffCount != nil {
		addNumeric("staffCount", float64(*fixed.StaffCount), false)
	}
	if fixed.Note != "" {
		def := fixedFieldDef(dc, "note")
		values = append(values, reportmodels.NormalizedFieldValue{
			SubmissionID: submission.ID,
			UserID:       submission.UserID,
			ReportDate:   submission.ReportDate,
			FieldID:      def.ID,
			Def:          def,
			SourceKind:   reportmodels.SourceFixedTable,
			Text:         fixed.Note,
			RowIndex:     -1,
		})
	}

	return values
}

// fixedFieldDef tra field chuẩn tương ứng với một thuộc tính bảng cố định,
// synthesize field custom khi danh mục không khai báo fixedAttr này
func fixedFieldDef(dc *catalogmodels.DepartmentCatalog, attr string) *catalogmodels.FieldDefinition {
	if dc != nil {
		if def, ok := dc.FieldByFixedAttr(attr); ok {
			return def
		}
	}
	return &catalogmodels.FieldDefinition{
		ID:       strings.ToLower(attr),
		Label:    attr,
		Category: catalogmodels.CategoryOther,
		IsCustom: true,
	}
}

// normalizePayload chạy từng key của payload qua bộ phân giải rồi chuẩn hóa giá trị.
// Key mơ hồ bị loại và đếm; giá trị nil bị bỏ qua. Duyệt key theo thứ tự sắp
// xếp để kết quả ổn định giữa hai lần chạy.
func normalizePayload(submission submissionmodels.Submission, payload map[string]interface{}, dc *catalogmodels.DepartmentCatalog, customPrefix string) ([]reportmodels.NormalizedFieldValue, int) {
	keys := sortedKeys(payload)

	var values []reportmodels.NormalizedFieldValue
	ambiguous := 0

	for _, key := range keys {
		raw := payload[key]
		if strings.TrimSpace(key) == "" || raw == nil {
			continue
		}

		def, resolution := catalogsvc.ResolveFieldKey(dc, key, customPrefix)
		if resolution == catalogsvc.ResolutionAmbiguous {
			ambiguous++
			continue
		}

		if def.ValueType == catalogmodels.ValueTypeDynamicRows {
			values = append(values, flattenDynamicRows(submission, def, raw)...)
			continue
		}
		if def.IsCustom {
			// Field custom không có valueType: giá trị dạng danh sách row
			// được đối xử như bảng động
			if _, isRows := asRowList(raw); isRows {
				values = append(values, flattenDynamicRows(submission, def, raw)...)
				continue
			}
		}

		value := reportmodels.NormalizedFieldValue{
			SubmissionID: submission.ID,
			UserID:       submission.UserID,
			ReportDate:   submission.ReportDate,
			FieldID:      def.ID,
			Def:          def,
			SourceKind:   reportmodels.SourceFormPayload,
			RowIndex:     -1,
		}
		if numeric, ok := coerceNumeric(raw); ok {
			value.Numeric = numeric
			value.IsNumeric = true
		} else {
			value.Text = fmt.Sprintf("%v", raw)
		}
		values = append(values, value)
	}

	return values, ambiguous
}

// asPayloadMap đưa payload về map[string]interface{}.
// Chấp nhận nil (form không có phần tự do), map thường và các dạng map/document
// mà driver BSON decode ra. Mọi thứ khác là payload hỏng.
func asPayloadMap(payload interface{}) (map[string]interface{}, bool) {
	switch v := payload.(type) {
	case nil:
		return nil, true
	case map[string]interface{}:
		return v, true
	case bson.M:
		return map[string]interface{}(v), true
	case bson.D:
		m := make(map[string]interface{}, len(v))
		for _, elem := range v {
			m[elem.Key] = elem.Value
		}
		return m, true
	}
	return nil, false
}

// sortedKeys trả về các key của map theo thứ tự sắp xếp, cho kết quả ổn định
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// stringify đưa một giá trị bất kỳ về chuỗi cho drill-down
func stringify(raw interface{}) string {
	return fmt.Sprintf("%v", raw)
}

// coerceNumeric đưa một giá trị payload về float64 nếu có thể.
// Chuỗi chứa số cũng được chấp nhận vì form cũ hay gửi số dưới dạng chuỗi;
// boolean tính là 1/0 để field dạng có/không cộng dồn được.
func coerceNumeric(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}
