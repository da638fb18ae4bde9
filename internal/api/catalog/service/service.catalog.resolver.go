package catalogsvc

import (
	"strings"

	catalogmodels "store_reports/internal/api/catalog/models"
)

// Resolution cho biết một key trong payload được phân giải về field chuẩn bằng cách nào
type Resolution int

const (
	ResolutionCatalogID    Resolution = iota // Trùng mã field chuẩn
	ResolutionSynonym                        // Trùng một synonym đã khai báo
	ResolutionSubstring                      // Key có quan hệ chuỗi con duy nhất với một synonym
	ResolutionCustomPrefix                   // Key mang prefix field tự thêm, không tra danh mục
	ResolutionUnresolved                     // Không khớp gì, sinh field custom từ key gốc
	ResolutionAmbiguous                      // Khớp chuỗi con với nhiều field, không dùng được
)

// String trả về tên resolution, dùng khi log và drill-down
func (r Resolution) String() string {
	switch r {
	case ResolutionCatalogID:
		return "catalog_id"
	case ResolutionSynonym:
		return "synonym"
	case ResolutionSubstring:
		return "substring"
	case ResolutionCustomPrefix:
		return "custom_prefix"
	case ResolutionUnresolved:
		return "unresolved"
	case ResolutionAmbiguous:
		return "ambiguous"
	}
	return "unknown"
}

// ResolveFieldKey phân giải một key trong payload về field chuẩn của bộ phận.
// Thứ tự thử: prefix custom → trùng mã → trùng synonym → chuỗi con duy nhất
// trên synonyms.
// Key khớp chuỗi con với nhiều hơn một field là mơ hồ: trả về nil cùng
// ResolutionAmbiguous để caller bỏ qua và đếm vào ambiguousFields.
// Key không khớp gì không bị vứt bỏ: sinh một field custom từ key gốc
// để giá trị vẫn xuất hiện trong báo cáo dưới nhóm "other".
func ResolveFieldKey(dc *catalogmodels.DepartmentCatalog, rawKey string, customPrefix string) (*catalogmodels.FieldDefinition, Resolution) {
	key := strings.TrimSpace(rawKey)
	lowered := strings.ToLower(key)

	// Field tự thêm được đánh dấu rõ ràng bằng prefix, không tra danh mục
	if customPrefix != "" && strings.HasPrefix(lowered, strings.ToLower(customPrefix)) {
		return synthesizeCustomField(key), ResolutionCustomPrefix
	}

	if dc != nil {
		if def, ok := dc.FieldByID(lowered); ok {
			return def, ResolutionCatalogID
		}
		if def, ok := dc.FieldBySynonym(lowered); ok {
			return def, ResolutionSynonym
		}

		// Khớp chuỗi con hai chiều trên synonyms (key chứa synonym hoặc
		// synonym chứa key); chỉ chấp nhận khi đúng một field khớp.
		// Mã field không tham gia bước này: key chỉ dính dáng đến mã
		// (ví dụ "revenue" với revenue_cash/revenue_card) không phải là
		// tên cũ đã khai báo, để nó rơi xuống nhánh sinh field custom
		// thay vì bị loại vì mơ hồ
		var matched *catalogmodels.FieldDefinition
		count := 0
		for _, def := range dc.Fields {
			if substringMatches(def, lowered) {
				matched = def
				count++
			}
		}
		if count == 1 {
			return matched, ResolutionSubstring
		}
		if count > 1 {
			return nil, ResolutionAmbiguous
		}
	}

	return synthesizeCustomField(key), ResolutionUnresolved
}

// substringMatches kiểm tra key có quan hệ chuỗi con hai chiều với một
// synonym của field hay không
func substringMatches(def *catalogmodels.FieldDefinition, loweredKey string) bool {
	for _, syn := range def.Synonyms {
		name := strings.ToLower(syn)
		if name == "" {
			continue
		}
		if strings.Contains(loweredKey, name) || strings.Contains(name, loweredKey) {
			return true
		}
	}
	return false
}

// synthesizeCustomField tạo định nghĩa field custom từ key gốc trong payload.
// ID là key viết thường để hai báo cáo dùng cùng key gộp về một field;
// ValueType để trống, kiểu dữ liệu suy ra từ giá trị lúc chuẩn hóa.
func synthesizeCustomField(key string) *catalogmodels.FieldDefinition {
	return &catalogmodels.FieldDefinition{
		ID:       strings.ToLower(key),
		Label:    key,
		Category: catalogmodels.CategoryOther,
		IsCustom: true,
	}
}
