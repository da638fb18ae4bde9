package orgsvc

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	orgmodels "store_reports/internal/api/org/models"
	"store_reports/internal/common"
)

// fakeConfigFinder trả mục cấu hình theo scope từ map dựng sẵn,
// scope không có trong map coi như không tìm thấy
func fakeConfigFinder(items map[string]interface{}) configFinder {
	return func(_ context.Context, filter bson.M) (orgmodels.ConfigItem, error) {
		scope, _ := filter["scope"].(string)
		value, ok := items[scope]
		if !ok {
			return orgmodels.ConfigItem{}, common.ErrNotFound
		}
		return orgmodels.ConfigItem{
			Key:   filter["key"].(string),
			Scope: scope,
			Value: value,
		}, nil
	}
}

func TestParseAttributionValue(t *testing.T) {
	if _, ok := parseAttributionValue(42); ok {
		t.Error("Giá trị không phải chuỗi phải bị coi là hỏng")
	}
	if _, ok := parseAttributionValue(nil); ok {
		t.Error("Giá trị nil phải bị coi là hỏng")
	}
	if _, ok := parseAttributionValue(""); ok {
		t.Error("Chuỗi rỗng phải bị coi là hỏng")
	}
	if _, ok := parseAttributionValue("   "); ok {
		t.Error("Chuỗi toàn khoảng trắng phải bị coi là hỏng")
	}

	rule, ok := parseAttributionValue("  bartender ")
	if !ok || rule != "bartender" {
		t.Errorf("Tên vai trò hợp lệ phải được cắt khoảng trắng và chấp nhận, nhận được %q / %v", rule, ok)
	}
	rule, ok = parseAttributionValue(AttributionRuleAuto)
	if !ok || rule != AttributionRuleAuto {
		t.Errorf("Giá trị AUTO phải được chấp nhận nguyên vẹn, nhận được %q / %v", rule, ok)
	}
}

func TestResolveAttributionRule_StoreOverridesGlobal(t *testing.T) {
	find := fakeConfigFinder(map[string]interface{}{
		orgmodels.ConfigScopeStore:  "bartender",
		orgmodels.ConfigScopeGlobal: "STAFF",
	})

	rule, usedFallback, err := resolveAttributionRule(context.Background(), find, primitive.NewObjectID(), "bar")
	if err != nil {
		t.Fatalf("Tra quy tắc gán lỗi không mong muốn: %v", err)
	}
	if rule != "bartender" {
		t.Errorf("Cấu hình theo cửa hàng phải ghi đè global, nhận được %q", rule)
	}
	if usedFallback {
		t.Error("Cấu hình cửa hàng hợp lệ không được tính là fallback")
	}
}

func TestResolveAttributionRule_GlobalWhenStoreMissing(t *testing.T) {
	find := fakeConfigFinder(map[string]interface{}{
		orgmodels.ConfigScopeGlobal: "STAFF",
	})

	rule, usedFallback, err := resolveAttributionRule(context.Background(), find, primitive.NewObjectID(), "bar")
	if err != nil {
		t.Fatalf("Tra quy tắc gán lỗi không mong muốn: %v", err)
	}
	if rule != "STAFF" {
		t.Errorf("Thiếu cấu hình cửa hàng phải rơi về global, nhận được %q", rule)
	}
	if usedFallback {
		t.Error("Thiếu cấu hình hoàn toàn là bình thường, không được tính là fallback")
	}
}

func TestResolveAttributionRule_AutoWhenNothingConfigured(t *testing.T) {
	find := fakeConfigFinder(nil)

	rule, usedFallback, err := resolveAttributionRule(context.Background(), find, primitive.NewObjectID(), "bar")
	if err != nil {
		t.Fatalf("Tra quy tắc gán lỗi không mong muốn: %v", err)
	}
	if rule != AttributionRuleAuto {
		t.Errorf("Không có cấu hình nào phải về AUTO, nhận được %q", rule)
	}
	if usedFallback {
		t.Error("Không có cấu hình nào thì không được tính là fallback")
	}
}

func TestResolveAttributionRule_CorruptStoreValueDegrades(t *testing.T) {
	// Giá trị cửa hàng hỏng (không phải chuỗi): rơi xuống global và báo fallback
	find := fakeConfigFinder(map[string]interface{}{
		orgmodels.ConfigScopeStore:  int64(7),
		orgmodels.ConfigScopeGlobal: "STAFF",
	})

	rule, usedFallback, err := resolveAttributionRule(context.Background(), find, primitive.NewObjectID(), "bar")
	if err != nil {
		t.Fatalf("Tra quy tắc gán lỗi không mong muốn: %v", err)
	}
	if rule != "STAFF" {
		t.Errorf("Giá trị cửa hàng hỏng phải rơi về global, nhận được %q", rule)
	}
	if !usedFallback {
		t.Error("Rơi mức vì giá trị hỏng phải được báo usedFallback")
	}
}

func TestResolveAttributionRule_CorruptBothDegradesToAuto(t *testing.T) {
	find := fakeConfigFinder(map[string]interface{}{
		orgmodels.ConfigScopeStore:  "",
		orgmodels.ConfigScopeGlobal: "   ",
	})

	rule, usedFallback, err := resolveAttributionRule(context.Background(), find, primitive.NewObjectID(), "bar")
	if err != nil {
		t.Fatalf("Giá trị hỏng phải suy biến về AUTO chứ không lỗi, nhận được: %v", err)
	}
	if rule != AttributionRuleAuto {
		t.Errorf("Cả hai mức hỏng phải về AUTO, nhận được %q", rule)
	}
	if !usedFallback {
		t.Error("Suy biến về AUTO vì giá trị hỏng phải được báo usedFallback")
	}
}

func TestResolveAttributionRule_LookupErrorPropagates(t *testing.T) {
	lookupErr := errors.New("mạng chập chờn")
	find := func(_ context.Context, _ bson.M) (orgmodels.ConfigItem, error) {
		return orgmodels.ConfigItem{}, lookupErr
	}

	_, _, err := resolveAttributionRule(context.Background(), find, primitive.NewObjectID(), "bar")
	if err != lookupErr {
		t.Errorf("Lỗi tra cứu khác not-found phải được trả nguyên vẹn, nhận được %v", err)
	}
}
