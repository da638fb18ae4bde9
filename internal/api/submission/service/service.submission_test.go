package submissionsvc

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	submissionmodels "store_reports/internal/api/submission/models"
)

func TestBuildFilter_OnlyStore(t *testing.T) {
	storeID := primitive.NewObjectID()

	filter := buildFilter(SubmissionFilter{StoreID: storeID})
	if len(filter) != 1 {
		t.Errorf("Filter chỉ có cửa hàng phải đúng 1 điều kiện, nhận được %d: %v", len(filter), filter)
	}
	if filter["storeId"] != storeID {
		t.Errorf("Filter phải chứa storeId %v, nhận được %v", storeID, filter["storeId"])
	}
}

func TestBuildFilter_FullConditions(t *testing.T) {
	storeID := primitive.NewObjectID()
	departmentID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	filter := buildFilter(SubmissionFilter{
		StoreID:      storeID,
		DepartmentID: &departmentID,
		UserID:       &userID,
		Status:       submissionmodels.StatusSubmitted,
		FromDate:     "2026-01-01",
		ToDate:       "2026-01-31",
	})

	if filter["departmentId"] != departmentID {
		t.Errorf("Filter phải chứa departmentId, nhận được %v", filter["departmentId"])
	}
	if filter["userId"] != userID {
		t.Errorf("Filter phải chứa userId, nhận được %v", filter["userId"])
	}
	if filter["status"] != submissionmodels.StatusSubmitted {
		t.Errorf("Filter phải chứa status SUBMITTED, nhận được %v", filter["status"])
	}

	dateRange, ok := filter["reportDate"].(bson.M)
	if !ok {
		t.Fatalf("Filter phải chứa khoảng ngày dạng bson.M, nhận được %T", filter["reportDate"])
	}
	if dateRange["$gte"] != "2026-01-01" || dateRange["$lte"] != "2026-01-31" {
		t.Errorf("Khoảng ngày phải bao gồm cả hai đầu mút, nhận được %v", dateRange)
	}
}

func TestBuildFilter_OpenEndedRange(t *testing.T) {
	storeID := primitive.NewObjectID()

	filter := buildFilter(SubmissionFilter{StoreID: storeID, FromDate: "2026-02-01"})
	dateRange, ok := filter["reportDate"].(bson.M)
	if !ok {
		t.Fatalf("Filter phải chứa khoảng ngày khi chỉ có fromDate, nhận được %T", filter["reportDate"])
	}
	if dateRange["$gte"] != "2026-02-01" {
		t.Errorf("Khoảng ngày mở phải giữ $gte, nhận được %v", dateRange)
	}
	if _, has := dateRange["$lte"]; has {
		t.Errorf("Khoảng ngày mở không được có $lte, nhận được %v", dateRange)
	}
}

func TestRoleSet_Has(t *testing.T) {
	roles := submissionmodels.RoleSet{"bep_truong", "thu_ngan"}

	if !roles.Has("bep_truong") {
		t.Error("RoleSet phải chứa vai trò bep_truong")
	}
	if roles.Has("quan_ly") {
		t.Error("RoleSet không được chứa vai trò quan_ly")
	}
	if (submissionmodels.RoleSet{}).Has("bep_truong") {
		t.Error("RoleSet rỗng không được chứa vai trò nào")
	}
}
