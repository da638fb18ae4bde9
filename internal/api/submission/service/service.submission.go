// Package submissionsvc chứa service ghi và truy vấn báo cáo hàng ngày của nhân sự.
package submissionsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "store_reports/internal/api/base/models"
	basesvc "store_reports/internal/api/base/service"
	submissionmodels "store_reports/internal/api/submission/models"
	"store_reports/internal/common"
	"store_reports/internal/global"
)

// SubmissionService là service quản lý báo cáo hàng ngày
type SubmissionService struct {
	*basesvc.BaseServiceMongoImpl[submissionmodels.Submission]
}

// NewSubmissionService tạo mới SubmissionService
func NewSubmissionService() (*SubmissionService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.ReportSubmissions)
	if !exist {
		return nil, fmt.Errorf("failed to get report_submissions collection: %v", common.ErrNotFound)
	}
	return &SubmissionService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[submissionmodels.Submission](coll),
	}, nil
}

// SubmitDaily ghi báo cáo hàng ngày của một nhân sự bằng một thao tác upsert
// nguyên tử theo khóa (userId, departmentId, reportDate, status): nộp lại trong
// ngày sẽ ghi đè nội dung cũ, không tạo bản ghi mới. Hai request nộp đồng thời
// vẫn chỉ để lại một document nhờ unique index trên khóa này.
func (s *SubmissionService) SubmitDaily(ctx context.Context, submission submissionmodels.Submission) (submissionmodels.Submission, error) {
	filter := bson.M{
		"userId":       submission.UserID,
		"departmentId": submission.DepartmentID,
		"reportDate":   submission.ReportDate,
		"status":       submission.Status,
	}

	// _id do MongoDB sinh khi insert, không đưa vào $set
	submission.ID = primitive.NilObjectID

	return s.Upsert(ctx, filter, submission)
}

// SubmissionFilter là điều kiện lọc khi truy vấn báo cáo
type SubmissionFilter struct {
	StoreID      primitive.ObjectID  // Bắt buộc
	DepartmentID *primitive.ObjectID // Tùy chọn, lọc theo một bộ phận
	UserID       *primitive.ObjectID // Tùy chọn, lọc theo một nhân sự
	Status       string              // Tùy chọn, DRAFT | SUBMITTED
	FromDate     string              // Tùy chọn, YYYY-MM-DD (bao gồm)
	ToDate       string              // Tùy chọn, YYYY-MM-DD (bao gồm)
}

// buildFilter dựng filter MongoDB từ điều kiện lọc.
// reportDate dạng YYYY-MM-DD nên so sánh chuỗi trùng với so sánh ngày.
func buildFilter(f SubmissionFilter) bson.M {
	filter := bson.M{"storeId": f.StoreID}
	if f.DepartmentID != nil {
		filter["departmentId"] = *f.DepartmentID
	}
	if f.UserID != nil {
		filter["userId"] = *f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	dateRange := bson.M{}
	if f.FromDate != "" {
		dateRange["$gte"] = f.FromDate
	}
	if f.ToDate != "" {
		dateRange["$lte"] = f.ToDate
	}
	if len(dateRange) > 0 {
		filter["reportDate"] = dateRange
	}
	return filter
}

// FindSubmissions truy vấn báo cáo theo điều kiện lọc, có phân trang.
// Sắp theo ngày báo cáo giảm dần rồi thời điểm nộp giảm dần.
func (s *SubmissionService) FindSubmissions(ctx context.Context, f SubmissionFilter, page, limit int64) (*basemodels.PaginateResult[submissionmodels.Submission], error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "reportDate", Value: -1},
		{Key: "createdAt", Value: -1},
	})
	return s.FindWithPagination(ctx, buildFilter(f), page, limit, opts)
}

// FindForAggregation trả về toàn bộ báo cáo (cả DRAFT lẫn SUBMITTED) của một
// cửa hàng trong khoảng ngày [from, to]. Việc loại DRAFT là trách nhiệm của
// engine tổng hợp, không phải của tầng truy vấn. Kết quả sắp theo thời điểm
// nộp tăng dần để bước khử trùng lặp chọn được bản mới nhất một cách ổn định.
func (s *SubmissionService) FindForAggregation(ctx context.Context, storeID primitive.ObjectID, departmentID *primitive.ObjectID, fromDate, toDate string) ([]submissionmodels.Submission, error) {
	f := SubmissionFilter{
		StoreID:      storeID,
		DepartmentID: departmentID,
		FromDate:     fromDate,
		ToDate:       toDate,
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})
	return s.Find(ctx, buildFilter(f), opts)
}
