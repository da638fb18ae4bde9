package reportsvc

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	catalogmodels "store_reports/internal/api/catalog/models"
	catalogsvc "store_reports/internal/api/catalog/service"
	orgmodels "store_reports/internal/api/org/models"
	orgsvc "store_reports/internal/api/org/service"
	reportmodels "store_reports/internal/api/report/models"
	submissionmodels "store_reports/internal/api/submission/models"
	submissionsvc "store_reports/internal/api/submission/service"
	"store_reports/internal/common"
	"store_reports/internal/global"
	"store_reports/internal/logger"
)

// AttributionRuleAuto là quy tắc gán mặc định khi không có cấu hình
const AttributionRuleAuto = orgsvc.AttributionRuleAuto

// Các collaborator của engine tổng hợp. Engine chỉ nhận interface để test
// cung cấp được bản in-memory thay cho tầng Mongo.

// SubmissionSource cung cấp báo cáo trong khoảng ngày (cả DRAFT lẫn SUBMITTED)
type SubmissionSource interface {
	FindForAggregation(ctx context.Context, storeID primitive.ObjectID, departmentID *primitive.ObjectID, fromDate, toDate string) ([]submissionmodels.Submission, error)
}

// StoreSource tra cứu cửa hàng đang hoạt động
type StoreSource interface {
	FindActiveByID(ctx context.Context, id primitive.ObjectID) (orgmodels.Store, error)
}

// DepartmentSource tra cứu bộ phận đang hoạt động
type DepartmentSource interface {
	FindActiveByStore(ctx context.Context, storeID primitive.ObjectID) ([]orgmodels.Department, error)
	FindActiveByID(ctx context.Context, id primitive.ObjectID) (orgmodels.Department, error)
}

// UserSource cung cấp nhân sự đang hoạt động của một bộ phận
type UserSource interface {
	FindActiveByDepartment(ctx context.Context, departmentID primitive.ObjectID) ([]orgmodels.User, error)
}

// AttributionSource cung cấp quy tắc gán báo cáo theo bộ phận
type AttributionSource interface {
	GetAttributionRule(ctx context.Context, storeID primitive.ObjectID, departmentCode string) (rule string, usedFallback bool, err error)
}

// CatalogSource cung cấp snapshot danh mục field
type CatalogSource interface {
	Snapshot(ctx context.Context) (*catalogmodels.Catalog, error)
}

// ReportSources gom các collaborator của engine
type ReportSources struct {
	Submissions SubmissionSource
	Stores      StoreSource
	Departments DepartmentSource
	Users       UserSource
	Attribution AttributionSource
	Catalog     CatalogSource
}

// ReportService là engine tổng hợp báo cáo theo cửa hàng và khoảng ngày
type ReportService struct {
	sources ReportSources

	maxRangeDays int
	customPrefix string
	collator     *collate.Collator
}

// NewReportServiceWithSources tạo engine với các collaborator được tiêm vào
func NewReportServiceWithSources(sources ReportSources, maxRangeDays int, customPrefix string, collationLocale string) *ReportService {
	if maxRangeDays <= 0 {
		maxRangeDays = 366
	}
	return &ReportService{
		sources:      sources,
		maxRangeDays: maxRangeDays,
		customPrefix: customPrefix,
		collator:     collate.New(language.Make(collationLocale)),
	}
}

// NewReportService tạo engine nối với các service Mongo thật,
// tham số engine lấy từ cấu hình server
func NewReportService() (*ReportService, error) {
	storeSvc, err := orgsvc.NewStoreService()
	if err != nil {
		return nil, err
	}
	departmentSvc, err := orgsvc.NewDepartmentService()
	if err != nil {
		return nil, err
	}
	userSvc, err := orgsvc.NewUserService()
	if err != nil {
		return nil, err
	}
	configSvc, err := orgsvc.NewConfigService()
	if err != nil {
		return nil, err
	}
	submissionSvc, err := submissionsvc.NewSubmissionService()
	if err != nil {
		return nil, err
	}
	catalogSvc, err := catalogsvc.NewCatalogService()
	if err != nil {
		return nil, err
	}

	cfg := global.MongoDB_ServerConfig
	return NewReportServiceWithSources(ReportSources{
		Submissions: submissionSvc,
		Stores:      storeSvc,
		Departments: departmentSvc,
		Users:       userSvc,
		Attribution: configSvc,
		Catalog:     catalogSvc,
	}, cfg.ReportMaxRangeDays, cfg.CustomFieldPrefix, cfg.ReportCollationLocale), nil
}

// AggregateQuery là yêu cầu tổng hợp đã qua kiểm tra đầu vào của handler
type AggregateQuery struct {
	StoreID       primitive.ObjectID
	DepartmentID  *primitive.ObjectID // nil = cả cửa hàng
	FromDate      string              // YYYY-MM-DD, bao gồm
	ToDate        string              // YYYY-MM-DD, bao gồm
	IncludeValues bool                // Kèm giá trị drill-down trong kết quả
}

// Aggregate tổng hợp báo cáo của một cửa hàng trong khoảng ngày.
// Chỉ lỗi cấp request (khoảng ngày sai, cửa hàng không tồn tại, lỗi truy vấn)
// mới làm hỏng lời gọi; bất thường theo từng báo cáo được cô lập và đếm
// trong metadata của kết quả. Không có side effect nên request bị hủy giữa
// chừng chỉ cần bỏ, không cần bù trừ gì.
func (s *ReportService) Aggregate(ctx context.Context, q AggregateQuery) (*reportmodels.StoreSummary, error) {
	if err := s.validateRange(q.FromDate, q.ToDate); err != nil {
		return nil, err
	}

	store, err := s.sources.Stores.FindActiveByID(ctx, q.StoreID)
	if err != nil {
		return nil, err
	}

	var departments []orgmodels.Department
	if q.DepartmentID != nil {
		department, err := s.sources.Departments.FindActiveByID(ctx, *q.DepartmentID)
		if err != nil {
			return nil, err
		}
		if department.StoreID != q.StoreID {
			return nil, common.ErrDepartmentNotFound
		}
		departments = []orgmodels.Department{department}
	} else {
		departments, err = s.sources.Departments.FindActiveByStore(ctx, q.StoreID)
		if err != nil {
			return nil, err
		}
	}

	snapshot, err := s.sources.Catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	// Fan-out một goroutine cho mỗi bộ phận, fan-in tuần tự.
	// Mỗi goroutine ghi vào slot riêng nên không cần khóa; lỗi đầu tiên thắng.
	type departmentResult struct {
		summary reportmodels.DepartmentSummary
		meta    reportmodels.AggregationMeta
		err     error
	}
	results := make([]departmentResult, len(departments))

	var wg sync.WaitGroup
	for i := range departments {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			summary, meta, err := s.aggregateDepartment(ctx, q, departments[i], snapshot)
			results[i] = departmentResult{summary: summary, meta: meta, err: err}
		}(i)
	}
	wg.Wait()

	summary := &reportmodels.StoreSummary{
		StoreID:     store.ID.Hex(),
		StoreName:   store.Name,
		FromDate:    q.FromDate,
		ToDate:      q.ToDate,
		Departments: make([]reportmodels.DepartmentSummary, 0, len(results)),
		StoreFields: []reportmodels.FieldSummary{},
	}
	for _, result := range results {
		if result.err != nil {
			return nil, result.err
		}
		summary.Departments = append(summary.Departments, result.summary)
		summary.Meta.Add(result.meta)
	}

	sort.SliceStable(summary.Departments, func(i, j int) bool {
		return summary.Departments[i].DepartmentCode < summary.Departments[j].DepartmentCode
	})

	summary.StoreFields = s.rollupStoreFields(summary.Departments, q.IncludeValues)

	return summary, nil
}

// validateRange kiểm tra khoảng ngày: đúng định dạng, đầu không sau cuối,
// độ dài không vượt giới hạn cấu hình
func (s *ReportService) validateRange(fromDate, toDate string) error {
	from, err := time.Parse(submissionmodels.ReportDateLayout, fromDate)
	if err != nil {
		return common.ErrInvalidRange
	}
	to, err := time.Parse(submissionmodels.ReportDateLayout, toDate)
	if err != nil {
		return common.ErrInvalidRange
	}
	if to.Before(from) {
		return common.ErrInvalidRange
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > s.maxRangeDays {
		return common.ErrRangeTooWide
	}
	return nil
}

// aggregateDepartment chạy toàn bộ pipeline cho một bộ phận: lấy báo cáo,
// lọc theo quy tắc gán, khử trùng lặp bản ghi, chuẩn hóa, khử trùng lặp
// nguồn, gộp bucket rồi tính field calculated và sắp thứ tự.
func (s *ReportService) aggregateDepartment(ctx context.Context, q AggregateQuery, department orgmodels.Department, snapshot *catalogmodels.Catalog) (reportmodels.DepartmentSummary, reportmodels.AggregationMeta, error) {
	meta := reportmodels.AggregationMeta{}

	rule, usedFallback, err := s.sources.Attribution.GetAttributionRule(ctx, q.StoreID, department.Code)
	if err != nil {
		// Cấu hình lỗi không được làm hỏng request: rơi về AUTO và đếm
		rule = AttributionRuleAuto
		usedFallback = true
		logger.WithModule("report").
			WithField("departmentCode", department.Code).
			WithError(err).
			Warn("Không đọc được cấu hình gán báo cáo, dùng quy tắc AUTO")
	}
	if usedFallback {
		meta.ConfigFallbacks++
	}

	departmentID := department.ID
	submissions, err := s.sources.Submissions.FindForAggregation(ctx, q.StoreID, &departmentID, q.FromDate, q.ToDate)
	if err != nil {
		return reportmodels.DepartmentSummary{}, meta, err
	}

	submissions = DedupeLatest(submissions)

	included := submissions[:0:0]
	for _, submission := range submissions {
		if IncludeSubmission(submission, rule) {
			included = append(included, submission)
		}
	}

	users, err := s.sources.Users.FindActiveByDepartment(ctx, departmentID)
	if err != nil {
		return reportmodels.DepartmentSummary{}, meta, err
	}
	userNames := make(map[primitive.ObjectID]string, len(users))
	for _, user := range users {
		userNames[user.ID] = user.Name
	}

	dc := snapshot.Department(department.Code)
	buckets := newBucketSet(userNames, q.IncludeValues)
	submittedUsers := make(map[primitive.ObjectID]bool)

	for _, submission := range included {
		submittedUsers[submission.UserID] = true

		values, ambiguous, err := NormalizeSubmission(submission, dc, s.customPrefix)
		meta.AmbiguousFields += ambiguous
		if err != nil {
			meta.SkippedSubmissions++
			logger.WithModule("report").
				WithField("submissionId", submission.ID.Hex()).
				WithError(err).
				Warn("Payload báo cáo hỏng, bỏ qua báo cáo này")
			continue
		}

		buckets.addAll(ReconcileSubmission(values))
	}

	fields := buckets.finalize()
	fields = append(fields, s.calculatedFields(dc, fields)...)
	s.sortFields(fields)

	userCount := len(users)
	submittedCount := len(submittedUsers)
	completionRate := 0.0
	if userCount > 0 {
		completionRate = float64(submittedCount) / float64(userCount)
	}

	return reportmodels.DepartmentSummary{
		DepartmentID:    department.ID.Hex(),
		DepartmentCode:  department.Code,
		DepartmentName:  department.Name,
		AttributionRule: rule,
		UserCount:       userCount,
		SubmittedCount:  submittedCount,
		CompletionRate:  completionRate,
		Fields:          fields,
	}, meta, nil
}

// calculatedFields tính các field calculated của bộ phận trên kết quả đã gộp.
// Công thức lỗi (cú pháp sai, tham chiếu field không có) chỉ loại field đó,
// không làm hỏng thống kê của bộ phận.
func (s *ReportService) calculatedFields(dc *catalogmodels.DepartmentCatalog, fields []reportmodels.FieldSummary) []reportmodels.FieldSummary {
	if dc == nil {
		return nil
	}

	env := newSummaryEnv(fields)
	var calculated []reportmodels.FieldSummary
	for _, def := range dc.Fields {
		if def.ValueType != catalogmodels.ValueTypeCalculated || def.Formula == "" {
			continue
		}
		value, err := catalogsvc.EvalFormula(def.Formula, env)
		if err != nil {
			logger.WithModule("report").
				WithField("fieldId", def.ID).
				WithError(err).
				Warn("Công thức field calculated lỗi, bỏ qua field này")
			continue
		}
		calculated = append(calculated, reportmodels.FieldSummary{
			FieldID:    def.ID,
			Label:      def.Label,
			Category:   def.Category,
			ValueType:  catalogmodels.ValueTypeCalculated,
			SourceType: reportmodels.SourceCalculated,
			Total:      value,
		})
	}
	return calculated
}

// sortFields sắp danh sách field theo thứ tự xác định: field danh mục trước
// field custom, tổng lớn trước, hòa thì so nhãn theo locale rồi so mã field
func (s *ReportService) sortFields(fields []reportmodels.FieldSummary) {
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].IsCustom != fields[j].IsCustom {
			return !fields[i].IsCustom
		}
		if fields[i].Total != fields[j].Total {
			return fields[i].Total > fields[j].Total
		}
		if cmp := s.collator.CompareString(fields[i].Label, fields[j].Label); cmp != 0 {
			return cmp < 0
		}
		return fields[i].FieldID < fields[j].FieldID
	})
}

// rollupStoreFields gộp field của mọi bộ phận thành chỉ mục field toàn cửa
// hàng, khóa theo mã field chuẩn. average tính lại từ tổng và count gộp,
// không cộng average của từng bộ phận.
func (s *ReportService) rollupStoreFields(departments []reportmodels.DepartmentSummary, includeValues bool) []reportmodels.FieldSummary {
	merged := make(map[string]*reportmodels.FieldSummary)
	var order []string

	for _, department := range departments {
		for _, field := range department.Fields {
			key := strings.ToLower(field.FieldID)
			existing, seen := merged[key]
			if !seen {
				clone := field
				clone.Average = 0
				if field.RowTotals != nil {
					clone.RowTotals = make(map[string]float64, len(field.RowTotals))
					for column, total := range field.RowTotals {
						clone.RowTotals[column] = total
					}
				}
				if !includeValues {
					clone.Values = nil
				}
				merged[key] = &clone
				order = append(order, key)
				continue
			}

			existing.Total += field.Total
			existing.Count += field.Count
			if existing.SourceType != field.SourceType {
				existing.SourceType = reportmodels.SourceMixed
			}
			for column, total := range field.RowTotals {
				if existing.RowTotals == nil {
					existing.RowTotals = make(map[string]float64)
				}
				existing.RowTotals[column] += total
			}
			if includeValues {
				existing.Values = append(existing.Values, field.Values...)
			}
		}
	}

	fields := make([]reportmodels.FieldSummary, 0, len(order))
	for _, key := range order {
		field := merged[key]
		if field.Count > 0 {
			field.Average = field.Total / float64(field.Count)
		}
		fields = append(fields, *field)
	}
	s.sortFields(fields)
	return fields
}
