package reportsvc

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	catalogmodels "store_reports/internal/api/catalog/models"
	reportmodels "store_reports/internal/api/report/models"
)

// fieldBucket gom các đóng góp cho một field chuẩn của một bộ phận
type fieldBucket struct {
	def            *catalogmodels.FieldDefinition
	total          float64
	contributing   map[string]bool // ID báo cáo đóng góp (distinct)
	sourceKinds    map[string]bool
	rowTotals      map[string]float64
	numericColumns map[string]bool
	rows           []map[string]interface{}
	seenRows       map[string]bool
	values         []reportmodels.DrillDownValue
}

// bucketSet gom bucket theo field, giữ thứ tự gặp lần đầu để kết quả ổn định
// trước khi sắp thứ tự cuối
type bucketSet struct {
	byID          map[string]*fieldBucket
	order         []string
	userNames     map[primitive.ObjectID]string
	includeValues bool
}

func newBucketSet(userNames map[primitive.ObjectID]string, includeValues bool) *bucketSet {
	return &bucketSet{
		byID:          make(map[string]*fieldBucket),
		userNames:     userNames,
		includeValues: includeValues,
	}
}

func (b *bucketSet) addAll(values []reportmodels.NormalizedFieldValue) {
	for _, value := range values {
		b.add(value)
	}
}

func (b *bucketSet) add(value reportmodels.NormalizedFieldValue) {
	key := strings.ToLower(value.FieldID)
	bucket, exists := b.byID[key]
	if !exists {
		bucket = &fieldBucket{
			def:            value.Def,
			contributing:   make(map[string]bool),
			sourceKinds:    make(map[string]bool),
			rowTotals:      make(map[string]float64),
			numericColumns: make(map[string]bool),
			seenRows:       make(map[string]bool),
		}
		b.byID[key] = bucket
		b.order = append(b.order, key)
	}

	// Giá trị payload bị nguồn bảng cố định đè: chỉ vào drill-down
	if value.Supplementary {
		if b.includeValues {
			bucket.values = append(bucket.values, b.drillDown(value, true))
		}
		return
	}

	bucket.sourceKinds[value.SourceKind] = true
	bucket.contributing[value.SubmissionID.Hex()] = true

	if value.RowIndex >= 0 {
		// Đóng góp theo row của bảng động
		if value.IsNumeric {
			bucket.total += value.Numeric
			bucket.rowTotals[value.Column] += value.Numeric
			bucket.numericColumns[value.Column] = true
		}
		// Mỗi (báo cáo, row) chỉ sinh một entry drill-down dù row có nhiều cột số
		rowKey := value.SubmissionID.Hex() + "#" + strconv.Itoa(value.RowIndex)
		if !bucket.seenRows[rowKey] {
			bucket.seenRows[rowKey] = true
			bucket.rows = append(bucket.rows, value.Row)
			if b.includeValues {
				bucket.values = append(bucket.values, b.drillDown(value, false))
			}
		}
		return
	}

	// Giá trị vô hướng: chữ vẫn được đếm nhưng không vào tổng
	if value.IsNumeric {
		bucket.total += value.Numeric
	}
	if b.includeValues {
		bucket.values = append(bucket.values, b.drillDown(value, false))
	}
}

// drillDown dựng một entry drill-down từ giá trị đã chuẩn hóa
func (b *bucketSet) drillDown(value reportmodels.NormalizedFieldValue, supplementary bool) reportmodels.DrillDownValue {
	entry := reportmodels.DrillDownValue{
		UserID:        value.UserID.Hex(),
		UserName:      b.userNames[value.UserID],
		ReportDate:    value.ReportDate,
		Supplementary: supplementary,
	}
	switch {
	case value.Row != nil:
		rowIndex := value.RowIndex
		entry.RowIndex = &rowIndex
		entry.Value = value.Row
	case value.IsNumeric:
		entry.Value = value.Numeric
	default:
		entry.Value = value.Text
	}
	return entry
}

// finalize dựng FieldSummary từ các bucket, theo thứ tự gặp lần đầu
// (thứ tự cuối cùng do engine sắp sau khi thêm field calculated)
func (b *bucketSet) finalize() []reportmodels.FieldSummary {
	fields := make([]reportmodels.FieldSummary, 0, len(b.order))
	for _, key := range b.order {
		bucket := b.byID[key]

		summary := reportmodels.FieldSummary{
			FieldID:    bucket.def.ID,
			Label:      bucket.def.Label,
			Category:   bucket.def.Category,
			ValueType:  bucket.def.ValueType,
			Unit:       bucket.def.Unit,
			IsCustom:   bucket.def.IsCustom,
			SourceType: bucketSourceType(bucket.sourceKinds),
			Total:      bucket.total,
			Count:      len(bucket.contributing),
			Values:     bucket.values,
		}
		if summary.Count > 0 {
			summary.Average = summary.Total / float64(summary.Count)
		}
		if len(bucket.rowTotals) > 0 {
			summary.RowTotals = bucket.rowTotals
		}
		if len(bucket.rows) > 0 {
			summary.RowFields = inferRowFields(bucket.def, bucket.rows, bucket.numericColumns)
		}
		fields = append(fields, summary)
	}
	return fields
}

// bucketSourceType quy nguồn của một field: mixed khi field nhận giá trị từ
// cả bảng cố định lẫn payload qua nhiều báo cáo
func bucketSourceType(kinds map[string]bool) string {
	fixed := kinds[reportmodels.SourceFixedTable]
	form := kinds[reportmodels.SourceFormPayload]
	switch {
	case fixed && form:
		return reportmodels.SourceMixed
	case fixed:
		return reportmodels.SourceFixedTable
	default:
		return reportmodels.SourceFormPayload
	}
}

// summaryEnv cho interpreter công thức đọc kết quả đã gộp của một bộ phận
type summaryEnv struct {
	byID map[string]reportmodels.FieldSummary
}

func newSummaryEnv(fields []reportmodels.FieldSummary) *summaryEnv {
	env := &summaryEnv{byID: make(map[string]reportmodels.FieldSummary, len(fields))}
	for _, field := range fields {
		env.byID[strings.ToLower(field.FieldID)] = field
	}
	return env
}

func (e *summaryEnv) FieldValue(fieldID string) (float64, bool) {
	field, ok := e.byID[strings.ToLower(fieldID)]
	if !ok {
		return 0, false
	}
	return field.Total, true
}

func (e *summaryEnv) RowSum(fieldID string, column string) float64 {
	field, ok := e.byID[strings.ToLower(fieldID)]
	if !ok || field.RowTotals == nil {
		return 0
	}
	return field.RowTotals[column]
}

func (e *summaryEnv) SectionSum(category string) float64 {
	sum := 0.0
	for _, field := range e.byID {
		if strings.EqualFold(field.Category, category) {
			sum += field.Total
		}
	}
	return sum
}
