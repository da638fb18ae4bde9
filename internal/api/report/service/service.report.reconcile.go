package reportsvc

import (
	"strings"

	reportmodels "store_reports/internal/api/report/models"
	submissionmodels "store_reports/internal/api/submission/models"
)

// ReconcileSubmission khử trùng lặp nguồn trong phạm vi một báo cáo: khi một
// field chuẩn có cả giá trị từ bảng cố định lẫn từ payload, giá trị bảng cố
// định thắng (nguồn có schema, đã được kiểm tra); giá trị payload bị đánh dấu
// supplementary — không vào tổng nhưng vẫn giữ cho drill-down. Đây là chốt
// chặn lỗi đếm đôi khi cùng một chỉ số xuất hiện ở hai nguồn.
// Field chỉ có một nguồn (field custom, bảng động) đi qua nguyên vẹn.
func ReconcileSubmission(values []reportmodels.NormalizedFieldValue) []reportmodels.NormalizedFieldValue {
	fixedFields := make(map[string]bool)
	for _, v := range values {
		if v.SourceKind == reportmodels.SourceFixedTable {
			fixedFields[strings.ToLower(v.FieldID)] = true
		}
	}
	if len(fixedFields) == 0 {
		return values
	}

	for i := range values {
		if values[i].SourceKind == reportmodels.SourceFormPayload && fixedFields[strings.ToLower(values[i].FieldID)] {
			values[i].Supplementary = true
		}
	}
	return values
}

// IncludeSubmission quyết định một báo cáo có được tính vào thống kê của bộ
// phận hay không. DRAFT luôn bị loại ở mọi chỗ trong pipeline. Với quy tắc
// AUTO, mọi báo cáo SUBMITTED đều được tính; với quy tắc vai trò cụ thể, chỉ
// báo cáo của người mang vai trò đó được tính — tránh đếm đôi khi cả nhân
// viên lẫn trưởng nhóm cùng nộp số liệu của một bộ phận.
func IncludeSubmission(submission submissionmodels.Submission, rule string) bool {
	if submission.Status != submissionmodels.StatusSubmitted {
		return false
	}
	if rule == "" || rule == AttributionRuleAuto {
		return true
	}
	return submission.Roles.Has(rule)
}

// DedupeLatest giữ lại bản mới nhất cho mỗi (nhân sự, bộ phận, ngày, trạng thái)
// khi dữ liệu có nhiều hơn một bản ghi cho cùng khóa. Đường ghi đảm bảo tối đa
// một bản mỗi khóa nhưng engine không được giả định điều đó với dữ liệu cũ.
// "Mới nhất" so theo createdAt, hòa thì so theo _id.
func DedupeLatest(submissions []submissionmodels.Submission) []submissionmodels.Submission {
	type key struct {
		user   string
		dept   string
		date   string
		status string
	}

	latest := make(map[key]submissionmodels.Submission)
	order := make([]key, 0, len(submissions))

	for _, submission := range submissions {
		k := key{
			user:   submission.UserID.Hex(),
			dept:   submission.DepartmentID.Hex(),
			date:   submission.ReportDate,
			status: submission.Status,
		}
		existing, seen := latest[k]
		if !seen {
			latest[k] = submission
			order = append(order, k)
			continue
		}
		if submission.CreatedAt > existing.CreatedAt ||
			(submission.CreatedAt == existing.CreatedAt && submission.ID.Hex() > existing.ID.Hex()) {
			latest[k] = submission
		}
	}

	result := make([]submissionmodels.Submission, 0, len(latest))
	for _, k := range order {
		result = append(result, latest[k])
	}
	return result
}
