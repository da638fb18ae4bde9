package reportsvc

import (
	catalogmodels "store_reports/internal/api/catalog/models"
	reportmodels "store_reports/internal/api/report/models"
	submissionmodels "store_reports/internal/api/submission/models"
)

// flattenDynamicRows trải một giá trị dạng bảng động thành từng đóng góp theo
// (row, cột số), giữ lại row đầy đủ và chỉ số row cho drill-down. Cột không
// phải số chỉ xuất hiện trong drill-down, không vào tổng. Row không có cột số
// nào vẫn sinh một entry để drill-down không mất row.
func flattenDynamicRows(submission submissionmodels.Submission, def *catalogmodels.FieldDefinition, raw interface{}) []reportmodels.NormalizedFieldValue {
	rows, ok := asRowList(raw)
	if !ok {
		// Giá trị không phải danh sách row: giữ dạng chữ cho drill-down
		return []reportmodels.NormalizedFieldValue{{
			SubmissionID: submission.ID,
			UserID:       submission.UserID,
			ReportDate:   submission.ReportDate,
			FieldID:      def.ID,
			Def:          def,
			SourceKind:   reportmodels.SourceFormPayload,
			Text:         stringify(raw),
			RowIndex:     -1,
		}}
	}

	var values []reportmodels.NormalizedFieldValue
	for i, row := range rows {
		numericInRow := false
		for _, column := range sortedKeys(row) {
			numeric, ok := coerceNumeric(row[column])
			if !ok {
				continue
			}
			numericInRow = true
			values = append(values, reportmodels.NormalizedFieldValue{
				SubmissionID: submission.ID,
				UserID:       submission.UserID,
				ReportDate:   submission.ReportDate,
				FieldID:      def.ID,
				Def:          def,
				SourceKind:   reportmodels.SourceFormPayload,
				Numeric:      numeric,
				IsNumeric:    true,
				Column:       column,
				RowIndex:     i,
				Row:          row,
			})
		}
		if !numericInRow {
			values = append(values, reportmodels.NormalizedFieldValue{
				SubmissionID: submission.ID,
				UserID:       submission.UserID,
				ReportDate:   submission.ReportDate,
				FieldID:      def.ID,
				Def:          def,
				SourceKind:   reportmodels.SourceFormPayload,
				RowIndex:     i,
				Row:          row,
			})
		}
	}
	return values
}

// asRowList đưa một giá trị về danh sách row (mỗi row là một map).
// Danh sách rỗng vẫn hợp lệ; danh sách chứa phần tử không phải map thì không.
func asRowList(raw interface{}) ([]map[string]interface{}, bool) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, false
	}
	rows := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		row, ok := asPayloadMap(item)
		if !ok || row == nil {
			return nil, false
		}
		rows = append(rows, row)
	}
	return rows, true
}

// inferRowFields suy ra danh sách cột của field bảng động: ưu tiên rowFields
// khai báo trong danh mục, nếu không có thì lấy từ row khác rỗng đầu tiên.
// Kiểu cột là "number" khi cột đó có đóng góp vào tổng, ngược lại "text".
func inferRowFields(def *catalogmodels.FieldDefinition, rows []map[string]interface{}, numericColumns map[string]bool) []reportmodels.RowFieldInfo {
	var columns []string
	if def != nil && len(def.RowFields) > 0 {
		columns = def.RowFields
	} else {
		for _, row := range rows {
			if len(row) > 0 {
				columns = sortedKeys(row)
				break
			}
		}
	}

	infos := make([]reportmodels.RowFieldInfo, 0, len(columns))
	for _, column := range columns {
		columnType := "text"
		if numericColumns[column] {
			columnType = "number"
		}
		infos = append(infos, reportmodels.RowFieldInfo{ID: column, Label: column, Type: columnType})
	}
	return infos
}
