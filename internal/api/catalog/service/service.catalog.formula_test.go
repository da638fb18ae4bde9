package catalogsvc

import (
	"math"
	"testing"
)

// fakeFormulaEnv là env giả cho test công thức
type fakeFormulaEnv struct {
	values   map[string]float64
	rowSums  map[string]float64 // key: field + "." + cột
	sections map[string]float64
}

func (e *fakeFormulaEnv) FieldValue(fieldID string) (float64, bool) {
	v, ok := e.values[fieldID]
	return v, ok
}

func (e *fakeFormulaEnv) RowSum(fieldID string, column string) float64 {
	return e.rowSums[fieldID+"."+column]
}

func (e *fakeFormulaEnv) SectionSum(category string) float64 {
	return e.sections[category]
}

func newFakeEnv() *fakeFormulaEnv {
	return &fakeFormulaEnv{
		values: map[string]float64{
			"revenue_cash": 1500,
			"revenue_card": 500,
			"waste_count":  8,
		},
		rowSums: map[string]float64{
			"sales_rows.qty":    42,
			"sales_rows.amount": 2000,
		},
		sections: map[string]float64{
			"revenue": 2000,
		},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvalFormula_Arithmetic(t *testing.T) {
	env := newFakeEnv()

	cases := []struct {
		formula string
		want    float64
	}{
		{"revenue_cash + revenue_card", 2000},
		{"revenue_cash - waste_count", 1492},
		{"revenue_cash * 2", 3000},
		{"revenue_card / 2", 250},
		{"(revenue_cash + revenue_card) / 2", 1000},
		{"revenue_cash + revenue_card * 2", 2500}, // nhân trước cộng
		{"-waste_count + 10", 2},
		{"1.5 * revenue_card", 750},
	}
	for _, tc := range cases {
		got, err := EvalFormula(tc.formula, env)
		if err != nil {
			t.Errorf("Công thức %q lỗi không mong muốn: %v", tc.formula, err)
			continue
		}
		if !almostEqual(got, tc.want) {
			t.Errorf("Công thức %q mong đợi %v, nhận được %v", tc.formula, tc.want, got)
		}
	}
}

func TestEvalFormula_DivisionByZero(t *testing.T) {
	env := newFakeEnv()

	got, err := EvalFormula("revenue_cash / 0", env)
	if err != nil {
		t.Errorf("Chia cho 0 không được trả lỗi, nhận được: %v", err)
	}
	if got != 0 {
		t.Errorf("Chia cho 0 phải trả về 0, nhận được %v", got)
	}
}

func TestEvalFormula_UnknownField(t *testing.T) {
	env := newFakeEnv()

	_, err := EvalFormula("revenue_cash + khong_ton_tai", env)
	if err == nil {
		t.Error("Tên field không có trong kết quả gộp phải trả lỗi")
	}
}

func TestEvalFormula_RowSum(t *testing.T) {
	env := newFakeEnv()

	got, err := EvalFormula("row_sum(sales_rows, qty)", env)
	if err != nil {
		t.Fatalf("row_sum lỗi không mong muốn: %v", err)
	}
	if got != 42 {
		t.Errorf("row_sum(sales_rows, qty) mong đợi 42, nhận được %v", got)
	}

	// row_sum lồng trong biểu thức
	got, err = EvalFormula("row_sum(sales_rows, amount) / row_sum(sales_rows, qty)", env)
	if err != nil {
		t.Fatalf("Biểu thức chứa row_sum lỗi không mong muốn: %v", err)
	}
	if !almostEqual(got, 2000.0/42.0) {
		t.Errorf("Giá trung bình mỗi món mong đợi %v, nhận được %v", 2000.0/42.0, got)
	}
}

func TestEvalFormula_Percentage(t *testing.T) {
	env := newFakeEnv()

	got, err := EvalFormula("percentage(revenue_cash, revenue_cash + revenue_card)", env)
	if err != nil {
		t.Fatalf("percentage lỗi không mong muốn: %v", err)
	}
	if !almostEqual(got, 75) {
		t.Errorf("percentage mong đợi 75, nhận được %v", got)
	}

	// Mẫu số bằng 0 trả về 0
	got, err = EvalFormula("percentage(revenue_cash, 0)", env)
	if err != nil {
		t.Fatalf("percentage với mẫu số 0 lỗi không mong muốn: %v", err)
	}
	if got != 0 {
		t.Errorf("percentage với mẫu số 0 phải trả về 0, nhận được %v", got)
	}
}

func TestEvalFormula_SectionSum(t *testing.T) {
	env := newFakeEnv()

	got, err := EvalFormula("section_sum(revenue)", env)
	if err != nil {
		t.Fatalf("section_sum lỗi không mong muốn: %v", err)
	}
	if got != 2000 {
		t.Errorf("section_sum(revenue) mong đợi 2000, nhận được %v", got)
	}
}

func TestEvalFormula_InvalidSyntax(t *testing.T) {
	env := newFakeEnv()

	invalid := []string{
		"revenue_cash +",
		"(revenue_cash",
		"revenue_cash revenue_card",
		"row_sum(sales_rows)",
		"macro_la(1, 2)",
		"revenue_cash & revenue_card",
	}
	for _, formula := range invalid {
		if _, err := EvalFormula(formula, env); err == nil {
			t.Errorf("Công thức %q phải trả lỗi cú pháp", formula)
		}
	}
}
