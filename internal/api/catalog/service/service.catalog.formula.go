package catalogsvc

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// FormulaEnv cung cấp dữ liệu cho việc tính field calculated.
// Engine tổng hợp implement interface này trên kết quả đã gộp của một bộ phận.
type FormulaEnv interface {
	// FieldValue trả về tổng đã gộp của một field; ok = false nếu field không có trong kết quả
	FieldValue(fieldID string) (value float64, ok bool)
	// RowSum trả về tổng một cột của field dạng bảng dòng động
	RowSum(fieldID string, column string) float64
	// SectionSum trả về tổng tất cả field số thuộc một category
	SectionSum(category string) float64
}

// Các macro được phép trong công thức
const (
	macroRowSum     = "row_sum"     // row_sum(field, cột): tổng một cột của bảng dòng động
	macroPercentage = "percentage"  // percentage(a, b): a/b*100, trả 0 khi b = 0
	macroSectionSum = "section_sum" // section_sum(category): tổng field số của một nhóm
)

// EvalFormula thông dịch một công thức field calculated trên env đã cho.
// Ngôn ngữ công thức chỉ gồm: số, tên field, + - * /, ngoặc đơn và ba macro
// row_sum/percentage/section_sum. Chia cho 0 trả về 0 thay vì lỗi.
// Tên field không có trong kết quả gộp là lỗi: field calculated đó bị bỏ qua
// thay vì trả về con số sai.
func EvalFormula(formula string, env FormulaEnv) (float64, error) {
	tokens, err := tokenizeFormula(formula)
	if err != nil {
		return 0, err
	}
	p := &formulaParser{tokens: tokens}
	node, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.pos < len(p.tokens) {
		return 0, fmt.Errorf("ký tự thừa sau công thức tại %q", p.tokens[p.pos].text)
	}
	return node.eval(env)
}

// ===== Tokenizer =====

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdent
	tokenOp    // + - * /
	tokenLParen
	tokenRParen
	tokenComma
)

type formulaToken struct {
	kind tokenKind
	text string
}

func tokenizeFormula(formula string) ([]formulaToken, error) {
	var tokens []formulaToken
	runes := []rune(formula)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, formulaToken{tokenLParen, "("})
			i++
		case r == ')':
			tokens = append(tokens, formulaToken{tokenRParen, ")"})
			i++
		case r == ',':
			tokens = append(tokens, formulaToken{tokenComma, ","})
			i++
		case r == '+' || r == '-' || r == '*' || r == '/':
			tokens = append(tokens, formulaToken{tokenOp, string(r)})
			i++
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, formulaToken{tokenNumber, string(runes[start:i])})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, formulaToken{tokenIdent, string(runes[start:i])})
		default:
			return nil, fmt.Errorf("ký tự không hợp lệ trong công thức: %q", string(r))
		}
	}
	return tokens, nil
}

// ===== Parser (recursive descent) =====

// formulaNode là một node AST của công thức
type formulaNode interface {
	eval(env FormulaEnv) (float64, error)
}

type numberNode struct{ value float64 }

type identNode struct{ name string }

type binaryNode struct {
	op          string
	left, right formulaNode
}

type callNode struct {
	name string
	args []formulaNode
}

func (n numberNode) eval(_ FormulaEnv) (float64, error) { return n.value, nil }

func (n identNode) eval(env FormulaEnv) (float64, error) {
	v, ok := env.FieldValue(n.name)
	if !ok {
		return 0, fmt.Errorf("field %q không có trong kết quả gộp", n.name)
	}
	return v, nil
}

func (n binaryNode) eval(env FormulaEnv) (float64, error) {
	left, err := n.left.eval(env)
	if err != nil {
		return 0, err
	}
	right, err := n.right.eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		if right == 0 {
			return 0, nil
		}
		return left / right, nil
	}
	return 0, fmt.Errorf("toán tử không hợp lệ: %q", n.op)
}

func (n callNode) eval(env FormulaEnv) (float64, error) {
	switch n.name {
	case macroRowSum:
		field, column, err := n.identArgs2()
		if err != nil {
			return 0, err
		}
		return env.RowSum(field, column), nil
	case macroPercentage:
		if len(n.args) != 2 {
			return 0, fmt.Errorf("percentage cần đúng 2 tham số, nhận %d", len(n.args))
		}
		a, err := n.args[0].eval(env)
		if err != nil {
			return 0, err
		}
		b, err := n.args[1].eval(env)
		if err != nil {
			return 0, err
		}
		if b == 0 {
			return 0, nil
		}
		return a / b * 100, nil
	case macroSectionSum:
		if len(n.args) != 1 {
			return 0, fmt.Errorf("section_sum cần đúng 1 tham số, nhận %d", len(n.args))
		}
		ident, ok := n.args[0].(identNode)
		if !ok {
			return 0, fmt.Errorf("tham số của section_sum phải là tên category")
		}
		return env.SectionSum(ident.name), nil
	}
	return 0, fmt.Errorf("macro không được hỗ trợ: %q", n.name)
}

// identArgs2 lấy 2 tham số dạng tên (field, cột) cho row_sum
func (n callNode) identArgs2() (string, string, error) {
	if len(n.args) != 2 {
		return "", "", fmt.Errorf("row_sum cần đúng 2 tham số, nhận %d", len(n.args))
	}
	first, ok1 := n.args[0].(identNode)
	second, ok2 := n.args[1].(identNode)
	if !ok1 || !ok2 {
		return "", "", fmt.Errorf("tham số của row_sum phải là tên field và tên cột")
	}
	return first.name, second.name, nil
}

type formulaParser struct {
	tokens []formulaToken
	pos    int
}

func (p *formulaParser) peek() (formulaToken, bool) {
	if p.pos >= len(p.tokens) {
		return formulaToken{}, false
	}
	return p.tokens[p.pos], true
}

// parseExpr xử lý + và -
func (p *formulaParser) parseExpr() (formulaNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokenOp || (tok.text != "+" && tok.text != "-") {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.text, left: left, right: right}
	}
}

// parseTerm xử lý * và /
func (p *formulaParser) parseTerm() (formulaNode, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokenOp || (tok.text != "*" && tok.text != "/") {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.text, left: left, right: right}
	}
}

// parseFactor xử lý số, tên field, lời gọi macro, ngoặc đơn và dấu âm
func (p *formulaParser) parseFactor() (formulaNode, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("công thức kết thúc đột ngột")
	}
	switch tok.kind {
	case tokenNumber:
		p.pos++
		value, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("số không hợp lệ: %q", tok.text)
		}
		return numberNode{value: value}, nil
	case tokenIdent:
		p.pos++
		next, ok := p.peek()
		if ok && next.kind == tokenLParen {
			return p.parseCall(strings.ToLower(tok.text))
		}
		return identNode{name: strings.ToLower(tok.text)}, nil
	case tokenLParen:
		p.pos++
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokenRParen, ")"); err != nil {
			return nil, err
		}
		return node, nil
	case tokenOp:
		if tok.text == "-" {
			p.pos++
			inner, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			return binaryNode{op: "-", left: numberNode{value: 0}, right: inner}, nil
		}
	}
	return nil, fmt.Errorf("token không mong muốn trong công thức: %q", tok.text)
}

// parseCall parse danh sách tham số sau tên macro, dấu '(' đang ở vị trí hiện tại
func (p *formulaParser) parseCall(name string) (formulaNode, error) {
	p.pos++ // bỏ qua '('
	var args []formulaNode
	tok, ok := p.peek()
	if ok && tok.kind == tokenRParen {
		p.pos++
		return callNode{name: name, args: args}, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		tok, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("thiếu ')' trong lời gọi %q", name)
		}
		if tok.kind == tokenComma {
			p.pos++
			continue
		}
		if tok.kind == tokenRParen {
			p.pos++
			return callNode{name: name, args: args}, nil
		}
		return nil, fmt.Errorf("token không mong muốn trong tham số của %q: %q", name, tok.text)
	}
}

func (p *formulaParser) expect(kind tokenKind, text string) error {
	tok, ok := p.peek()
	if !ok || tok.kind != kind {
		return fmt.Errorf("thiếu %q trong công thức", text)
	}
	p.pos++
	return nil
}
