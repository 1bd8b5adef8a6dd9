package gridcalc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/efp"
)

// Operator binding powers, loosest first. Prefix minus binds tighter than ^,
// so -2^2 is 4 as in Excel.
const (
	bpCompare = 10 * (iota + 1)
	bpConcat
	bpAdditive
	bpMultiplicative
	bpPower
	bpPrefix
	bpPercent
	bpIntersect
)

// ParseFormula parses formula text, with or without the leading '=', into an AST.
// Failures wrap ErrSyntax.
func ParseFormula(formula string) (Node, error) {
	body := strings.TrimSpace(formula)
	body = strings.TrimSpace(strings.TrimPrefix(body, "="))
	if body == "" {
		return nil, fmt.Errorf("%w: empty formula", ErrSyntax)
	}

	ps := efp.ExcelParser()
	toks := ps.Parse(body)
	if len(toks) > 0 && toks[0].TType == efp.TokenTypeOperatorInfix && toks[0].TValue == "=" {
		toks = toks[1:]
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty formula", ErrSyntax)
	}

	p := &parser{toks: toks}
	n, err := p.expr(0)
	if err != nil {
		return nil, fmt.Errorf("%w in %q: %v", ErrSyntax, formula, err)
	}
	if !p.done() {
		return nil, fmt.Errorf("%w in %q: unexpected %q", ErrSyntax, formula, p.peek().TValue)
	}
	return n, nil
}

type parser struct {
	toks []efp.Token
	pos  int
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() efp.Token {
	if p.done() {
		return efp.Token{}
	}
	return p.toks[p.pos]
}

func (p *parser) next() efp.Token {
	t := p.peek()
	p.pos++
	return t
}

func isStop(t efp.Token, typ string) bool {
	return t.TType == typ && t.TSubType == efp.TokenSubTypeStop
}

// expr parses operators whose binding power exceeds minBP (left associative).
func (p *parser) expr(minBP int) (Node, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	for !p.done() {
		t := p.peek()
		switch t.TType {
		case efp.TokenTypeOperatorPostfix:
			if bpPercent <= minBP {
				return left, nil
			}
			p.next()
			left = &PostfixNode{Op: t.TValue, X: left}
		case efp.TokenTypeOperatorInfix:
			bp, op, err := infixPower(t)
			if err != nil {
				return nil, err
			}
			if bp <= minBP {
				return left, nil
			}
			p.next()
			right, err := p.expr(bp)
			if err != nil {
				return nil, err
			}
			left = &BinaryNode{Op: op, L: left, R: right}
		default:
			return left, nil
		}
	}
	return left, nil
}

func infixPower(t efp.Token) (int, string, error) {
	switch t.TSubType {
	case efp.TokenSubTypeIntersection:
		return bpIntersect, " ", nil
	case efp.TokenSubTypeUnion:
		return 0, "", fmt.Errorf("union operator is not supported")
	}
	switch t.TValue {
	case "=", "<>", "<", ">", "<=", ">=":
		return bpCompare, t.TValue, nil
	case "&":
		return bpConcat, t.TValue, nil
	case "+", "-":
		return bpAdditive, t.TValue, nil
	case "*", "/":
		return bpMultiplicative, t.TValue, nil
	case "^":
		return bpPower, t.TValue, nil
	}
	return 0, "", fmt.Errorf("unknown operator %q", t.TValue)
}

func (p *parser) primary() (Node, error) {
	if p.done() {
		return nil, fmt.Errorf("unexpected end of formula")
	}
	t := p.next()
	switch t.TType {
	case efp.TokenTypeOperand:
		return operand(t)
	case efp.TokenTypeOperatorPrefix:
		x, err := p.expr(bpPrefix)
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: t.TValue, X: x}, nil
	case efp.TokenTypeSubexpression:
		if t.TSubType != efp.TokenSubTypeStart {
			return nil, fmt.Errorf("unbalanced parenthesis")
		}
		x, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if !isStop(p.next(), efp.TokenTypeSubexpression) {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return &ParenNode{X: x}, nil
	case efp.TokenTypeFunction:
		if t.TSubType != efp.TokenSubTypeStart {
			return nil, fmt.Errorf("unbalanced parenthesis")
		}
		if strings.EqualFold(t.TValue, "ARRAY") {
			return p.array()
		}
		return p.call(t.TValue)
	}
	return nil, fmt.Errorf("unexpected %q", t.TValue)
}

func (p *parser) call(name string) (Node, error) {
	name = strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(name, "_xlfn."), "_xlws."))
	n := &CallNode{Name: name}
	if isStop(p.peek(), efp.TokenTypeFunction) {
		p.next()
		return n, nil
	}
	for {
		t := p.peek()
		if t.TType == efp.TokenTypeArgument || isStop(t, efp.TokenTypeFunction) {
			n.Args = append(n.Args, &MissingNode{})
		} else {
			arg, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			n.Args = append(n.Args, arg)
		}
		t = p.next()
		switch {
		case t.TType == efp.TokenTypeArgument:
			continue
		case isStop(t, efp.TokenTypeFunction):
			return n, nil
		}
		return nil, fmt.Errorf("missing closing parenthesis for %s", name)
	}
}

// array parses {a,b;c,d}. efp reports it as ARRAY(ARRAYROW(a,b),ARRAYROW(c,d)).
func (p *parser) array() (Node, error) {
	arr := &ArrayNode{}
	for {
		t := p.next()
		if t.TType != efp.TokenTypeFunction || t.TSubType != efp.TokenSubTypeStart {
			return nil, fmt.Errorf("malformed array constant")
		}
		var row []Node
		if isStop(p.peek(), efp.TokenTypeFunction) {
			p.next()
		} else {
			for {
				item, err := p.expr(0)
				if err != nil {
					return nil, err
				}
				row = append(row, item)
				t = p.next()
				if t.TType == efp.TokenTypeArgument {
					continue
				}
				if isStop(t, efp.TokenTypeFunction) {
					break
				}
				return nil, fmt.Errorf("malformed array constant")
			}
		}
		if len(arr.Rows) > 0 && len(row) != len(arr.Rows[0]) {
			return nil, fmt.Errorf("array rows differ in length")
		}
		arr.Rows = append(arr.Rows, row)

		t = p.next()
		if t.TType == efp.TokenTypeArgument {
			continue
		}
		if isStop(t, efp.TokenTypeFunction) {
			return arr, nil
		}
		return nil, fmt.Errorf("malformed array constant")
	}
}

func operand(t efp.Token) (Node, error) {
	switch t.TSubType {
	case efp.TokenSubTypeNumber:
		f, err := strconv.ParseFloat(t.TValue, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", t.TValue)
		}
		return &NumberNode{Value: f, Raw: t.TValue}, nil
	case efp.TokenSubTypeText:
		return &TextNode{Value: t.TValue}, nil
	case efp.TokenSubTypeLogical:
		return &BoolNode{Value: strings.EqualFold(t.TValue, "TRUE")}, nil
	case efp.TokenSubTypeError:
		code, ok := ParseErrorCode(strings.ToUpper(t.TValue))
		if !ok {
			code = ErrValue
		}
		return &ErrorNode{Code: code}, nil
	}
	return reference(t.TValue), nil
}

// reference classifies an identifier-like operand: cell, range, whole
// rows/columns, sheet-qualified reference, boolean or name.
func reference(raw string) Node {
	if strings.Contains(raw, "!") {
		return &SheetRefNode{Raw: raw}
	}
	plain := strings.ToUpper(strings.ReplaceAll(raw, "$", ""))
	switch plain {
	case "TRUE":
		return &BoolNode{Value: true}
	case "FALSE":
		return &BoolNode{Value: false}
	}
	if !strings.Contains(plain, ":") {
		if ref, err := ParseCellRef(plain); err == nil {
			return &RefNode{Ref: ref, Raw: raw}
		}
		return &NameNode{Name: raw}
	}

	if start, end, err := ParseRange(plain); err == nil {
		return &RangeNode{Area: NewAreaRef(start, end), Raw: raw}
	}
	parts := strings.Split(plain, ":")
	if len(parts) != 2 {
		return &NameNode{Name: raw}
	}
	if c1, err1 := NameToCol(parts[0]); err1 == nil {
		if c2, err2 := NameToCol(parts[1]); err2 == nil {
			area := NewAreaRef(CellRef{Row: 0, Col: c1}, CellRef{Row: maxRows - 1, Col: c2})
			return &RangeNode{Area: area, Whole: true, Raw: raw}
		}
	}
	r1, err1 := strconv.Atoi(parts[0])
	r2, err2 := strconv.Atoi(parts[1])
	if err1 == nil && err2 == nil && r1 >= 1 && r2 >= 1 && r1 <= maxRows && r2 <= maxRows {
		area := NewAreaRef(CellRef{Row: r1 - 1, Col: 0}, CellRef{Row: r2 - 1, Col: maxCols - 1})
		return &RangeNode{Area: area, Whole: true, Raw: raw}
	}
	return &NameNode{Name: raw}
}
