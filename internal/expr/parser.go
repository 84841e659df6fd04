package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// The branch-expression grammar, lowest precedence first:
//
//	or      = and ( "||" and )*
//	and     = cmp ( "&&" cmp )*
//	cmp     = sum ( ("=="|"!="|">="|"<="|">"|"<") sum )?
//	sum     = prod ( ("+"|"-") prod )*
//	prod    = unary ( ("*"|"/") unary )*
//	unary   = "-" unary | primary
//	primary = number | boolean | "None" | string | "(" or ")"
//
// There are no identifiers: placeholders are substituted before parsing, so
// any bare word other than a boolean or None literal is rejected.

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokBool             // True | False | true | false
	tokNone             // None
	tokString           // "…" or '…'
	tokOp               // == != >= <= > < + - * / && ||
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		ch := input[i]
		if unicode.IsSpace(rune(ch)) {
			i++
			continue
		}
		if ch == '(' {
			tokens = append(tokens, token{tokLParen, "("})
			i++
			continue
		}
		if ch == ')' {
			tokens = append(tokens, token{tokRParen, ")"})
			i++
			continue
		}
		// Logical operators must be doubled.
		if ch == '&' || ch == '|' {
			if i+1 >= len(input) || input[i+1] != ch {
				return nil, fmt.Errorf("unexpected character %q at position %d", ch, i)
			}
			tokens = append(tokens, token{tokOp, input[i : i+2]})
			i += 2
			continue
		}
		if ch == '=' || ch == '!' || ch == '<' || ch == '>' {
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{tokOp, input[i : i+2]})
				i += 2
				continue
			}
			if ch == '=' || ch == '!' {
				return nil, fmt.Errorf("unexpected character %q at position %d", ch, i)
			}
			tokens = append(tokens, token{tokOp, string(ch)})
			i++
			continue
		}
		if ch == '+' || ch == '-' || ch == '*' || ch == '/' {
			tokens = append(tokens, token{tokOp, string(ch)})
			i++
			continue
		}
		// String literals.
		if ch == '"' || ch == '\'' {
			quote := ch
			j := i + 1
			for j < len(input) && input[j] != quote {
				if input[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(input) {
				return nil, fmt.Errorf("unterminated string starting at position %d", i)
			}
			tokens = append(tokens, token{tokString, input[i+1 : j]})
			i = j + 1
			continue
		}
		// Numbers.
		if unicode.IsDigit(rune(ch)) {
			j := i
			for j < len(input) && (unicode.IsDigit(rune(input[j])) || input[j] == '.') {
				j++
			}
			tokens = append(tokens, token{tokNumber, input[i:j]})
			i = j
			continue
		}
		// Words: only boolean and None literals are allowed.
		if unicode.IsLetter(rune(ch)) || ch == '_' {
			j := i
			for j < len(input) && (unicode.IsLetter(rune(input[j])) || unicode.IsDigit(rune(input[j])) || input[j] == '_') {
				j++
			}
			word := input[i:j]
			switch word {
			case "True", "true", "False", "false":
				tokens = append(tokens, token{tokBool, strings.ToLower(word)})
			case "None":
				tokens = append(tokens, token{tokNone, word})
			default:
				return nil, fmt.Errorf("name %q is not allowed in expressions", word)
			}
			i = j
			continue
		}
		return nil, fmt.Errorf("unexpected character %q at position %d", ch, i)
	}
	tokens = append(tokens, token{tokEOF, ""})
	return tokens, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) consume() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

// parse turns a fully substituted expression string into an AST.
func parse(input string) (node, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q after expression", p.peek().val)
	}
	return n, nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && p.peek().val == "||" {
		p.consume()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logicalNode{op: "||", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && p.peek().val == "&&" {
		p.consume()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &logicalNode{op: "&&", left: left, right: right}
	}
	return left, nil
}

func isCompareOp(v string) bool {
	switch v {
	case "==", "!=", ">=", "<=", ">", "<":
		return true
	}
	return false
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.peek().kind == tokOp && isCompareOp(p.peek().val) {
		op := p.consume().val
		right, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		return &comparisonNode{op: op, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseSum() (node, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && (p.peek().val == "+" || p.peek().val == "-") {
		op := p.consume().val
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = &arithmeticNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseProduct() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && (p.peek().val == "*" || p.peek().val == "/") {
		op := p.consume().val
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &arithmeticNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.peek().kind == tokOp && p.peek().val == "-" {
		p.consume()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &negateNode{expr: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.consume()
		f, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.val)
		}
		return &literalNode{val: f}, nil
	case tokBool:
		p.consume()
		return &literalNode{val: t.val == "true"}, nil
	case tokNone:
		p.consume()
		return &literalNode{val: nil}, nil
	case tokString:
		p.consume()
		return &literalNode{val: t.val}, nil
	case tokLParen:
		p.consume()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("expected %q but got %q", ")", p.peek().val)
		}
		p.consume()
		return inner, nil
	default:
		return nil, fmt.Errorf("expected operand, got %q", t.val)
	}
}
