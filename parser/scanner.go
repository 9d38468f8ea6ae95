package parser

import (
	"strings"

	"sql-explain/errcode"
)

// scanner 把一行 plan 文本切分成 token，缩进由调用方处理
type scanner struct {
	source  []rune
	pos     int
	startAt int

	row int
	// 行首缩进的宽度，用于计算列号
	indent int

	// 记录 token 的类型和值
	_type  tokenType
	_value string
}

func newScanner(line string, row, indent int) *scanner {
	return &scanner{
		source: []rune(line),
		pos:    -1,
		row:    row,
		indent: indent,
	}
}

func (s *scanner) tokens() ([]token, error) {
	var tokens []token
	for {
		t, err := s.next()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		} else if t.Type == _Comment {
			continue
		}
		tokens = append(tokens, *t)
	}
	return tokens, nil
}

func (s *scanner) next() (*token, error) {
	// 获取下个字符，跳过空格
	char := s.getr()
	for char == ' ' || char == '\t' || char == '\r' {
		char = s.getr()
	}
	s.startLit()

	if isLetter(char) {
		return s.ident()
	}

	switch char {
	case -1:
		return nil, nil
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return s.number()
	case '\'', '"':
		return s.stdString()
	case '-':
		if s.getr() == '-' {
			return s.lineComment()
		}
		s.ungetr()
		s.setTokenInfo(_Sub, "-")
	case '#':
		s.setTokenInfo(_Hash, "#")
	case ',':
		s.setTokenInfo(_Comma, ",")
	case '(':
		s.setTokenInfo(_Lparen, "(")
	case ')':
		s.setTokenInfo(_Rparen, ")")
	case '+':
		s.setTokenInfo(_Add, "+")
	case '*':
		s.setTokenInfo(_Mul, "*")
	case '/':
		s.setTokenInfo(_Div, "/")
	case '%':
		s.setTokenInfo(_Rem, "%")
	case '=':
		s.setTokenInfo(_Eql, "=")
	case '!':
		if s.getr() != '=' {
			s.ungetr()
			return nil, s.errorf("unknown symbol: !")
		}
		s.setTokenInfo(_Neq, "!=")
	case '>':
		if s.getr() == '=' {
			s.setTokenInfo(_Geq, ">=")
		} else {
			s.ungetr()
			s.setTokenInfo(_Gtr, ">")
		}
	case '<':
		switch s.getr() {
		case '=':
			s.setTokenInfo(_Leq, "<=")
		case '>':
			s.setTokenInfo(_Neq, "<>")
		default:
			s.ungetr()
			s.setTokenInfo(_Lss, "<")
		}
	default:
		return nil, s.errorf("unknown symbol: %s", string(char))
	}
	return s.newToken(), nil
}

// 识别标识符，最多包含一个 '.'，例如 numbers.number
func (s *scanner) ident() (*token, error) {
	hasDot := false
	c := s.getr()
	for isLetter(c) || isDecimal(c) || (!hasDot && c == '.') {
		if c == '.' {
			hasDot = true
		}
		c = s.getr()
	}
	s.ungetr()
	lit := string(s.stopLit())
	var t = _Name
	if tt, ok := keywordMap[strings.ToLower(lit)]; ok {
		t = tt
		if tt == _True || tt == _False {
			t = _BooleanLit
		}
	}
	s.setTokenInfo(t, lit)
	return s.newToken(), nil
}

func (s *scanner) number() (*token, error) {
	hasDot := false
	c := s.getr()
	for isDecimal(c) || (!hasDot && c == '.') {
		if c == '.' {
			hasDot = true
		}
		c = s.getr()
	}
	s.ungetr()
	num := s.stopLit()
	if num[len(num)-1] == '.' {
		return nil, s.errorf("%s is not normal number", string(num))
	}
	t := _IntLit
	if hasDot {
		t = _FloatLit
	}
	s.setTokenInfo(t, string(num))
	return s.newToken(), nil
}

func (s *scanner) stdString() (*token, error) {
	quote := s.source[s.pos]
	for {
		c := s.getr()
		if c == quote {
			break
		}
		if c < 0 {
			return nil, s.errorf("string not terminated: %s", string(s.source[s.startAt+1:]))
		}
	}
	str := s.stopLit()

	s.setTokenInfo(_StringLit, string(str[1:len(str)-1]))
	return s.newToken(), nil
}

// 注释一直到行尾
func (s *scanner) lineComment() (*token, error) {
	s.pos = len(s.source) - 1
	s.setTokenInfo(_Comment, string(s.stopLit()))
	return s.newToken(), nil
}

func (s *scanner) getr() rune {
	s.pos += 1
	if s.pos >= len(s.source) {
		return -1
	}
	return s.source[s.pos]
}

func (s *scanner) ungetr() {
	s.pos -= 1
}

func (s *scanner) startLit() {
	s.startAt = s.pos
}

func (s *scanner) stopLit() []rune {
	end := min(s.pos+1, len(s.source))
	return s.source[s.startAt:end]
}

func (s *scanner) setTokenInfo(t tokenType, v string) {
	s._type = t
	s._value = v
}

func (s *scanner) newToken() *token {
	return &token{
		pos: pos{
			row: s.row,
			col: s.indent + s.startAt + 1,
		},
		Type:  s._type,
		Value: s._value,
	}
}

func (s *scanner) errorf(format string, args ...interface{}) error {
	return errcode.Newf(errcode.SemanticError, "at (%d, %d): "+format,
		append([]interface{}{s.row, s.indent + s.startAt + 1}, args...)...)
}

func lower(c rune) rune     { return ('a' - 'A') | c }
func isDecimal(c rune) bool { return '0' <= c && c <= '9' }
func isLetter(c rune) bool {
	return 'a' <= lower(c) && lower(c) <= 'z' || c == '_'
}
