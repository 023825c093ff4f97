package lox

import (
	"strconv"
)

// Scanner turns source text into tokens.
type Scanner struct {
	source []rune
	tokens []Token
	errs   ErrorList

	start     int
	current   int
	line      int
	lineStart int
	startLine int
	startCol  int
}

func NewScanner(source string) *Scanner {
	return &Scanner{
		source: []rune(source),
		line:   1,
	}
}

// Scan tokenizes the whole source. Scanning continues past errors so that
// every bad character is reported; the token list always ends with EOF.
func Scan(source string) ([]Token, error) {
	return NewScanner(source).ScanTokens()
}

func (s *Scanner) ScanTokens() ([]Token, error) {
	for !s.atEnd() {
		s.start = s.current
		s.startLine = s.line
		s.startCol = s.current - s.lineStart + 1
		s.scanToken()
	}

	s.tokens = append(s.tokens, NewToken(EOF, "", nil, s.line, s.current-s.lineStart+1))
	return s.tokens, s.errs.Err()
}

func (s *Scanner) scanToken() {
	c := s.advance()
	switch c {
	case '(':
		s.add(LeftParen)
	case ')':
		s.add(RightParen)
	case '{':
		s.add(LeftBrace)
	case '}':
		s.add(RightBrace)
	case ',':
		s.add(Comma)
	case '.':
		s.add(Dot)
	case '-':
		s.add(Minus)
	case '+':
		s.add(Plus)
	case ';':
		s.add(Semicolon)
	case '*':
		s.add(Star)
	case '!':
		s.add(s.pick('=', BangEqual, Bang))
	case '=':
		s.add(s.pick('=', EqualEqual, Equal))
	case '<':
		s.add(s.pick('=', LessEqual, Less))
	case '>':
		s.add(s.pick('=', GreaterEqual, Greater))
	case '/':
		if s.match('/') {
			for s.peek() != '\n' && !s.atEnd() {
				s.advance()
			}
		} else {
			s.add(Slash)
		}
	case ' ', '\r', '\t':
	case '\n':
		s.newline()
	case '"':
		s.scanString()
	default:
		switch {
		case isDigit(c):
			s.number()
		case isAlpha(c):
			s.identifier()
		default:
			s.errs = append(s.errs, &ScanError{
				Line:    s.line,
				Column:  s.startCol,
				Message: "Unexpected character.",
			})
		}
	}
}

func (s *Scanner) scanString() {
	for s.peek() != '"' && !s.atEnd() {
		if s.advance() == '\n' {
			s.newline()
		}
	}

	if s.atEnd() {
		s.errs = append(s.errs, &ScanError{
			Line:    s.line,
			Column:  s.current - s.lineStart + 1,
			Message: "Unterminated string.",
		})
		return
	}

	s.advance() // closing quote

	value := string(s.source[s.start+1 : s.current-1])
	s.addLiteral(StringLit, String(value))
}

func (s *Scanner) number() {
	for isDigit(s.peek()) {
		s.advance()
	}

	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}

	text := string(s.source[s.start:s.current])
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		// only reachable for out-of-range literals
		s.errs = append(s.errs, &ScanError{
			Line:    s.line,
			Column:  s.startCol,
			Message: "Invalid number literal.",
		})
		return
	}
	s.addLiteral(NumberLit, Number(n))
}

func (s *Scanner) identifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}

	typ, ok := keywords[string(s.source[s.start:s.current])]
	if !ok {
		typ = Identifier
	}
	s.add(typ)
}

func (s *Scanner) newline() {
	s.line++
	s.lineStart = s.current
}

func (s *Scanner) pick(next rune, matched, unmatched TokenType) TokenType {
	if s.match(next) {
		return matched
	}
	return unmatched
}

func (s *Scanner) match(expected rune) bool {
	if s.atEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) advance() rune {
	c := s.source[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() rune {
	if s.atEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() rune {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

func (s *Scanner) atEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) add(typ TokenType) {
	s.addLiteral(typ, nil)
}

func (s *Scanner) addLiteral(typ TokenType, literal Value) {
	text := string(s.source[s.start:s.current])
	s.tokens = append(s.tokens, NewToken(typ, text, literal, s.startLine, s.startCol))
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isAlphaNumeric(c rune) bool {
	return isAlpha(c) || isDigit(c)
}
