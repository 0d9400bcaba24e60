// Package lexer implements the Smoke language tokenizer.
//
// At every position each recognizer proposes zero or more candidate tokens.
// The longest candidate wins; ties go to the recognizer registered first
// (static table, identifier, string, integer, float), and inside the static
// table to the earlier entry. That is what makes `fn` a keyword, `0` an
// Integer and `function` an Identifier.
package lexer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/diagnostics"
)

// Kind identifies the type of a lexer token.
type Kind int

const (
	// Brackets
	LeftParen    Kind = iota // (
	RightParen               // )
	LeftBracket              // [
	RightBracket             // ]
	LeftBrace                // {
	RightBrace               // }

	// Operators
	Comma        // ,
	Dot          // .
	Minus        // -
	Plus         // +
	Slash        // /
	Star         // *
	Equal        // =
	EqualEqual   // ==
	Bang         // !
	BangEqual    // !=
	Greater      // >
	GreaterEqual // >=
	Less         // <
	LessEqual    // <=

	// Keywords
	Function
	Return
	Let
	If
	Else
	For
	While

	// Literals
	Identifier
	Nil
	Bool
	Integer
	Float
	Str

	Semicolon // ;
)

var kindNames = [...]string{
	LeftParen:    "LeftParen",
	RightParen:   "RightParen",
	LeftBracket:  "LeftBracket",
	RightBracket: "RightBracket",
	LeftBrace:    "LeftBrace",
	RightBrace:   "RightBrace",
	Comma:        "Comma",
	Dot:          "Dot",
	Minus:        "Minus",
	Plus:         "Plus",
	Slash:        "Slash",
	Star:         "Star",
	Equal:        "Equal",
	EqualEqual:   "EqualEqual",
	Bang:         "Bang",
	BangEqual:    "BangEqual",
	Greater:      "Greater",
	GreaterEqual: "GreaterEqual",
	Less:         "Less",
	LessEqual:    "LessEqual",
	Function:     "Function",
	Return:       "Return",
	Let:          "Let",
	If:           "If",
	Else:         "Else",
	For:          "For",
	While:        "While",
	Identifier:   "Identifier",
	Nil:          "Nil",
	Bool:         "Bool",
	Integer:      "Integer",
	Float:        "Float",
	Str:          "Str",
	Semicolon:    "Semicolon",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Describe returns the form a user would type for k, used in messages such
// as `expected ")"`.
func (k Kind) Describe() string {
	switch k {
	case Identifier:
		return "identifier"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Str:
		return "string"
	case Bool:
		return "true or false"
	}
	for _, e := range staticTable {
		if e.token.Kind == k {
			return strconv.Quote(e.text)
		}
	}
	return k.String()
}

// Token is a kind plus the payload the kind carries: Bool for Bool, Int for
// Integer, Float for Float, Str for Identifier and Str.
type Token struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

func (t Token) String() string {
	switch t.Kind {
	case Identifier:
		return fmt.Sprintf("Identifier(%s)", t.Str)
	case Str:
		return fmt.Sprintf("Str(%q)", t.Str)
	case Bool:
		return fmt.Sprintf("Bool(%t)", t.Bool)
	case Integer:
		return fmt.Sprintf("Integer(%d)", t.Int)
	case Float:
		return fmt.Sprintf("Float(%s)", ast.FormatFloat(t.Float))
	}
	return t.Kind.String()
}

// Lexeme is the exact text a token was matched from and where it starts.
type Lexeme struct {
	Content string
	Span    ast.Span
}

// TokenExt pairs a token with its lexeme. Every stage after the tokenizer
// consumes TokenExt.
type TokenExt struct {
	Token
	Lexeme Lexeme
}

type staticEntry struct {
	text  string
	token Token
}

var staticTable = []staticEntry{
	{"(", Token{Kind: LeftParen}},
	{")", Token{Kind: RightParen}},
	{"[", Token{Kind: LeftBracket}},
	{"]", Token{Kind: RightBracket}},
	{"{", Token{Kind: LeftBrace}},
	{"}", Token{Kind: RightBrace}},
	{",", Token{Kind: Comma}},
	{".", Token{Kind: Dot}},
	{"-", Token{Kind: Minus}},
	{"+", Token{Kind: Plus}},
	{"/", Token{Kind: Slash}},
	{"*", Token{Kind: Star}},
	{"=", Token{Kind: Equal}},
	{"==", Token{Kind: EqualEqual}},
	{"!", Token{Kind: Bang}},
	{"!=", Token{Kind: BangEqual}},
	{">", Token{Kind: Greater}},
	{">=", Token{Kind: GreaterEqual}},
	{"<", Token{Kind: Less}},
	{"<=", Token{Kind: LessEqual}},
	{"fn", Token{Kind: Function}},
	{"return", Token{Kind: Return}},
	{"let", Token{Kind: Let}},
	{"if", Token{Kind: If}},
	{"else", Token{Kind: Else}},
	{"for", Token{Kind: For}},
	{"while", Token{Kind: While}},
	{"nil", Token{Kind: Nil}},
	{"true", Token{Kind: Bool, Bool: true}},
	{"false", Token{Kind: Bool, Bool: false}},
	{";", Token{Kind: Semicolon}},
}

// recognizer is the closed set of token recognizers, in priority order.
type recognizer int

const (
	recognizeStatic recognizer = iota
	recognizeIdentifier
	recognizeString
	recognizeInteger
	recognizeFloat
)

var recognizers = []recognizer{
	recognizeStatic,
	recognizeIdentifier,
	recognizeString,
	recognizeInteger,
	recognizeFloat,
}

type candidate struct {
	token  Token
	length int // bytes of input consumed
}

func (r recognizer) scan(rest string) []candidate {
	switch r {
	case recognizeStatic:
		return scanStatic(rest)
	case recognizeIdentifier:
		return scanIdentifier(rest)
	case recognizeString:
		return scanString(rest)
	case recognizeInteger:
		return scanInteger(rest)
	case recognizeFloat:
		return scanFloat(rest)
	}
	return nil
}

func scanStatic(rest string) []candidate {
	var out []candidate
	for _, e := range staticTable {
		if strings.HasPrefix(rest, e.text) {
			out = append(out, candidate{token: e.token, length: len(e.text)})
		}
	}
	return out
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func scanIdentifier(rest string) []candidate {
	if rest == "" || !isAlpha(rest[0]) {
		return nil
	}
	n := 1
	for n < len(rest) && isAlphaNumeric(rest[n]) {
		n++
	}
	return []candidate{{token: Token{Kind: Identifier, Str: rest[:n]}, length: n}}
}

// scanString matches a double-quoted literal. There are no escapes: the
// literal ends at the next quote.
func scanString(rest string) []candidate {
	if rest == "" || rest[0] != '"' {
		return nil
	}
	end := strings.IndexByte(rest[1:], '"')
	if end < 0 {
		return nil
	}
	return []candidate{{token: Token{Kind: Str, Str: rest[1 : end+1]}, length: end + 2}}
}

// numeralEnds measures the numeral at the start of rest. intEnd is the
// length of the leading digit run. floatEnd is the length of the longest
// prefix of the form digits [. digits] [(e|E) [+|-] digits], with at least
// one mantissa digit, or 0 when there is none. A sign is only part of a
// numeral directly after the exponent marker.
func numeralEnds(rest string) (intEnd, floatEnd int) {
	i := 0
	for i < len(rest) && isDigit(rest[i]) {
		i++
	}
	intEnd = i
	mantissa := i > 0
	if i < len(rest) && rest[i] == '.' {
		j := i + 1
		for j < len(rest) && isDigit(rest[j]) {
			j++
		}
		if mantissa || j > i+1 {
			mantissa = true
			i = j
		}
	}
	if !mantissa {
		return intEnd, 0
	}
	floatEnd = i

	if i < len(rest) && (rest[i] == 'e' || rest[i] == 'E') {
		j := i + 1
		if j < len(rest) && (rest[j] == '+' || rest[j] == '-') {
			j++
		}
		k := j
		for k < len(rest) && isDigit(rest[k]) {
			k++
		}
		if k > j {
			floatEnd = k
		}
	}
	return intEnd, floatEnd
}

// scanInteger matches the leading digit run. A run too large for int64
// yields no candidate, leaving it to the float recognizer.
func scanInteger(rest string) []candidate {
	n, _ := numeralEnds(rest)
	if n == 0 {
		return nil
	}
	v, err := strconv.ParseInt(rest[:n], 10, 64)
	if err != nil {
		return nil
	}
	return []candidate{{token: Token{Kind: Integer, Int: v}, length: n}}
}

// scanFloat matches the longest float numeral. Magnitudes beyond float64
// become ±Inf rather than splitting the numeral.
func scanFloat(rest string) []candidate {
	_, n := numeralEnds(rest)
	if n == 0 {
		return nil
	}
	v, err := strconv.ParseFloat(rest[:n], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil
	}
	return []candidate{{token: Token{Kind: Float, Float: v}, length: n}}
}

// longest picks the longest candidate, keeping the earliest on ties.
func longest(cands []candidate) (candidate, bool) {
	var best candidate
	found := false
	for _, c := range cands {
		if !found || c.length > best.length {
			best = c
			found = true
		}
	}
	return best, found
}

// UnrecognizedCharacterError reports input no recognizer matches.
type UnrecognizedCharacterError struct {
	Char rune
	Span ast.Span
	Hint string
}

func (e *UnrecognizedCharacterError) Error() string {
	return fmt.Sprintf("unrecognized character %q at %s", e.Char, e.Span)
}

// Diagnostic implements diagnostics.Diagnoser.
func (e *UnrecognizedCharacterError) Diagnostic() diagnostics.Diagnostic {
	span := e.Span
	return diagnostics.MakeDiag(diagnostics.ELex, fmt.Sprintf("unrecognized character %q", e.Char), &span, e.Hint)
}

// Tokenizer produces tokens lazily from a source string.
type Tokenizer struct {
	source string
	src    ast.Source
	pos    int
	line   int
	col    int
}

// NewTokenizer returns a Tokenizer positioned at the start of source.
func NewTokenizer(source string, src ast.Source) *Tokenizer {
	return &Tokenizer{
		source: source,
		src:    src,
		pos:    0,
		line:   1,
		col:    1,
	}
}

func (t *Tokenizer) atEnd() bool {
	return t.pos >= len(t.source)
}

// advance consumes n bytes, tracking line and rune column.
func (t *Tokenizer) advance(n int) {
	end := t.pos + n
	for t.pos < end {
		r, size := utf8.DecodeRuneInString(t.source[t.pos:])
		t.pos += size
		if r == '\n' {
			t.line++
			t.col = 1
		} else {
			t.col++
		}
	}
}

func (t *Tokenizer) span(startLine, startCol int) ast.Span {
	return ast.Span{
		Origin:    t.src.Origin,
		File:      t.src.File,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   t.line,
		EndCol:    t.col,
	}
}

func (t *Tokenizer) skipWhitespace() {
	for !t.atEnd() {
		r, size := utf8.DecodeRuneInString(t.source[t.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		t.advance(size)
	}
}

// Next returns the next token, or io.EOF once the input is exhausted.
func (t *Tokenizer) Next() (TokenExt, error) {
	t.skipWhitespace()
	if t.atEnd() {
		return TokenExt{}, io.EOF
	}

	rest := t.source[t.pos:]
	var cands []candidate
	for _, r := range recognizers {
		cands = append(cands, r.scan(rest)...)
	}
	best, ok := longest(cands)
	startLine, startCol := t.line, t.col
	if !ok {
		ch, _ := utf8.DecodeRuneInString(rest)
		err := &UnrecognizedCharacterError{Char: ch, Span: t.span(startLine, startCol)}
		if ch == '"' {
			err.Hint = "unterminated string literal"
		}
		return TokenExt{}, err
	}

	content := rest[:best.length]
	t.advance(best.length)
	return TokenExt{
		Token:  best.token,
		Lexeme: Lexeme{Content: content, Span: t.span(startLine, startCol)},
	}, nil
}

// Tokenize breaks source code into a slice of tokens.
func Tokenize(source string, src ast.Source) ([]TokenExt, error) {
	t := NewTokenizer(source, src)
	var tokens []TokenExt

	for {
		tok, err := t.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}

	return tokens, nil
}
