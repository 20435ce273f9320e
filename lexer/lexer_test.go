package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semi-lang/semi/alloc"
	"github.com/semi-lang/semi/errid"
)

func kinds(t *testing.T, src string) []Kind {
	t.Helper()
	l := New([]byte(src), alloc.NewInterner())
	var out []Kind
	for {
		tok := l.Next()
		out = append(out, tok.Kind)
		if tok.Kind == EOF {
			return out
		}
	}
}

func TestSingleCharacterOperators(t *testing.T) {
	got := kinds(t, "+ - * / % & | ^ ~ ! ? : = , . ( ) { } [ ]")
	require.Equal(t, []Kind{
		PLUS, MINUS, STAR, SLASH, PERCENT, AMPERSAND, PIPE, CARET, TILDE,
		BANG, QUESTION, COLON, ASSIGN, COMMA, DOT, LPAREN, RPAREN, LBRACE,
		RBRACE, LBRACKET, RBRACKET, EOF,
	}, got)
}

func TestMultiCharacterOperators(t *testing.T) {
	got := kinds(t, "** // == != <= >= ?. >> <<")
	require.Equal(t, []Kind{
		STAR_STAR, SLASH_SLASH, EQ, NEQ, LE, GE, QUESTION_DOT,
		SHR, SHL, EOF,
	}, got)
}

func TestKeywords(t *testing.T) {
	got := kinds(t, "and or in is if elif else for import export as defer fn return raise break step struct true false")
	require.Equal(t, []Kind{
		AND, OR, IN, IS, IF, ELIF, ELSE, FOR, IMPORT, EXPORT, AS, DEFER,
		FN, RETURN, RAISE, BREAK, STEP, STRUCT, TRUE, FALSE, EOF,
	}, got)
}

func TestNewlineSeparator(t *testing.T) {
	got := kinds(t, "a\nb")
	require.Equal(t, []Kind{IDENT, SEPARATOR, IDENT, EOF}, got)
}

func TestIgnoreSeparatorsSuppressesNewline(t *testing.T) {
	l := New([]byte("a\nb"), alloc.NewInterner())
	l.SetIgnoreSeparators(true)
	require.Equal(t, IDENT, l.Next().Kind)
	require.Equal(t, IDENT, l.Next().Kind)
	require.Equal(t, EOF, l.Next().Kind)
}

func TestDecimalBinaryOctalHex(t *testing.T) {
	l := New([]byte("42 0b101 0o17 0xFF"), alloc.NewInterner())
	for _, want := range []int64{42, 5, 15, 255} {
		tok := l.Next()
		require.Equal(t, INT, tok.Kind)
		require.Equal(t, want, tok.IntVal)
	}
	require.Equal(t, EOF, l.Next().Kind)
}

func TestUnderscoreSeparatedDigits(t *testing.T) {
	l := New([]byte("1_000 0b1010_1010 3.14_159"), alloc.NewInterner())
	tok := l.Next()
	require.Equal(t, int64(1000), tok.IntVal)
	tok = l.Next()
	require.Equal(t, int64(0xAA), tok.IntVal)
	tok = l.Next()
	require.Equal(t, FLOAT, tok.Kind)
	require.InDelta(t, 3.14159, tok.FloatVal, 1e-9)
}

func TestRangeDotsNotTrailingFloat(t *testing.T) {
	got := kinds(t, "1..4")
	require.Equal(t, []Kind{INT, DOT_DOT, INT, EOF}, got)
}

func TestFloatDotsRangeNotConfusedWithTrailingDot(t *testing.T) {
	l := New([]byte("0.1..0.4"), alloc.NewInterner())
	first := l.Next()
	require.Equal(t, FLOAT, first.Kind)
	require.InDelta(t, 0.1, first.FloatVal, 1e-9)
	require.Equal(t, DOT_DOT, l.Next().Kind)
	second := l.Next()
	require.Equal(t, FLOAT, second.Kind)
	require.InDelta(t, 0.4, second.FloatVal, 1e-9)
}

func TestInvalidNumberLiterals(t *testing.T) {
	cases := []string{"0b2", "0o8", "0xG", "1.", "1e", "1e+"}
	for _, src := range cases {
		l := New([]byte(src), alloc.NewInterner())
		require.Equal(t, EOF, l.Next().Kind)
		require.NotNil(t, l.Err())
	}
}

func TestStringEscapes(t *testing.T) {
	l := New([]byte(`"\"" "\n" "\r" "\t" "\0" "\'"`), alloc.NewInterner())
	want := [][]byte{{'"'}, {'\n'}, {'\r'}, {'\t'}, {0}, {'\''}}
	for _, w := range want {
		tok := l.Next()
		require.Equal(t, STRING, tok.Kind)
		require.Equal(t, w, tok.StringVal)
	}
}

func TestUnclosedStringAtEOF(t *testing.T) {
	l := New([]byte(`"unclosed`), alloc.NewInterner())
	require.Equal(t, EOF, l.Next().Kind)
	require.Equal(t, errid.UnclosedString, l.Err().ID)
}

func TestUnclosedStringOnNewline(t *testing.T) {
	l := New([]byte("\"hello\nworld\""), alloc.NewInterner())
	require.Equal(t, EOF, l.Next().Kind)
	require.Equal(t, errid.UnclosedString, l.Err().ID)
}

func TestIncompleteAndUnknownEscape(t *testing.T) {
	l := New([]byte(`"hello\`), alloc.NewInterner())
	require.Equal(t, EOF, l.Next().Kind)
	require.Equal(t, errid.IncompleteStringEscape, l.Err().ID)

	l2 := New([]byte(`"hello\z"`), alloc.NewInterner())
	require.Equal(t, EOF, l2.Next().Kind)
	require.Equal(t, errid.UnknownStringEscape, l2.Err().ID)
}

func TestErrorLatchesToEOF(t *testing.T) {
	l := New([]byte(`0b2 + 1`), alloc.NewInterner())
	require.Equal(t, EOF, l.Next().Kind)
	require.Equal(t, EOF, l.Next().Kind)
	require.Equal(t, errid.InvalidNumberLiteral, l.Err().ID)
}

func TestInvalidUTF8Latches(t *testing.T) {
	l := New([]byte{0xFF, 0xFE, 'a'}, alloc.NewInterner())
	require.Equal(t, EOF, l.Next().Kind)
	require.Equal(t, errid.InvalidUTF8, l.Err().ID)
}

func TestIdentifierTooLong(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	l := New(long, alloc.NewInterner())
	require.Equal(t, EOF, l.Next().Kind)
	require.Equal(t, errid.IdentifierTooLong, l.Err().ID)
}

func TestTypeIdentifierFlag(t *testing.T) {
	l := New([]byte("Point point"), alloc.NewInterner())
	a := l.Next()
	require.True(t, a.IsTypeIdent)
	b := l.Next()
	require.False(t, b.IsTypeIdent)
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := New([]byte("fn foo"), alloc.NewInterner())
	require.Equal(t, FN, l.Peek().Kind)
	require.Equal(t, FN, l.Peek().Kind)
	require.Equal(t, FN, l.Next().Kind)
	require.Equal(t, IDENT, l.Next().Kind)
}
