package expr

import (
	"strings"
	"unicode"
)

// Format renders e as SQL text for plan printing and diagnostics.
func Format(e Expression) string {
	var b strings.Builder
	format(&b, e)
	return b.String()
}

func format(b *strings.Builder, e Expression) {
	switch n := e.(type) {
	case *NullLiteral:
		b.WriteString("null")
	case *BooleanLiteral:
		if n.Value {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case *LongLiteral:
		b.WriteString(n.Value)
	case *GenericLiteral:
		b.WriteString(strings.ToUpper(n.Type))
		b.WriteByte(' ')
		b.WriteString(quoteString(n.Value))
	case *DoubleLiteral:
		b.WriteString(doubleText(n.Value))
	case *DecimalLiteral:
		b.WriteString("DECIMAL ")
		b.WriteString(quoteString(n.Value))
	case *StringLiteral:
		b.WriteString(quoteString(n.Value))
	case *Cast:
		if n.Safe {
			b.WriteString("TRY_CAST(")
		} else {
			b.WriteString("CAST(")
		}
		format(b, n.Expression)
		b.WriteString(" AS ")
		b.WriteString(n.Type)
		b.WriteByte(')')
	case *FunctionCall:
		b.WriteString(quoteIdentifier(n.Name))
		b.WriteByte('(')
		for i, arg := range n.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, arg.Value)
		}
		b.WriteByte(')')
	case *ArithmeticUnary:
		b.WriteString(string(n.Sign))
		format(b, n.Value)
	case nil:
		b.WriteString("<nil>")
	}
}

// doubleText makes sure a double literal lexes as a double and not as an
// integer or exact decimal.
func doubleText(s string) string {
	if strings.ContainsAny(s, "eE") {
		return strings.ToUpper(s)
	}
	return s + "E0"
}

// quoteString renders a SQL string literal. Strings holding non-printable
// characters use the U&'...' escape form so the output stays on one line.
func quoteString(s string) string {
	printable := true
	for _, r := range s {
		if !unicode.IsPrint(r) {
			printable = false
			break
		}
	}
	if printable {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}

	var b strings.Builder
	b.WriteString("U&'")
	for _, r := range s {
		switch {
		case r == '\'':
			b.WriteString("''")
		case r == '\\':
			b.WriteString(`\\`)
		case unicode.IsPrint(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
		case r <= 0xFFFF:
			b.WriteString(`\`)
			b.WriteString(hex4(r))
		default:
			b.WriteString(`\+`)
			b.WriteString(hex6(r))
		}
	}
	b.WriteByte('\'')
	return b.String()
}

const hexDigits = "0123456789ABCDEF"

func hex4(r rune) string {
	return string([]byte{hexDigits[r>>12&0xF], hexDigits[r>>8&0xF], hexDigits[r>>4&0xF], hexDigits[r&0xF]})
}

func hex6(r rune) string {
	return string([]byte{hexDigits[r>>20&0xF], hexDigits[r>>16&0xF], hexDigits[r>>12&0xF], hexDigits[r>>8&0xF], hexDigits[r>>4&0xF], hexDigits[r&0xF]})
}

// quoteIdentifier double-quotes names that are not plain identifiers, such as
// the $literal$ reconstruction functions.
func quoteIdentifier(name string) string {
	plain := name != ""
	for i, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		plain = false
		break
	}
	if plain {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
