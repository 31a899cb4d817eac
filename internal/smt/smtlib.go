package smt

import (
	"fmt"
	"math/big"
	"strings"
)

// SMTLIB renders the term as an SMT-LIB2 expression.
func (t *Term) SMTLIB() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Term) write(b *strings.Builder) {
	switch t.op {
	case OpConst:
		b.WriteString(quoteSymbol(t.name))
		return
	case OpLit:
		writeLiteral(b, t.lit)
		return
	case OpSeqEmpty:
		fmt.Fprintf(b, "(as seq.empty %s)", t.sort.SMTLIB())
		return
	case OpSetEmpty:
		fmt.Fprintf(b, "((as const %s) false)", t.sort.SMTLIB())
		return
	case OpSetInsert:
		b.WriteString("(store ")
		t.args[0].write(b)
		b.WriteByte(' ')
		t.args[1].write(b)
		b.WriteString(" true)")
		return
	}
	b.WriteByte('(')
	if t.op == OpNeg {
		b.WriteString("-")
	} else {
		b.WriteString(string(t.op))
	}
	for _, arg := range t.args {
		b.WriteByte(' ')
		arg.write(b)
	}
	b.WriteByte(')')
}

func writeLiteral(b *strings.Builder, lit interface{}) {
	switch v := lit.(type) {
	case bool:
		if v {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case *big.Int:
		if v.Sign() < 0 {
			fmt.Fprintf(b, "(- %s)", new(big.Int).Neg(v).String())
		} else {
			b.WriteString(v.String())
		}
	case *big.Rat:
		num := new(big.Int).Abs(v.Num())
		var r string
		if v.IsInt() {
			r = num.String() + ".0"
		} else {
			r = fmt.Sprintf("(/ %s.0 %s.0)", num.String(), v.Denom().String())
		}
		if v.Sign() < 0 {
			r = "(- " + r + ")"
		}
		b.WriteString(r)
	case string:
		b.WriteString(QuoteString(v))
	default:
		panic(fmt.Sprintf("smt: unknown literal %T", lit))
	}
}

// QuoteString renders s as an SMT-LIB2 string literal. Quotes are doubled;
// backslashes and non printable characters use the \u{..} escape.
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			b.WriteString(`""`)
		case r == '\\' || r < 0x20 || r > 0x7e:
			fmt.Fprintf(&b, `\u{%x}`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func quoteSymbol(name string) string {
	if name == "" || name[0] >= '0' && name[0] <= '9' || name[0] == '@' {
		return "|" + strings.ReplaceAll(name, "|", "_") + "|"
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			strings.ContainsRune("_.@$%&!?^~*+-/<>=", r)) {
			return "|" + strings.ReplaceAll(name, "|", "_") + "|"
		}
	}
	return name
}

// Declaration renders the declare-const command for a constant.
func Declaration(c *Term) string {
	return fmt.Sprintf("(declare-const %s %s)", quoteSymbol(c.name), c.sort.SMTLIB())
}

// Script renders a complete query: declarations, one assert per formula.
// checkSat appends (check-sat) and (get-model) for use with a standalone solver.
func Script(decls []*Term, formulas []*Term, checkSat bool) string {
	var b strings.Builder
	for _, d := range decls {
		b.WriteString(Declaration(d))
		b.WriteByte('\n')
	}
	for _, f := range formulas {
		b.WriteString("(assert ")
		f.write(&b)
		b.WriteString(")\n")
	}
	if checkSat {
		b.WriteString("(check-sat)\n(get-model)\n")
	}
	return b.String()
}
