package prover

import (
	"gprover/internal/smt"
	"gprover/internal/syntax"
)

type builtin func(c *Context, call *syntax.Call, args []*smt.Term) (*smt.Term, error)

var builtins = map[string]builtin{
	"len":   builtinLen,
	"abs":   builtinAbs,
	"min":   builtinMin,
	"max":   builtinMax,
	"float": builtinFloat,
	"int":   builtinInt,
}

func (c *Context) evalArgs(exprs []syntax.Expr) ([]*smt.Term, error) {
	args := make([]*smt.Term, 0, len(exprs))
	for _, e := range exprs {
		v, err := c.Eval(e)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (c *Context) evalCall(e *syntax.Call) (*smt.Term, error) {
	switch fn := e.Func.(type) {
	case *syntax.Attribute:
		return c.evalMethod(e, fn)
	case *syntax.Name:
		if c.Scope.Has(fn.ID) {
			return nil, unsupported(e, "call of local %s", fn.ID)
		}
		def, ok := c.Resolver.InferOne(fn)
		if !ok || def.Module != syntax.BuiltinsModule || builtins[def.Name] == nil {
			return nil, unsupported(e, "call to %s", fn.ID)
		}
		args, err := c.evalArgs(e.Args)
		if err != nil {
			return nil, err
		}
		return builtins[def.Name](c, e, args)
	}
	return nil, unsupported(e, "call to %s", e.Func)
}

func (c *Context) evalMethod(e *syntax.Call, fn *syntax.Attribute) (*smt.Term, error) {
	recv, err := c.Eval(fn.Value)
	if err != nil {
		return nil, err
	}
	args, err := c.evalArgs(e.Args)
	if err != nil {
		return nil, err
	}
	if recv.Sort().Kind == smt.KindString && len(args) == 1 && args[0].Sort().Kind == smt.KindString {
		switch fn.Attr {
		case "startswith":
			return smt.StrPrefixOf(args[0], recv), nil
		case "endswith":
			return smt.StrSuffixOf(args[0], recv), nil
		}
	}
	return nil, unsupported(e, "method %s of %s", fn.Attr, recv.Sort())
}

func builtinLen(_ *Context, call *syntax.Call, args []*smt.Term) (*smt.Term, error) {
	if len(args) == 1 {
		switch args[0].Sort().Kind {
		case smt.KindString:
			return smt.StrLen(args[0]), nil
		case smt.KindSeq:
			return smt.SeqLen(args[0]), nil
		}
	}
	return nil, unsupported(call, "len of %s", call.Args)
}

func builtinAbs(_ *Context, call *syntax.Call, args []*smt.Term) (*smt.Term, error) {
	if len(args) != 1 || !args[0].Sort().IsNumeric() {
		return nil, unsupported(call, "abs with %d arguments", len(args))
	}
	x := args[0]
	return smt.Ite(smt.Lt(x, zero(x.Sort())), smt.Neg(x), x), nil
}

func builtinMin(_ *Context, call *syntax.Call, args []*smt.Term) (*smt.Term, error) {
	return minMax("min", call, args)
}

func builtinMax(_ *Context, call *syntax.Call, args []*smt.Term) (*smt.Term, error) {
	return minMax("max", call, args)
}

// minMax keeps the first of equal candidates.
func minMax(name string, call *syntax.Call, args []*smt.Term) (*smt.Term, error) {
	if len(args) < 2 {
		return nil, unsupported(call, "%s of a single iterable", name)
	}
	anyReal := false
	for _, arg := range args {
		if !arg.Sort().IsNumeric() {
			return nil, unsupported(call, "%s of %s", name, arg.Sort())
		}
		anyReal = anyReal || arg.Sort().Kind == smt.KindReal
	}
	if anyReal {
		for i := range args {
			args[i] = smt.ToReal(args[i])
		}
	}
	acc := args[0]
	for _, x := range args[1:] {
		if name == "min" {
			acc = smt.Ite(smt.Lt(x, acc), x, acc)
		} else {
			acc = smt.Ite(smt.Gt(x, acc), x, acc)
		}
	}
	return acc, nil
}

func builtinFloat(_ *Context, call *syntax.Call, args []*smt.Term) (*smt.Term, error) {
	if len(args) == 1 && args[0].Sort().IsNumeric() {
		return smt.ToReal(args[0]), nil
	}
	return nil, unsupported(call, "float of %s", call.Args)
}

// builtinInt truncates toward zero.
func builtinInt(_ *Context, call *syntax.Call, args []*smt.Term) (*smt.Term, error) {
	if len(args) != 1 || !args[0].Sort().IsNumeric() {
		return nil, unsupported(call, "int of %s", call.Args)
	}
	x := args[0]
	if x.Sort().Kind == smt.KindInt {
		return x, nil
	}
	return smt.Ite(smt.Ge(x, zero(smt.RealSort)),
		smt.ToInt(x),
		smt.Neg(smt.ToInt(smt.Neg(x)))), nil
}
