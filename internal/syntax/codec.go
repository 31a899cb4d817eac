package syntax

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

type unitJSON struct {
	Name        string                      `json:"name"`
	Functions   []functionJSON              `json:"functions"`
	Definitions map[string][]definitionJSON `json:"definitions"`
}

type functionJSON struct {
	Name      string            `json:"name"`
	Line      int               `json:"line"`
	Col       int               `json:"col"`
	Params    []paramJSON       `json:"params"`
	Returns   json.RawMessage   `json:"returns"`
	Body      []json.RawMessage `json:"body"`
	Contracts []contractJSON    `json:"contracts"`
}

type paramJSON struct {
	Name       string          `json:"name"`
	Annotation json.RawMessage `json:"annotation"`
}

type contractJSON struct {
	Category  string          `json:"category"`
	Predicate json.RawMessage `json:"predicate"`
}

type definitionJSON struct {
	Module string          `json:"module"`
	Name   string          `json:"name"`
	Value  json.RawMessage `json:"value"`
}

// nodeJSON is the union of every field an Expr or Stmt node may carry.
type nodeJSON struct {
	Kind        string            `json:"kind"`
	Line        int               `json:"line"`
	Col         int               `json:"col"`
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Value       json.RawMessage   `json:"value"`
	Op          string            `json:"op"`
	Ops         []string          `json:"ops"`
	Operand     json.RawMessage   `json:"operand"`
	Left        json.RawMessage   `json:"left"`
	Right       json.RawMessage   `json:"right"`
	Values      []json.RawMessage `json:"values"`
	Comparators []json.RawMessage `json:"comparators"`
	Test        json.RawMessage   `json:"test"`
	Body        json.RawMessage   `json:"body"`
	OrElse      json.RawMessage   `json:"orelse"`
	Func        json.RawMessage   `json:"func"`
	Args        []json.RawMessage `json:"args"`
	Attr        string            `json:"attr"`
	Slice       json.RawMessage   `json:"slice"`
	Elts        []json.RawMessage `json:"elts"`
	Params      []string          `json:"params"`
	Targets     []json.RawMessage `json:"targets"`
	Target      json.RawMessage   `json:"target"`
	Annotation  json.RawMessage   `json:"annotation"`
	Msg         json.RawMessage   `json:"msg"`
	Exc         json.RawMessage   `json:"exc"`
	Iter        json.RawMessage   `json:"iter"`
}

// DecodeUnit reads one unit as serialized by the extraction front-end.
func DecodeUnit(r io.Reader) (*Unit, error) {
	var raw unitJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrapf(err, "decode unit")
	}
	unit := &Unit{
		Name:     raw.Name,
		Resolver: NewResolver(),
	}
	for name, defs := range raw.Definitions {
		for _, d := range defs {
			value, err := decodeOptExpr(d.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "definition %s", name)
			}
			unit.Resolver.Define(name, Definition{Module: d.Module, Name: d.Name, Value: value})
		}
	}
	for i := range raw.Functions {
		fn, err := decodeFunction(&raw.Functions[i])
		if err != nil {
			return nil, errors.Wrapf(err, "function %s", raw.Functions[i].Name)
		}
		fn.Resolver = unit.Resolver
		unit.Functions = append(unit.Functions, fn)
	}
	return unit, nil
}

func decodeFunction(raw *functionJSON) (*Function, error) {
	fn := &Function{
		Name: raw.Name,
		Pos:  Pos{Line: raw.Line, Col: raw.Col},
	}
	for _, p := range raw.Params {
		ann, err := decodeOptExpr(p.Annotation)
		if err != nil {
			return nil, errors.Wrapf(err, "param %s", p.Name)
		}
		fn.Params = append(fn.Params, Param{Name: p.Name, Annotation: ann})
	}
	returns, err := decodeOptExpr(raw.Returns)
	if err != nil {
		return nil, errors.Wrapf(err, "returns")
	}
	fn.Returns = returns
	if fn.Body, err = decodeStmts(raw.Body); err != nil {
		return nil, err
	}
	for _, c := range raw.Contracts {
		pred, err := decodeExpr(c.Predicate)
		if err != nil {
			return nil, errors.Wrapf(err, "contract %s", c.Category)
		}
		fn.Contracts = append(fn.Contracts, Contract{Category: c.Category, Predicate: pred})
	}
	return fn, nil
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

func decodeOptExpr(data json.RawMessage) (Expr, error) {
	if isNull(data) {
		return nil, nil
	}
	return decodeExpr(data)
}

func decodeExprs(items []json.RawMessage) ([]Expr, error) {
	out := make([]Expr, 0, len(items))
	for _, item := range items {
		e, err := decodeExpr(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeExpr(data json.RawMessage) (Expr, error) {
	if isNull(data) {
		return nil, errors.New("missing expression")
	}
	var n nodeJSON
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, errors.Wrapf(err, "expression")
	}
	at := Pos{Line: n.Line, Col: n.Col}
	switch n.Kind {
	case "Name":
		return &Name{At: at, ID: n.ID}, nil
	case "Const", "Constant":
		value, err := decodeConst(n.Type, n.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "const at %s", at)
		}
		return &Const{At: at, Value: value}, nil
	case "UnaryOp":
		operand, err := decodeExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{At: at, Op: n.Op, Operand: operand}, nil
	case "BinOp":
		left, err := decodeExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return &BinOp{At: at, Op: n.Op, Left: left, Right: right}, nil
	case "BoolOp":
		values, err := decodeExprs(n.Values)
		if err != nil {
			return nil, err
		}
		return &BoolOp{At: at, Op: n.Op, Values: values}, nil
	case "Compare":
		left, err := decodeExpr(n.Left)
		if err != nil {
			return nil, err
		}
		comparators, err := decodeExprs(n.Comparators)
		if err != nil {
			return nil, err
		}
		if len(comparators) != len(n.Ops) {
			return nil, errors.Errorf("compare at %s: %d ops for %d comparators", at, len(n.Ops), len(comparators))
		}
		return &Compare{At: at, Left: left, Ops: n.Ops, Comparators: comparators}, nil
	case "IfExp":
		test, err := decodeExpr(n.Test)
		if err != nil {
			return nil, err
		}
		body, err := decodeExpr(n.Body)
		if err != nil {
			return nil, err
		}
		orElse, err := decodeExpr(n.OrElse)
		if err != nil {
			return nil, err
		}
		return &IfExp{At: at, Test: test, Body: body, OrElse: orElse}, nil
	case "Call":
		fn, err := decodeExpr(n.Func)
		if err != nil {
			return nil, err
		}
		args, err := decodeExprs(n.Args)
		if err != nil {
			return nil, err
		}
		return &Call{At: at, Func: fn, Args: args}, nil
	case "Attribute":
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &Attribute{At: at, Value: value, Attr: n.Attr}, nil
	case "Subscript":
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		slice, err := decodeExpr(n.Slice)
		if err != nil {
			return nil, err
		}
		return &Subscript{At: at, Value: value, Slice: slice}, nil
	case "List", "Set", "Tuple":
		elts, err := decodeExprs(n.Elts)
		if err != nil {
			return nil, err
		}
		switch n.Kind {
		case "List":
			return &List{At: at, Elts: elts}, nil
		case "Set":
			return &Set{At: at, Elts: elts}, nil
		default:
			return &Tuple{At: at, Elts: elts}, nil
		}
	case "Lambda":
		body, err := decodeExpr(n.Body)
		if err != nil {
			return nil, err
		}
		return &Lambda{At: at, Params: n.Params, Body: body}, nil
	case "":
		return nil, errors.Errorf("expression at %s has no kind", at)
	default:
		return &UnknownExpr{At: at, Kind: n.Kind}, nil
	}
}

// decodeConst turns a JSON literal into a Const value. typ disambiguates
// numbers ("int" or "float"); without it, a number containing a fraction or
// exponent is a float.
func decodeConst(typ string, data json.RawMessage) (interface{}, error) {
	if isNull(data) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case bool, string:
		return v, nil
	case json.Number:
		text := v.String()
		isFloat := typ == "float" || (typ == "" && strings.ContainsAny(text, ".eE"))
		if isFloat {
			r, ok := new(big.Rat).SetString(text)
			if !ok {
				return nil, errors.Errorf("bad float literal %q", text)
			}
			return r, nil
		}
		i, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, errors.Errorf("bad int literal %q", text)
		}
		return i, nil
	default:
		return nil, errors.Errorf("unsupported literal %s", string(data))
	}
}

func decodeStmts(items []json.RawMessage) ([]Stmt, error) {
	out := make([]Stmt, 0, len(items))
	for _, item := range items {
		s, err := decodeStmt(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeStmtBlock(data json.RawMessage) ([]Stmt, error) {
	if isNull(data) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrapf(err, "statement block")
	}
	return decodeStmts(items)
}

func decodeStmt(data json.RawMessage) (Stmt, error) {
	var n nodeJSON
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, errors.Wrapf(err, "statement")
	}
	at := Pos{Line: n.Line, Col: n.Col}
	switch n.Kind {
	case "Assign":
		targets, err := decodeExprs(n.Targets)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &Assign{At: at, Targets: targets, Value: value}, nil
	case "AugAssign":
		target, err := decodeExpr(n.Target)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &AugAssign{At: at, Target: target, Op: n.Op, Value: value}, nil
	case "AnnAssign":
		target, err := decodeExpr(n.Target)
		if err != nil {
			return nil, err
		}
		ann, err := decodeExpr(n.Annotation)
		if err != nil {
			return nil, err
		}
		value, err := decodeOptExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &AnnAssign{At: at, Target: target, Annotation: ann, Value: value}, nil
	case "Return":
		value, err := decodeOptExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &Return{At: at, Value: value}, nil
	case "If", "While":
		test, err := decodeExpr(n.Test)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmtBlock(n.Body)
		if err != nil {
			return nil, err
		}
		orElse, err := decodeStmtBlock(n.OrElse)
		if err != nil {
			return nil, err
		}
		if n.Kind == "If" {
			return &If{At: at, Test: test, Body: body, OrElse: orElse}, nil
		}
		return &While{At: at, Test: test, Body: body, OrElse: orElse}, nil
	case "For":
		target, err := decodeExpr(n.Target)
		if err != nil {
			return nil, err
		}
		iter, err := decodeExpr(n.Iter)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmtBlock(n.Body)
		if err != nil {
			return nil, err
		}
		orElse, err := decodeStmtBlock(n.OrElse)
		if err != nil {
			return nil, err
		}
		return &For{At: at, Target: target, Iter: iter, Body: body, OrElse: orElse}, nil
	case "Assert":
		test, err := decodeExpr(n.Test)
		if err != nil {
			return nil, err
		}
		msg, err := decodeOptExpr(n.Msg)
		if err != nil {
			return nil, err
		}
		return &Assert{At: at, Test: test, Msg: msg}, nil
	case "Expr":
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{At: at, Value: value}, nil
	case "Pass":
		return &Pass{At: at}, nil
	case "Raise":
		exc, err := decodeOptExpr(n.Exc)
		if err != nil {
			return nil, err
		}
		return &Raise{At: at, Exc: exc}, nil
	case "":
		return nil, errors.Errorf("statement at %s has no kind", at)
	default:
		return &UnknownStmt{At: at, Kind: n.Kind}, nil
	}
}
