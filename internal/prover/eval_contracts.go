package prover

import (
	"gprover/internal/smt"
	"gprover/internal/syntax"
)

// ResultName is the name a postcondition uses for the returned value.
const ResultName = "result"

// Contracts holds one goal per category: the conjunction of every declared
// predicate of that category, true when there are none.
type Contracts struct {
	Pre  *smt.Term
	Post *smt.Term
}

// EvalContracts evaluates the pre and post predicates of fn against the
// scope of ctx, which must already bind the arguments. result is bound for
// post predicates; it is nil when the function returns no value.
func EvalContracts(fn *syntax.Function, ctx *Context, result *smt.Term) (*Contracts, error) {
	pre, err := evalGoal(fn, ctx, syntax.CategoryPre, nil)
	if err != nil {
		return nil, err
	}
	post, err := evalGoal(fn, ctx, syntax.CategoryPost, result)
	if err != nil {
		return nil, err
	}
	return &Contracts{Pre: pre, Post: post}, nil
}

func evalGoal(fn *syntax.Function, ctx *Context, category string, result *smt.Term) (*smt.Term, error) {
	var goals []*smt.Term
	for _, contract := range fn.ContractsOf(category) {
		fork := ctx.Fork()
		fork.Expected = nil
		if result != nil {
			fork.Scope.Set(ResultName, result)
		}
		value, err := evalPredicate(fn, fork, category, contract.Predicate, result)
		if err != nil {
			return nil, err
		}
		// a predicate that fails to evaluate does not hold
		goals = append(goals, fork.Expected...)
		goals = append(goals, value)
	}
	return smt.And(goals...), nil
}

func evalPredicate(fn *syntax.Function, ctx *Context, category string, pred syntax.Expr, result *smt.Term) (*smt.Term, error) {
	// a named contract defined at module level
	if name, ok := pred.(*syntax.Name); ok && !ctx.Scope.Has(name.ID) {
		if def, ok := ctx.Resolver.InferOne(name); ok {
			if lambda, ok := def.Value.(*syntax.Lambda); ok {
				pred = lambda
			}
		}
	}
	body := pred
	if lambda, ok := pred.(*syntax.Lambda); ok {
		var err error
		if category == syntax.CategoryPost {
			err = bindResult(ctx, lambda, result)
		} else {
			err = bindArguments(fn, ctx, lambda)
		}
		if err != nil {
			return nil, err
		}
		body = lambda.Body
	}
	value, err := ctx.Eval(body)
	if err != nil {
		return nil, err
	}
	return truthy(body, value)
}

// bindArguments binds the lambda parameters to the function arguments, by
// name when every parameter names an argument, else by position.
func bindArguments(fn *syntax.Function, ctx *Context, lambda *syntax.Lambda) error {
	byName := true
	for _, param := range lambda.Params {
		if !ctx.Scope.Has(param) || !isParam(fn, param) {
			byName = false
			break
		}
	}
	if byName {
		return nil
	}
	if len(lambda.Params) != len(fn.Params) {
		return unsupported(lambda, "contract with %d parameters for %d arguments", len(lambda.Params), len(fn.Params))
	}
	values := make([]*smt.Term, len(fn.Params))
	for i, param := range fn.Params {
		v, err := ctx.Scope.Get(param.Name)
		if err != nil {
			return err
		}
		values[i] = v
	}
	for i, name := range lambda.Params {
		ctx.Scope.Set(name, values[i])
	}
	return nil
}

func bindResult(ctx *Context, lambda *syntax.Lambda, result *smt.Term) error {
	if len(lambda.Params) != 1 {
		return unsupported(lambda, "postcondition with %d parameters", len(lambda.Params))
	}
	if result == nil {
		return unsupported(lambda, "postcondition of a function without a return value")
	}
	ctx.Scope.Set(lambda.Params[0], result)
	return nil
}

func isParam(fn *syntax.Function, name string) bool {
	for _, p := range fn.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}
