// internal/service/orders/infrastructure/rule/cel_rules_engine.go
package rule

import (
	"context"

	"fixflow/internal/pkg/apperrors"

	"github.com/google/cel-go/cel"
)

// DefaultReviewRule 注册中心 KV 没有下发规则时的兜底表达式。
const DefaultReviewRule = `total_price >= 5000.0 || item_count > 20`

// CELRulesEngine 用一条 CEL 表达式判定订单是否需要人工复核。
// 表达式在构造时编译一次，之后每单求值，表达式变更需要重建引擎。
type CELRulesEngine struct {
	program cel.Program
}

// NewCELRulesEngine 编译规则表达式。表达式必须返回 bool。
func NewCELRulesEngine(expr string) (*CELRulesEngine, error) {
	if expr == "" {
		expr = DefaultReviewRule
	}
	env, err := cel.NewEnv(
		cel.Variable("user_id", cel.StringType),
		cel.Variable("total_price", cel.DoubleType),
		cel.Variable("item_count", cel.IntType),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDependency, err, "failed to build rule environment")
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, issues.Err(), "invalid review rule expression")
	}
	if ast.OutputType() != cel.BoolType {
		return nil, apperrors.Newf(apperrors.KindValidation, "review rule must return bool, got %s", ast.OutputType())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "failed to compile review rule")
	}
	return &CELRulesEngine{program: program}, nil
}

// RequiresReview 对一张订单的事实求值。
func (e *CELRulesEngine) RequiresReview(_ context.Context, fact map[string]interface{}) (bool, error) {
	out, _, err := e.program.Eval(fact)
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindDependency, err, "review rule evaluation failed")
	}
	flagged, ok := out.Value().(bool)
	if !ok {
		return false, apperrors.New(apperrors.KindDependency, "review rule returned a non-bool value")
	}
	return flagged, nil
}
