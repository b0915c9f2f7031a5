// internal/service/promotion/infrastructure/rule/cel_engine.go
package rule

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"shopcore/internal/service/promotion/domain"
)

// CELRuleEngine 是 domain.RuleEngine 的 cel-go 实现。
// 规则是 CEL 表达式，对 `fact` 变量求值，必须返回 bool，
// 例如: fact.totalPrice >= 50000 && fact.itemCount >= 2。
// 编译结果按表达式缓存。
type CELRuleEngine struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

func NewCELRuleEngine() (*CELRuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("fact", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &CELRuleEngine{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Evaluate 实现 domain.RuleEngine。空规则恒为 true。
func (e *CELRuleEngine) Evaluate(rule string, fact domain.Fact) (bool, error) {
	if rule == "" {
		return true, nil
	}

	prg, err := e.program(rule)
	if err != nil {
		return false, err
	}

	// 经 JSON 过一道，让 CEL 看到的字段名与领域对象的 json tag 一致
	data, err := json.Marshal(fact)
	if err != nil {
		return false, err
	}
	var factMap map[string]interface{}
	if err := json.Unmarshal(data, &factMap); err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]interface{}{"fact": factMap})
	if err != nil {
		return false, fmt.Errorf("rule evaluation failed: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q did not evaluate to a boolean", rule)
	}
	return result, nil
}

func (e *CELRuleEngine) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := e.env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("invalid rule expression: %w", iss.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build rule program: %w", err)
	}

	e.mu.Lock()
	e.programs[expr] = prg
	e.mu.Unlock()
	return prg, nil
}
