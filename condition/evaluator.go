package condition

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/oliveagle/jsonpath"

	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/persistence"
	"github.com/mohitkumar/quorum/util"
)

// equals tolerance for time guards, in milliseconds.
const timeEqualsToleranceMs float64 = 60_000

// equals tolerance for approval rate guards.
const approvalRateTolerance float64 = 0.01

// Env bundles everything an evaluator may consult for one transition
// evaluation. Counts is loaded once per evaluation and shared by every
// count-style condition, so guard evaluation costs a single aggregate query
// instead of one round trip per condition.
type Env struct {
	Instance *model.ProcessInstance
	Schema   *model.ProcessSchema
	Counts   *persistence.InstanceCounts
	Now      time.Time
}

// Evaluator answers whether one guard condition holds for the instance right
// now. A nil return means the condition passes; the error carries a message a
// caller can render.
type Evaluator func(env *Env, cond model.TransitionCondition) error

// Registry maps the closed set of condition types to their evaluators.
type Registry struct {
	evaluators map[model.ConditionType]Evaluator
}

func NewRegistry() *Registry {
	r := &Registry{evaluators: make(map[model.ConditionType]Evaluator)}
	r.register(model.CONDITION_TYPE_TIME, evaluateTime)
	r.register(model.CONDITION_TYPE_PROPOSAL_COUNT, evaluateProposalCount)
	r.register(model.CONDITION_TYPE_PARTICIPATION_COUNT, evaluateParticipationCount)
	r.register(model.CONDITION_TYPE_APPROVAL_RATE, evaluateApprovalRate)
	r.register(model.CONDITION_TYPE_CUSTOM_FIELD, evaluateCustomField)
	return r
}

func (r *Registry) register(condType model.ConditionType, evaluator Evaluator) {
	r.evaluators[condType] = evaluator
}

func (r *Registry) Evaluate(env *Env, cond model.TransitionCondition) error {
	evaluator, ok := r.evaluators[cond.Type]
	if !ok {
		return fmt.Errorf("no evaluator for condition type %s", cond.Type)
	}
	return evaluator(env, cond)
}

// EvaluateRules runs every condition of a transition in order and combines
// the outcomes. No declared rules means unconditionally executable. A panic
// or error in one evaluator marks that condition failed and evaluation of
// siblings continues.
func (r *Registry) EvaluateRules(env *Env, rules *model.TransitionRules) (bool, []model.FailedRule) {
	if rules == nil || len(rules.Conditions) == 0 {
		return true, nil
	}
	var failed []model.FailedRule
	passedCount := 0
	for _, cond := range rules.Conditions {
		err := r.evaluateSafe(env, cond)
		if err != nil {
			failed = append(failed, model.FailedRule{RuleId: cond.Id, ErrorMessage: err.Error()})
		} else {
			passedCount++
		}
	}
	if rules.RequireAllConditions() {
		return len(failed) == 0, failed
	}
	return passedCount > 0, failed
}

func (r *Registry) evaluateSafe(env *Env, cond model.TransitionCondition) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("condition evaluator panicked: %v", p)
		}
	}()
	return r.Evaluate(env, cond)
}

// evaluateTime compares the time spent in the current state against the
// condition value in milliseconds. Missing entry data fails the condition, a
// guard never passes on missing data.
func evaluateTime(env *Env, cond model.TransitionCondition) error {
	currentState := env.Instance.ResolveCurrentState()
	enteredAt, ok := env.Instance.Data.EnteredAt(currentState)
	if !ok {
		return fmt.Errorf("no entry time recorded for state %s", currentState)
	}
	elapsedMs := float64(env.Now.Sub(enteredAt).Milliseconds())
	return compareNumber(fmt.Sprintf("time in state %s (ms)", currentState), elapsedMs, cond.Operator, cond.Value, timeEqualsToleranceMs)
}

func evaluateProposalCount(env *Env, cond model.TransitionCondition) error {
	if env.Counts == nil {
		return fmt.Errorf("no participation counts available")
	}
	return compareNumber("proposal count", float64(env.Counts.Proposals), cond.Operator, cond.Value, 0)
}

func evaluateParticipationCount(env *Env, cond model.TransitionCondition) error {
	if env.Counts == nil {
		return fmt.Errorf("no participation counts available")
	}
	return compareNumber("participant count", float64(env.Counts.DistinctVoters), cond.Operator, cond.Value, 0)
}

// evaluateApprovalRate compares approved decisions over total decisions. Zero
// recorded decisions fails the condition.
func evaluateApprovalRate(env *Env, cond model.TransitionCondition) error {
	if env.Counts == nil {
		return fmt.Errorf("no participation counts available")
	}
	if env.Counts.Decisions == 0 {
		return fmt.Errorf("no decisions recorded yet")
	}
	rate := float64(env.Counts.Approvals) / float64(env.Counts.Decisions)
	return compareNumber("approval rate", rate, cond.Operator, cond.Value, approvalRateTolerance)
}

// evaluateCustomField reads an instance field value. equals is an exact match
// of any type; ordered comparisons require both sides numeric. A field name
// starting with $ is resolved as a jsonpath into the field values.
func evaluateCustomField(env *Env, cond model.TransitionCondition) error {
	fieldValues := env.Instance.Data.FieldValues
	var actual any
	var found bool
	if strings.HasPrefix(cond.Field, "$") {
		value, err := jsonpath.JsonPathLookup(map[string]any(fieldValues), cond.Field)
		actual, found = value, err == nil
	} else {
		actual, found = fieldValues[cond.Field]
	}
	if !found {
		return fmt.Errorf("field %s is not set", cond.Field)
	}
	if cond.Operator == model.OPERATOR_EQUALS {
		if !reflect.DeepEqual(actual, cond.Value) {
			return fmt.Errorf("field %s is %v, requires %v", cond.Field, actual, cond.Value)
		}
		return nil
	}
	actualNum, ok := util.ToFloat64(actual)
	if !ok {
		return fmt.Errorf("field %s value %v is not numeric", cond.Field, actual)
	}
	if _, ok := util.ToFloat64(cond.Value); !ok && cond.Operator != model.OPERATOR_BETWEEN {
		return fmt.Errorf("condition value %v for field %s is not numeric", cond.Value, cond.Field)
	}
	return compareNumber(fmt.Sprintf("field %s", cond.Field), actualNum, cond.Operator, cond.Value, 0)
}
