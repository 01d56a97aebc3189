package condition

import (
	"fmt"

	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/util"
)

// compareNumber applies the condition operator to an observed numeric value.
// A nil return means the comparison holds. tolerance widens equals into a
// symmetric window; between expects a two element list value.
func compareNumber(what string, actual float64, operator model.Operator, value any, tolerance float64) error {
	switch operator {
	case model.OPERATOR_EQUALS:
		expected, ok := util.ToFloat64(value)
		if !ok {
			return fmt.Errorf("condition value %v is not numeric", value)
		}
		diff := actual - expected
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			return fmt.Errorf("%s is %v, requires %v", what, actual, expected)
		}
		return nil
	case model.OPERATOR_GREATER_THAN:
		expected, ok := util.ToFloat64(value)
		if !ok {
			return fmt.Errorf("condition value %v is not numeric", value)
		}
		if actual <= expected {
			return fmt.Errorf("%s is %v, requires more than %v (short by %v)", what, actual, expected, expected-actual)
		}
		return nil
	case model.OPERATOR_LESS_THAN:
		expected, ok := util.ToFloat64(value)
		if !ok {
			return fmt.Errorf("condition value %v is not numeric", value)
		}
		if actual >= expected {
			return fmt.Errorf("%s is %v, requires less than %v", what, actual, expected)
		}
		return nil
	case model.OPERATOR_BETWEEN:
		low, high, err := betweenBounds(value)
		if err != nil {
			return err
		}
		if actual < low || actual > high {
			return fmt.Errorf("%s is %v, requires between %v and %v", what, actual, low, high)
		}
		return nil
	default:
		return fmt.Errorf("unknown operator %s", operator)
	}
}

func betweenBounds(value any) (float64, float64, error) {
	bounds, ok := value.([]any)
	if !ok || len(bounds) != 2 {
		return 0, 0, fmt.Errorf("between condition requires a value of two numbers, got %v", value)
	}
	low, okLow := util.ToFloat64(bounds[0])
	high, okHigh := util.ToFloat64(bounds[1])
	if !okLow || !okHigh {
		return 0, 0, fmt.Errorf("between condition requires numeric bounds, got %v", value)
	}
	return low, high, nil
}
