package processor

import (
	"fmt"

	goeval "github.com/edisonguo/govaluate"

	"github.com/oresund-atlas/bathyprep/utils"
)

// ParseValueExpression compiles a per-cell value expression. Only the
// variables value and nodata may be referenced. An empty expression returns
// nil, meaning identity.
func ParseValueExpression(exprStr string) (*goeval.EvaluableExpression, error) {
	if exprStr == "" {
		return nil, nil
	}
	expr, err := goeval.NewEvaluableExpression(exprStr)
	if err != nil {
		return nil, fmt.Errorf("invalid value expression %q: %v", exprStr, err)
	}

	validVariables := map[string]bool{"value": true, "nodata": true}
	for _, token := range expr.Tokens() {
		if token.Kind == goeval.VARIABLE {
			varName, ok := token.Value.(string)
			if !ok {
				return nil, fmt.Errorf("value expression %q: non-string variable name", exprStr)
			}
			if !validVariables[varName] {
				return nil, fmt.Errorf("value expression %q: unknown variable %s", exprStr, varName)
			}
		}
	}
	return expr, nil
}

// ApplyExpression evaluates expr over every valid cell of r in place. Nodata
// cells pass through untouched. A nil expr is the identity.
func ApplyExpression(r *utils.FlexRaster, expr *goeval.EvaluableExpression) error {
	if expr == nil {
		return nil
	}

	parameters := make(map[string]interface{})
	parameters["nodata"] = r.NoData
	for i, v := range r.Data {
		if utils.IsNoData(v, r.NoData) {
			continue
		}
		parameters["value"] = float64(v)
		result, err := expr.Evaluate(parameters)
		if err != nil {
			return err
		}
		// The govaluate fork evaluates arithmetic in float32 while plain
		// variable passthrough stays float64; accept both.
		switch val := result.(type) {
		case float64:
			r.Data[i] = float32(val)
		case float32:
			r.Data[i] = val
		default:
			return fmt.Errorf("value expression result has type %T, want a float", result)
		}
	}
	return nil
}
