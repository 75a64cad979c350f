package dynamic

import "github.com/intentguard/intentguard/internal/types"

// exceptionMapping maps a harness-reported exception kind to the
// pattern hypothesis it suggests.
type exceptionMapping struct {
	Pattern  types.Pattern
	Severity int
}

var exceptionMappings = map[string]exceptionMapping{
	"attribute-access failure":                 {types.PatternWrongAttribute, 6},
	"type-incompatibility":                     {types.PatternWrongInputType, 6},
	"name-unresolved":                          {types.PatternHallucinatedObject, 8},
	"division-by-zero":                         {types.PatternMissingCornerCase, 5},
	"indexing / key-not-found / value-invalid": {types.PatternMissingCornerCase, 5},
}

// otherErrorSeverity and executionTimeoutSeverity back the two kinds
// that have no closed-taxonomy pattern of their own: "other" and
// "timed_out" are dynamic-layer-only signals carried on Result's raw
// fields and never turned into a Finding or a taxonomy tag.
const (
	otherErrorSeverity       = 4
	executionTimeoutSeverity = 3
)
