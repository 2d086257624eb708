package retriever

import "strings"

// Strategy is one correction the Planner can apply by spawning a new,
// re-parameterized task (spec §4.6, §7).
type Strategy struct {
	Name       string
	Parameters map[string]any
}

// errorBuckets maps a substring found in a task's error message to an
// ordered list of strategies: the first is tried on the first failure,
// the second if the correction task fails again, and so on.
var errorBuckets = map[string][]Strategy{
	"timeout": {
		{Name: "budget_increase", Parameters: map[string]any{"budget_increase": 0.2}},
		{Name: "use_alternatives", Parameters: map[string]any{"use_alternatives": true}},
	},
	"no results": {
		{Name: "relax_constraints", Parameters: map[string]any{"relax_factor": 0.8}},
		{Name: "budget_increase", Parameters: map[string]any{"budget_increase": 0.2}},
		{Name: "use_alternatives", Parameters: map[string]any{"use_alternatives": true}},
	},
	"constraint": {
		{Name: "relax_constraints", Parameters: map[string]any{"relax_factor": 0.8}},
		{Name: "budget_increase", Parameters: map[string]any{"budget_increase": 0.2}},
	},
	"budget": {
		{Name: "budget_increase", Parameters: map[string]any{"budget_increase": 0.2}},
		{Name: "relax_constraints", Parameters: map[string]any{"relax_factor": 0.8}},
	},
}

var defaultBucket = []Strategy{
	{Name: "use_alternatives", Parameters: map[string]any{"use_alternatives": true}},
}

// SuggestErrorCorrection picks the bucket matching the first recognized
// substring of errMsg and returns its retryCount'th strategy wrapped in
// a single-element slice. Once retryCount exceeds the bucket, it returns
// nil: the caller should stop retrying and mark the task permanently failed.
func SuggestErrorCorrection(errMsg string, retryCount int) []Strategy {
	lower := strings.ToLower(errMsg)
	bucket := defaultBucket
	for _, key := range []string{"timeout", "no results", "constraint", "budget"} {
		if strings.Contains(lower, key) {
			bucket = errorBuckets[key]
			break
		}
	}
	if retryCount < 0 || retryCount >= len(bucket) {
		return nil
	}
	return []Strategy{bucket[retryCount]}
}
