package loadgen

import (
	"fmt"
	"reflect"

	"github.com/okian/sightmark/internal/domain/adjust"
)

// verifyBatch compares every returned result with a local computation and
// returns the number of matching, mismatched and failed items.
func verifyBatch(calc *adjust.Calculator, items []Item, resp *batchResponse) (ok, mismatched, failed int, problems []string) {
	if len(resp.Results) != len(items) {
		return 0, 0, len(items), []string{fmt.Sprintf("batch %s: got %d results for %d items", resp.BatchID, len(resp.Results), len(items))}
	}

	for i, r := range resp.Results {
		if r.Index != i {
			failed++
			problems = append(problems, fmt.Sprintf("batch %s: result %d has index %d", resp.BatchID, i, r.Index))
			continue
		}
		if r.Error != nil {
			failed++
			problems = append(problems, fmt.Sprintf("batch %s item %d: %s %s", resp.BatchID, i, r.Error.Code, r.Error.Message))
			continue
		}

		want, err := calc.Calculate(items[i].Input())
		if err != nil || r.Result == nil || !reflect.DeepEqual(*r.Result, want) {
			mismatched++
			problems = append(problems, fmt.Sprintf("batch %s item %d: server result differs from local", resp.BatchID, i))
			continue
		}
		ok++
	}
	return ok, mismatched, failed, problems
}
