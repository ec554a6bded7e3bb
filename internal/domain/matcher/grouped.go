package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/urizarreta/conciliar-backend/internal/domain/normalize"
)

// Grouped performs the second matching pass, mutating result in place.
//
// Unused system lines are grouped by normalized description. Each
// non-empty group's amounts are summed; if one unused extract line has
// exactly the sum's amount key, every system line in the group matches
// that extract line with DeltaDays 0 and all of them are marked used.
// Groups without such an extract line stay unmatched.
func Grouped(systemLines []SystemLine, extractLines []ExtractLine, result *Result) {
	groups := make(map[string][]SystemLine)
	var order []string
	for _, sys := range systemLines {
		if result.UsedSystem[sys.ID] {
			continue
		}
		desc := normalize.Concept(sys.Description)
		if desc == "" {
			continue
		}
		if _, seen := groups[desc]; !seen {
			order = append(order, desc)
		}
		groups[desc] = append(groups[desc], sys)
	}

	for _, desc := range order {
		group := groups[desc]
		sum := decimal.Zero
		for _, sys := range group {
			sum = sum.Add(sys.Amount)
		}
		key := normalize.AmountKey(sum, 2)

		var target *ExtractLine
		for _, ext := range extractLines {
			if result.UsedExtract[ext.ID] || ext.AmountKey != key {
				continue
			}
			ext := ext
			target = &ext
			break
		}
		if target == nil {
			continue
		}

		for _, sys := range group {
			result.Matches = append(result.Matches, Match{
				ExtractID: target.ID,
				SystemID:  sys.ID,
				DeltaDays: 0,
			})
			result.UsedSystem[sys.ID] = true
		}
		result.UsedExtract[target.ID] = true
	}
}
