// Package matcher pairs internal ledger lines with bank-statement lines.
//
// Matching runs in two passes over finite collections and is pure: it
// reads the lines it is given and returns matches plus used-id sets.
// Pass 1 pairs one system line to one extract line by equal amount key
// and nearest date inside a tolerance window. Pass 2 groups leftover
// system lines by normalized description and matches each group's amount
// sum against a single leftover extract line, because some ledger
// exports split one bank movement into several postings sharing a memo.
package matcher

// OneToOne performs the first matching pass.
//
// Extract lines are bucketed by amount key. For each system line, in
// input order, the unused extract line in its bucket with the smallest
// whole-day distance to the issue or due date wins; ties keep the first
// candidate seen. windowDays > 0 excludes candidates farther than the
// window; windowDays == 0 requires a same-day candidate. A missing date
// yields an effectively infinite distance and never matches.
func OneToOne(systemLines []SystemLine, extractLines []ExtractLine, windowDays int) *Result {
	byKey := make(map[int64][]ExtractLine)
	for _, ext := range extractLines {
		byKey[ext.AmountKey] = append(byKey[ext.AmountKey], ext)
	}

	result := newResult()
	for _, sys := range systemLines {
		if result.UsedSystem[sys.ID] {
			continue
		}

		var best *ExtractLine
		bestDelta := 0
		for _, ext := range byKey[sys.AmountKey] {
			if result.UsedExtract[ext.ID] {
				continue
			}
			delta := DeltaDays(ext.Date, sys.IssueDate, sys.DueDate)
			if windowDays > 0 && delta > windowDays {
				continue
			}
			if windowDays == 0 && delta != 0 {
				continue
			}
			if best == nil || delta < bestDelta {
				ext := ext
				best = &ext
				bestDelta = delta
			}
		}

		if best != nil {
			result.Matches = append(result.Matches, Match{
				ExtractID: best.ID,
				SystemID:  sys.ID,
				DeltaDays: bestDelta,
			})
			result.UsedExtract[best.ID] = true
			result.UsedSystem[sys.ID] = true
		}
	}
	return result
}

// Run executes both matching passes: OneToOne followed by a single
// Grouped pass over whatever is left.
func Run(systemLines []SystemLine, extractLines []ExtractLine, windowDays int) *Result {
	result := OneToOne(systemLines, extractLines, windowDays)
	Grouped(systemLines, extractLines, result)
	return result
}
