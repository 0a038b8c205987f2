package model

// AggregateClassifications rolls the per-line income classification
// entries into the document-level summary the wire format requires.
// Entries sharing the same (type, category) pair are summed; output
// order is the insertion order of first occurrence.
func AggregateClassifications(lines []LineItem) []ClassificationEntry {
	type key struct {
		typ      string
		category string
	}

	index := make(map[key]int)
	var out []ClassificationEntry

	for _, line := range lines {
		for _, entry := range line.Classifications {
			k := key{typ: entry.Type, category: entry.Category}
			if i, ok := index[k]; ok {
				out[i].Amount = out[i].Amount.Add(entry.Amount)
				continue
			}
			index[k] = len(out)
			out = append(out, ClassificationEntry{
				Type:     entry.Type,
				Category: entry.Category,
				Amount:   entry.Amount,
			})
		}
	}

	return out
}
