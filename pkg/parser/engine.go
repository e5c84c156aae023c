package parser

import (
	"github.com/jmylchreest/textvet/internal/logger"
)

// OutputFilter selects which extracted records are returned.
type OutputFilter string

const (
	// FilterAll returns every record.
	FilterAll OutputFilter = "all"

	// FilterSuccessful keeps only complete records.
	FilterSuccessful OutputFilter = "successful"

	// FilterFirst returns at most the first record.
	FilterFirst OutputFilter = "first"

	// FilterFirstN returns at most Limit records, order preserved.
	FilterFirstN OutputFilter = "first_n"
)

// Options configures one extraction call.
type Options struct {
	Filter OutputFilter

	// Limit bounds the result for FilterFirstN. Required and positive
	// for that filter, ignored otherwise.
	Limit int
}

// Extract runs every rule over text and zips the per-rule captures
// into records.
//
// Records are aligned by occurrence index, not by textual proximity:
// the i-th capture of every rule lands in the i-th record. A rule with
// fewer captures than the longest one contributes its fallback value
// for the missing indices, or nothing when it has no fallback. This is
// a deliberate simplification; no positional record stitching is
// attempted.
//
// The engine is stateless and safe for concurrent use on independent
// texts.
func Extract(text string, rules []Rule, opts Options) ([]Record, error) {
	if opts.Filter == "" {
		opts.Filter = FilterAll
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	compiled, err := compile(rules)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(compiled))
	captures := make([][]string, len(compiled))
	maxLen := 0
	for i, cr := range compiled {
		names[i] = cr.rule.Name
		captures[i] = cr.m.captures(text)
		if len(captures[i]) > maxLen {
			maxLen = len(captures[i])
		}
	}

	logger.Debug("extraction matched",
		"rules", len(compiled),
		"records", maxLen,
		"text_size", len(text))

	if maxLen == 0 {
		return []Record{}, nil
	}

	records := make([]Record, 0, maxLen)
	for idx := 0; idx < maxLen; idx++ {
		rec := newRecord(names)
		for i, cr := range compiled {
			if idx < len(captures[i]) {
				rec.set(cr.rule.Name, captures[i][idx])
			} else if cr.rule.FallbackValue != nil {
				rec.set(cr.rule.Name, *cr.rule.FallbackValue)
			}
		}
		records = append(records, rec)
	}

	return filterRecords(records, opts), nil
}

func validateOptions(opts Options) error {
	switch opts.Filter {
	case FilterAll, FilterSuccessful, FilterFirst:
		return nil
	case FilterFirstN:
		if opts.Limit < 1 {
			return validationErrorf("filter %q needs a positive limit, got %d", FilterFirstN, opts.Limit)
		}
		return nil
	default:
		return validationErrorf("unknown output filter %q", opts.Filter)
	}
}

func filterRecords(records []Record, opts Options) []Record {
	switch opts.Filter {
	case FilterSuccessful:
		kept := make([]Record, 0, len(records))
		for _, rec := range records {
			if rec.Complete() {
				kept = append(kept, rec)
			}
		}
		return kept
	case FilterFirst:
		return records[:1]
	case FilterFirstN:
		if opts.Limit < len(records) {
			return records[:opts.Limit]
		}
		return records
	default:
		return records
	}
}
