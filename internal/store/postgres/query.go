package postgres

import (
	"fmt"
	"strings"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// defaultListLimit caps unbounded list queries.
const defaultListLimit = 100

// buildListQuery appends the shared time filter, ordering, and pagination
// clauses to a base SELECT. tsCol is the timestamp column the filters and
// ordering apply to.
func buildListQuery(base, tsCol string, opts domain.ListOpts) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString(base)

	var conds []string
	if opts.Since != nil {
		args = append(args, *opts.Since)
		conds = append(conds, fmt.Sprintf("%s >= $%d", tsCol, len(args)))
	}
	if opts.Until != nil {
		args = append(args, *opts.Until)
		conds = append(conds, fmt.Sprintf("%s < $%d", tsCol, len(args)))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	fmt.Fprintf(&b, " ORDER BY %s DESC", tsCol)

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))

	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	return b.String(), args
}
