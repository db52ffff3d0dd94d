package engagement

import "context"

type insertResult int

const (
	inserted insertResult = iota
	alreadyExists
)

// insertOnce runs an INSERT ... ON CONFLICT DO NOTHING and reports whether
// the row was written or a matching row was already there.
func insertOnce(ctx context.Context, q querier, query string, args ...any) (insertResult, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return alreadyExists, nil
	}
	return inserted, nil
}
