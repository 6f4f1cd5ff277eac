package storage

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeQuerier is a scripted Querier: statements are matched by a substring of
// their SQL text and answered from canned rows. It records every call so
// tests can assert which statements ran and with which arguments.
type fakeQuerier struct {
	rowAnswers  []rowAnswer
	rowsAnswers []rowsAnswer
	calls       []querierCall
}

type querierCall struct {
	sql  string
	args []any
}

// rowAnswer scripts one QueryRow statement: either vals to scan or err.
type rowAnswer struct {
	match string
	vals  []any
	err   error
}

// rowsAnswer scripts one Query statement with a full result set.
type rowsAnswer struct {
	match string
	rows  [][]any
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.calls = append(q.calls, querierCall{sql: sql, args: args})
	for _, a := range q.rowAnswers {
		if strings.Contains(sql, a.match) {
			return fakeRow{vals: a.vals, err: a.err}
		}
	}
	return fakeRow{err: fmt.Errorf("unscripted statement: %s", sql)}
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.calls = append(q.calls, querierCall{sql: sql, args: args})
	for _, a := range q.rowsAnswers {
		if strings.Contains(sql, a.match) {
			return &fakeRows{rows: a.rows}, nil
		}
	}
	return nil, fmt.Errorf("unscripted statement: %s", sql)
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.calls = append(q.calls, querierCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

// callsMatching returns the recorded calls whose SQL contains sub.
func (q *fakeQuerier) callsMatching(sub string) []querierCall {
	var out []querierCall
	for _, c := range q.calls {
		if strings.Contains(c.sql, sub) {
			out = append(out, c)
		}
	}
	return out
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.vals, dest)
}

type fakeRows struct {
	rows [][]any
	i    int
	cur  []any
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.rows) {
		return false
	}
	r.cur = r.rows[r.i]
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return scanInto(r.cur, dest) }

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.cur, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

var _ Querier = (*fakeQuerier)(nil)

func scanInto(vals []any, dest []any) error {
	if len(vals) != len(dest) {
		return fmt.Errorf("scanning %d values into %d destinations", len(vals), len(dest))
	}
	for i, v := range vals {
		d := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			d.Set(reflect.Zero(d.Type()))
			continue
		}
		d.Set(reflect.ValueOf(v))
	}
	return nil
}
