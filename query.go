package pglease

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Row is one result row as an ordered tuple of scalar values.
type Row []any

// mutationKeywords are the statement keywords ExecuteRead refuses to run.
var mutationKeywords = []string{"INSERT", "UPDATE"}

// ExecuteRead runs a read-only statement under a lease and returns all rows,
// fetched eagerly before the lease is released.
//
// If the uppercased statement text contains INSERT or UPDATE the statement is
// not executed: an error is logged and an empty result is returned with a nil
// error. The check is a textual safety net, not a parser, so keywords inside
// string literals or comments produce false positives. Callers that need to
// distinguish "no rows" from a rejected statement must inspect the log.
func (p *Pool) ExecuteRead(ctx context.Context, sql string) ([]Row, error) {
	upper := strings.ToUpper(sql)
	for _, keyword := range mutationKeywords {
		if strings.Contains(upper, keyword) {
			p.logger.Error("refusing to run mutating statement without a commit; use ExecuteWriteCommit",
				"keyword", keyword)
			return []Row{}, nil
		}
	}

	result := []Row{}
	err := p.WithConn(ctx, func(conn Conn) error {
		rows, err := conn.Query(ctx, sql)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return fmt.Errorf("failed to read row: %w", err)
			}
			result = append(result, Row(values))
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExecuteWriteCommit runs a statement under a lease inside a transaction and
// commits it. On failure the transaction is rolled back and the error
// propagates to the caller; the lease is released either way.
func (p *Pool) ExecuteWriteCommit(ctx context.Context, sql string) error {
	return p.WithConn(ctx, func(conn Conn) error {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		// No-op after a successful commit.
		defer func() { _ = tx.Rollback(ctx) }()

		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit failed: %w", err)
		}
		return nil
	})
}

// ExecuteBulkInsert appends one multi-row VALUES clause to baseSQL and runs
// the whole statement via ExecuteWriteCommit. Each row is rendered as a
// parenthesized tuple of escaped literals. With ignoreDuplicate the statement
// gets a trailing ON CONFLICT DO NOTHING clause, making it idempotent under
// duplicate primary or unique keys.
//
// With no rows the helper logs a notice and performs no database call.
// The statement is assembled textually, so values are assumed trusted.
func (p *Pool) ExecuteBulkInsert(ctx context.Context, baseSQL string, rows [][]any, ignoreDuplicate bool) error {
	if len(rows) == 0 {
		p.logger.Info("bulk insert: nothing to commit")
		return nil
	}

	var b strings.Builder
	b.WriteString(baseSQL)
	b.WriteString(" ")
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, value := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			lit, err := literal(value)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			b.WriteString(lit)
		}
		b.WriteString(")")
	}
	if ignoreDuplicate {
		b.WriteString(" ON CONFLICT DO NOTHING")
	}

	return p.ExecuteWriteCommit(ctx, b.String())
}

// literal renders a scalar value as a SQL literal. Strings and times are
// escaped with pq.QuoteLiteral; numeric and boolean values use their canonical
// text form; nil becomes NULL.
func literal(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "NULL", nil
	case string:
		return pq.QuoteLiteral(v), nil
	case []byte:
		return pq.QuoteLiteral(string(v)), nil
	case time.Time:
		return pq.QuoteLiteral(v.Format(time.RFC3339Nano)), nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case fmt.Stringer:
		return pq.QuoteLiteral(v.String()), nil
	default:
		return "", fmt.Errorf("unsupported literal type %T", value)
	}
}
