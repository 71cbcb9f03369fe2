package surreal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
)

const timeLayout = time.RFC3339Nano

const projection = "doc_id, pk, body, etag, ts, seq"

const (
	readStatement   = `SELECT ` + projection + ` FROM type::thing($tb, $id) WHERE pk = $pk`
	lookupStatement = `SELECT ` + projection + ` FROM type::thing($tb, $id)`
	createStatement = `CREATE type::thing($tb, $id) CONTENT {
		doc_id: $id, pk: $pk, data: $data, body: $body, etag: $etag, ts: $ts, seq: $seq
	} RETURN NONE`
	// The pk guard also keeps UPDATE from creating a missing record.
	replaceStatement = `UPDATE type::thing($tb, $id)
		SET data = $data, body = $body, etag = $etag, ts = $ts
		WHERE pk = $pk RETURN AFTER`
	deleteStatement = `DELETE type::thing($tb, $id) WHERE pk = $pk RETURN BEFORE`
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

func isIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// buildQuery renders a paged SELECT over a table. Field names are validated
// identifiers and are the only text interpolated into the statement.
func buildQuery(table string, query documentdb.Query, start, limit int) (string, map[string]any, error) {
	if !isIdentifier(table) {
		return "", nil, fmt.Errorf("%w: table %q", documentdb.ErrInvalidQuery, table)
	}
	if err := query.Validate(); err != nil {
		return "", nil, err
	}

	vars := map[string]any{
		"tb":    table,
		"start": start,
		"limit": limit,
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + projection + " FROM type::table($tb)")
	for i, cond := range query.Conditions {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		name := "c" + strconv.Itoa(i)
		fmt.Fprintf(&sb, "data.%s = $%s", cond.Field, name)
		vars[name] = cond.Value
	}
	sb.WriteString(" ORDER BY seq ASC LIMIT $limit START $start")
	return sb.String(), vars, nil
}

func parseContinuation(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	start, err := strconv.Atoi(token)
	if err != nil || start < 0 {
		return 0, fmt.Errorf("%w: bad continuation %q", documentdb.ErrInvalidQuery, token)
	}
	return start, nil
}

func formatContinuation(start int) string {
	return strconv.Itoa(start)
}

func parseTimestamp(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(timeLayout, ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", ts, err)
	}
	return parsed.UTC(), nil
}
