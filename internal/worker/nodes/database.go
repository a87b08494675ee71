package nodes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

// DatabaseNode runs a single query against a fresh, scope-bound connection
// (spec.md §4.3.5). It dispatches on connectionString scheme — this is
// the multi-engine supplement the distillation's single generic `database`
// kind collapsed; SPEC_FULL restores postgres/mysql dialect support since
// the drivers already ride the teacher's go.mod.
type DatabaseNode struct{}

func (n *DatabaseNode) Type() string { return "database" }

func (n *DatabaseNode) Handle(ctx context.Context, execCtx *core.ExecutionContext) (interface{}, error) {
	data := execCtx.Data
	connStr := core.GetString(data, "connectionString", "")
	query := core.GetString(data, "query", "")
	if connStr == "" {
		return nil, apperrors.Validation(execCtx.NodeID, "missing required field: connectionString")
	}
	if query == "" {
		return nil, apperrors.Validation(execCtx.NodeID, "missing required field: query")
	}

	if strings.HasPrefix(connStr, "mongodb://") || strings.HasPrefix(connStr, "mongodb+srv://") {
		return n.handleMongo(ctx, connStr, query)
	}

	driver, dsn, err := dialectFor(connStr)
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeConfigMissing, err.Error(), err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeNodeIOError, fmt.Sprintf("failed to open connection: %v", err), err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeNodeIOError, fmt.Sprintf("query failed: %v", err), err)
	}
	defer rows.Close()

	fields, err := rows.Columns()
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeNodeIOError, fmt.Sprintf("failed to read columns: %v", err), err)
	}

	var result []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(fields))
		scanTargets := make([]interface{}, len(fields))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, apperrors.Handler(apperrors.CodeNodeIOError, fmt.Sprintf("scan failed: %v", err), err)
		}

		row := make(map[string]interface{}, len(fields))
		for i, f := range fields {
			row[f] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Handler(apperrors.CodeNodeIOError, fmt.Sprintf("row iteration failed: %v", err), err)
	}

	return map[string]interface{}{
		"rows":     result,
		"rowCount": len(result),
		"fields":   fields,
	}, nil
}

// handleMongo treats query as a JSON filter document against
// <database>.<collection>, both taken from node data, since Mongo has no
// SQL query string to reuse. rows/rowCount/fields still shape the result
// the same way the SQL dialects do.
func (n *DatabaseNode) handleMongo(ctx context.Context, connStr, query string) (map[string]interface{}, error) {
	database := ""
	collection := ""
	// database/collection travel in the query string itself as
	// "<database>.<collection>:<filter>" to keep the handler signature
	// identical to the SQL dialects (connectionString, query only).
	if idx := strings.Index(query, ":"); idx > 0 {
		path := query[:idx]
		filterJSON := query[idx+1:]
		query = filterJSON
		if dot := strings.Index(path, "."); dot > 0 {
			database = path[:dot]
			collection = path[dot+1:]
		}
	}
	if database == "" || collection == "" {
		return nil, apperrors.Validation("", "mongodb query must be \"database.collection:{filter}\"")
	}

	var filter bson.M
	if err := json.Unmarshal([]byte(query), &filter); err != nil {
		return nil, apperrors.Validation("", fmt.Sprintf("invalid mongodb filter json: %v", err))
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connStr))
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeNodeIOError, fmt.Sprintf("connection failed: %v", err), err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	cursor, err := client.Database(database).Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeNodeIOError, fmt.Sprintf("query failed: %v", err), err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.Handler(apperrors.CodeNodeIOError, fmt.Sprintf("cursor decode failed: %v", err), err)
	}

	rows := make([]map[string]interface{}, len(docs))
	fieldSet := map[string]struct{}{}
	for i, d := range docs {
		row := map[string]interface{}(d)
		rows[i] = row
		for f := range row {
			fieldSet[f] = struct{}{}
		}
	}
	fields := make([]string, 0, len(fieldSet))
	for f := range fieldSet {
		fields = append(fields, f)
	}

	return map[string]interface{}{
		"rows":     rows,
		"rowCount": len(rows),
		"fields":   fields,
	}, nil
}

func dialectFor(connStr string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(connStr, "postgres://"), strings.HasPrefix(connStr, "postgresql://"):
		return "postgres", connStr, nil
	case strings.HasPrefix(connStr, "mysql://"):
		return "mysql", strings.TrimPrefix(connStr, "mysql://"), nil
	default:
		return "", "", fmt.Errorf("unsupported or missing connection string scheme: %s", connStr)
	}
}

func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
