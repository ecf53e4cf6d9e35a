package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// queryRecord runs a query and returns its first record. A missing record is (nil, nil).
func queryRecord(ctx context.Context, db database.Database, query string, vars map[string]interface{}) (map[string]interface{}, error) {
	result, err := db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	data, _ := result.(map[string]interface{})
	return data, nil
}

// queryRecords runs a query and returns every record of its first statement
func queryRecords(ctx context.Context, db database.Database, query string, vars map[string]interface{}) ([]map[string]interface{}, error) {
	result, err := db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rows := extractQueryResults(result)
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if data, ok := row.(map[string]interface{}); ok {
			out = append(out, data)
		}
	}
	return out, nil
}

// queryOne runs a query and decodes its first record. A missing record is (nil, nil).
func queryOne[T any](ctx context.Context, db database.Database, query string, vars map[string]interface{}) (*T, error) {
	data, err := queryRecord(ctx, db, query, vars)
	if err != nil || data == nil {
		return nil, err
	}
	return decodeRecord[T](data)
}

// queryList runs a query and decodes every record of its first statement
func queryList[T any](ctx context.Context, db database.Database, query string, vars map[string]interface{}) ([]*T, error) {
	rows, err := queryRecords(ctx, db, query, vars)
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(rows))
	for _, data := range rows {
		item, err := decodeRecord[T](data)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// hasTable reports whether id is a record ID of table, e.g. "event:abc"
func hasTable(id, table string) bool {
	return strings.HasPrefix(id, table+":") && len(id) > len(table)+1
}

// createRecord inserts content into table and returns the stored record
func createRecord(ctx context.Context, db database.Database, table string, content map[string]interface{}) (map[string]interface{}, error) {
	query := `CREATE type::table($tb) CONTENT $content`
	vars := map[string]interface{}{"tb": table, "content": content}

	result, err := db.QueryOne(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}
	return data, nil
}

// countRecords runs a `SELECT count() AS count ... GROUP ALL` query
func countRecords(ctx context.Context, db database.Database, query string, vars map[string]interface{}) (int, error) {
	result, err := db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if data, ok := result.(map[string]interface{}); ok {
		return extractCountValue(data["count"]), nil
	}
	return 0, nil
}

// decodeRecord converts a SurrealDB record into a model through its JSON tags
func decodeRecord[T any](data map[string]interface{}) (*T, error) {
	normalized := make(map[string]interface{}, len(data))
	for k, v := range data {
		normalized[k] = normalizeValue(v)
	}

	jsonBytes, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// normalizeValue turns driver types into JSON-friendly values
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case models.RecordID, *models.RecordID:
		return convertSurrealID(t)
	case models.CustomDateTime:
		return t.Time.UTC().Format(time.RFC3339Nano)
	case *models.CustomDateTime:
		if t == nil {
			return nil
		}
		return t.Time.UTC().Format(time.RFC3339Nano)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case models.CustomNil:
		return nil
	case map[string]interface{}:
		if _, ok := t["tb"]; ok {
			return convertSurrealID(t)
		}
		out := make(map[string]interface{}, len(t))
		for k, inner := range t {
			out[k] = normalizeValue(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, inner := range t {
			out[i] = normalizeValue(inner)
		}
		return out
	}
	return v
}

// extractQueryResults extracts the record array of the first statement
func extractQueryResults(result []interface{}) []interface{} {
	if len(result) == 0 {
		return nil
	}
	if first, ok := result[0].(map[string]interface{}); ok {
		if rows, ok := first["result"].([]interface{}); ok {
			return rows
		}
		return nil
	}
	return result
}

// extractCountValue converts various numeric types to int
func extractCountValue(v interface{}) int {
	switch c := v.(type) {
	case float64:
		return int(c)
	case float32:
		return int(c)
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	}
	return 0
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// putOpt sets key only when v is non-nil so optional fields are stored as NONE
func putOpt[T any](m map[string]interface{}, key string, v *T) {
	if v != nil {
		m[key] = *v
	}
}

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a string
func convertSurrealID(id interface{}) string {
	if str, ok := id.(string); ok {
		return str
	}

	if rid, ok := id.(models.RecordID); ok {
		return fmt.Sprintf("%s:%v", rid.Table, rid.ID)
	}
	if rid, ok := id.(*models.RecordID); ok && rid != nil {
		return fmt.Sprintf("%s:%v", rid.Table, rid.ID)
	}

	// Map format: {"tb": "user", "id": {"String": "demo"}} or similar
	if m, ok := id.(map[string]interface{}); ok {
		tb := ""
		idPart := ""

		if t, ok := m["tb"].(string); ok {
			tb = t
		} else if t, ok := m["Table"].(string); ok {
			tb = t
		}

		if idVal, ok := m["id"]; ok {
			idPart = extractIDValue(idVal)
		} else if idVal, ok := m["ID"]; ok {
			idPart = extractIDValue(idVal)
		}

		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		if idPart != "" {
			return idPart
		}
	}

	return fmt.Sprintf("%v", id)
}

// extractIDValue extracts the ID value which may be nested
func extractIDValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	if m, ok := val.(map[string]interface{}); ok {
		if s, ok := m["String"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
