package record

import "strconv"

// Record is a schema-free mapping from field name to value. Different
// funnel stages produce different field sets; the only guarantee is that
// every record carries the join key the next stage needs ("username" or
// "url").
type Record map[string]interface{}

// Common field names shared across stages.
const (
	FieldURL       = "url"
	FieldUsername  = "username"
	FieldLikes     = "likes"
	FieldComments  = "comments"
	FieldCaption   = "caption"
	FieldFollowers = "followers"
	FieldPostURL   = "post_url"
)

// Has reports whether the field is present.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// String returns the field as a string, or "" when absent or not a string.
func (r Record) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the field as an int. Absent fields and unparseable values
// default to zero, never to an error: an unknown metric counts as zero
// engagement for filtering purposes.
func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		// JSON numbers decode as float64
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// Bool returns the field as a bool, defaulting to false.
func (r Record) Bool(key string) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return false
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
