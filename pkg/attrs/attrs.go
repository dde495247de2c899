// Package attrs reads values back out of slog-style key-value argument
// lists. The audit decorators assemble their log arguments once and reuse
// the same slice when building the audit event, so the event side needs to
// pluck individual values from the flat pair list.
package attrs

// ExtractString returns the value following key in a flat
// [key1, value1, key2, value2, ...] slice. It returns "" when the key is
// absent or its value is not a string.
func ExtractString(kv []any, key string) string {
	for i := 0; i+1 < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok || name != key {
			continue
		}
		if value, ok := kv[i+1].(string); ok {
			return value
		}
	}
	return ""
}
