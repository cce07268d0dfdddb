package utils

import "fmt"

// ToStringSlice converts a decoded JSON value into its string members.
// A bare string yields a single element; other scalars are formatted.
func ToStringSlice(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case []any:
		stringSlice := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				stringSlice = append(stringSlice, s)
				continue
			}
			if e != nil {
				stringSlice = append(stringSlice, fmt.Sprint(e))
			}
		}
		return stringSlice
	default:
		return []string{fmt.Sprint(t)}
	}
}
