package matching

// Record はドキュメントストアが返す1件分のレコードを表す
// フィールドは文字列キーで参照し、存在しない場合は ok=false を返す
type Record map[string]any

// String は文字列フィールドを取得する
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int は整数フィールドを取得する
// ストアドライバによって数値型が揺れるため int 系と float64 を受け付ける
func (r Record) Int(key string) (int, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Float は浮動小数点フィールドを取得する
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// StringList は文字列リストフィールドを取得する
func (r Record) StringList(key string) ([]string, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	switch l := v.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
