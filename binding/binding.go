// Package binding fills ${path} placeholders in caption text from template data.
package binding

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// ${path} 或 ${path|fallback}
var exprPattern = regexp.MustCompile(`\$\{([^}|]*)(?:\|([^}]*))?\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 路径不存在时使用 | 后的默认值；没有默认值则保留原占位符，方便在预览中发现漏填。
func Interpolate(text string, data any) string {
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		path := strings.TrimSpace(groups[1])
		if path != "" {
			if val, ok := Lookup(data, path); ok {
				return format(val)
			}
		}
		if strings.Contains(match, "|") {
			return groups[2]
		}
		return match
	})
}

// Lookup 解析形如 a.b[0].c 的路径。支持 map（字符串键）、切片与导出的结构体字段，
// 结构体字段可通过 json/yaml 标签名访问。
func Lookup(data any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}
	current := reflect.ValueOf(data)
	for _, segment := range strings.Split(path, ".") {
		name, indexes, ok := parseSegment(segment)
		if !ok {
			return nil, false
		}
		if name != "" {
			if current, ok = descendKey(current, name); !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			if current, ok = descendIndex(current, idx); !ok {
				return nil, false
			}
		}
	}
	current = indirect(current)
	if !current.IsValid() {
		return nil, false
	}
	return current.Interface(), true
}

func parseSegment(segment string) (string, []int, bool) {
	segment = strings.TrimSpace(segment)
	i := strings.IndexByte(segment, '[')
	if i == -1 {
		return segment, nil, segment != ""
	}
	name, rest := segment[:i], segment[i:]
	var indexes []int
	for rest != "" {
		end := strings.IndexByte(rest, ']')
		if rest[0] != '[' || end == -1 {
			return "", nil, false
		}
		idx, err := strconv.Atoi(strings.TrimSpace(rest[1:end]))
		if err != nil {
			return "", nil, false
		}
		indexes = append(indexes, idx)
		rest = rest[end+1:]
	}
	return name, indexes, true
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func descendKey(current reflect.Value, key string) (reflect.Value, bool) {
	current = indirect(current)
	if !current.IsValid() {
		return reflect.Value{}, false
	}
	switch current.Kind() {
	case reflect.Map:
		if current.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		val := current.MapIndex(reflect.ValueOf(key).Convert(current.Type().Key()))
		return val, val.IsValid()
	case reflect.Struct:
		return structField(current, key)
	default:
		return reflect.Value{}, false
	}
}

func structField(v reflect.Value, key string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Name == key || tagName(f, "json") == key || tagName(f, "yaml") == key {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tagName(f reflect.StructField, tag string) string {
	name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
	return name
}

func descendIndex(current reflect.Value, idx int) (reflect.Value, bool) {
	current = indirect(current)
	if !current.IsValid() {
		return reflect.Value{}, false
	}
	switch current.Kind() {
	case reflect.Slice, reflect.Array:
		if idx < 0 || idx >= current.Len() {
			return reflect.Value{}, false
		}
		return current.Index(idx), true
	default:
		return reflect.Value{}, false
	}
}

func format(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case float64:
		// JSON 数字统一解码为 float64，整数不带小数点输出。
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
