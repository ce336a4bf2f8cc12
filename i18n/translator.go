package i18n

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Translator retrieves localized message templates for Issue codes.
// Templates may reference params as {name}; Render substitutes them.
type Translator interface {
	Template(code string) (string, bool)
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var en = map[string]string{
	"value_error.missing":              "field required",
	"type_error.integer":               "value is not a valid integer",
	"type_error.float":                 "value is not a valid float",
	"type_error.str":                   "str type expected",
	"type_error.bool":                  "value could not be parsed to a boolean",
	"type_error.list":                  "value is not a valid list",
	"type_error.dict":                  "value is not a valid dict",
	"type_error.model":                 "value is not a valid {model} mapping",
	"type_error.none.not_allowed":      "none is not an allowed value",
	"value_error.number.not_gt":        "ensure this value is greater than {limit_value}",
	"value_error.number.not_ge":        "ensure this value is greater than or equal to {limit_value}",
	"value_error.number.not_lt":        "ensure this value is less than {limit_value}",
	"value_error.number.not_le":        "ensure this value is less than or equal to {limit_value}",
	"value_error.number.not_multiple":  "ensure this value is a multiple of {multiple_of}",
	"value_error.any_str.min_length":   "ensure this value has at least {limit_value} characters",
	"value_error.any_str.max_length":   "ensure this value has at most {limit_value} characters",
	"value_error.str.regex":            "string does not match regex \"{pattern}\"",
	"value_error.list.min_items":       "ensure this value has at least {limit_value} items",
	"value_error.list.max_items":       "ensure this value has at most {limit_value} items",
	"value_error.uuid":                 "value is not a valid uuid",
	"value_error.const":                "unexpected value; permitted: {permitted}",
	"value_error.extra":                "extra fields not permitted",
	"value_error.number.not_finite":    "ensure this value is a finite number",
	"value_error.number.integer_range": "integer is out of range",
	"value_error.dict.duplicate_key":   "key {key} is already taken by {other}",
}

var ja = map[string]string{
	"value_error.missing":              "必須フィールドがありません",
	"type_error.integer":               "整数ではありません",
	"type_error.float":                 "浮動小数点数ではありません",
	"type_error.str":                   "文字列が必要です",
	"type_error.bool":                  "真偽値として解釈できません",
	"type_error.list":                  "リストではありません",
	"type_error.dict":                  "マップではありません",
	"type_error.model":                 "{model} のマッピングではありません",
	"type_error.none.not_allowed":      "null は許可されていません",
	"value_error.number.not_gt":        "{limit_value} より大きい値が必要です",
	"value_error.number.not_ge":        "{limit_value} 以上の値が必要です",
	"value_error.number.not_lt":        "{limit_value} より小さい値が必要です",
	"value_error.number.not_le":        "{limit_value} 以下の値が必要です",
	"value_error.any_str.min_length":   "{limit_value} 文字以上が必要です",
	"value_error.any_str.max_length":   "{limit_value} 文字以下である必要があります",
	"value_error.str.regex":            "正規表現 \"{pattern}\" に一致しません",
	"value_error.list.min_items":       "{limit_value} 件以上の要素が必要です",
	"value_error.list.max_items":       "{limit_value} 件以下の要素である必要があります",
	"value_error.extra":                "未知のフィールドです",
	"value_error.number.integer_range": "整数の範囲外です",
	"value_error.dict.duplicate_key":   "キー {key} は {other} と重複しています",
}

func (t dictTranslator) Template(code string) (string, bool) {
	if t.lang == "ja" {
		if s, ok := ja[code]; ok {
			return s, true
		}
	}
	s, ok := en[code]
	return s, ok
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T renders the message for code with params. Unknown codes render as the code itself.
func T(code string, params map[string]any) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	tmpl, ok := tr.Template(code)
	if !ok {
		return code
	}
	return Render(tmpl, params)
}

// Render substitutes {name} placeholders in tmpl with values from params.
// Placeholders without a matching param are left untouched.
func Render(tmpl string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	// longest names first so {a_b} is not clobbered by {a}
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	pairs := make([]string, 0, 2*len(names))
	for _, k := range names {
		pairs = append(pairs, "{"+k+"}", formatParam(params[k]))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func formatParam(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = fmt.Sprintf("%#v", e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
