// Package fonts bundles the built-in font families used for measuring and drawing captions.
package fonts

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字体家族名。
const (
	SansSerif = "sans-serif"
	Serif     = "serif"
	Monospace = "monospace"
)

// ErrUnknownFamily 表示既不是内置家族也不是已知别名。
var ErrUnknownFamily = errors.New("unknown font family")

type face struct {
	minWeight int
	data      []byte
}

// 每个家族按最小字重升序排列，选择不超过目标字重的最后一项。
var families = map[string][]face{
	SansSerif: {
		{minWeight: 0, data: goregular.TTF},
		{minWeight: 500, data: gomedium.TTF},
		{minWeight: 600, data: gobold.TTF},
	},
	Serif: {
		{minWeight: 0, data: lmroman10regular.TTF},
		{minWeight: 600, data: lmroman10bold.TTF},
	},
	Monospace: {
		{minWeight: 0, data: gomono.TTF},
		{minWeight: 600, data: gomonobold.TTF},
	},
}

// 编辑器里可选的字体名映射到内置家族。
var aliases = map[string]string{
	"go":           SansSerif,
	"sans":         SansSerif,
	"hiragino":     SansSerif,
	"lanobe-pop":   SansSerif,
	"rampart-one":  SansSerif,
	"cursive":      SansSerif,
	"yuji-syuku":   Serif,
	"latin-modern": Serif,
	"go-mono":      Monospace,
	"mono":         Monospace,
}

// Canonical 返回 name 对应的内置家族名；未知名称返回 false。
func Canonical(name string) (string, bool) {
	key := strings.ToLower(strings.Trim(strings.TrimSpace(name), `"'`))
	if _, ok := families[key]; ok {
		return key, true
	}
	if alias, ok := aliases[key]; ok {
		return alias, true
	}
	return "", false
}

// Load 返回内置家族在给定字重下最接近的字体数据。
func Load(family string, weight int) ([]byte, error) {
	name, ok := Canonical(family)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	faces := families[name]
	data := faces[0].data
	for _, f := range faces {
		if weight >= f.minWeight {
			data = f.data
		}
	}
	return data, nil
}

// Families 列出所有内置家族名。
func Families() []string {
	out := make([]string, 0, len(families))
	for name := range families {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
