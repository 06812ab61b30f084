package layout

import (
	"encoding/json"
	"os"
)

// debugDump 在合成结果之外附带越界信息，便于在调试 JSON 中直接查看。
type debugDump struct {
	*Composition
	Overflow []Overflow `json:"overflow,omitempty"`
}

// MarshalDebugJSON 将合成结果编码为带缩进的 JSON。
func MarshalDebugJSON(c *Composition) ([]byte, error) {
	return json.MarshalIndent(debugDump{Composition: c, Overflow: c.Overflow()}, "", "  ")
}

// WriteDebugJSON 将合成结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(c *Composition, path string) error {
	if c == nil {
		return nil
	}
	data, err := MarshalDebugJSON(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
