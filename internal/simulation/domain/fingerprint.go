package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint 对 {seed, runs, options, scenarioVars} 计算确定性 SHA-256 指纹。
// 结构体 JSON 序列化字段顺序固定，同一输入永远得到同一指纹，
// 用于识别"相同输入"的重跑并作为快照的幂等键。
func Fingerprint(seed int64, runs int, options []DecisionOption, vars []ScenarioVar) string {
	payload := struct {
		Seed    int64            `json:"seed"`
		Runs    int              `json:"runs"`
		Options []DecisionOption `json:"options"`
		Vars    []ScenarioVar    `json:"vars"`
	}{Seed: seed, Runs: runs, Options: options, Vars: vars}

	data, err := json.Marshal(payload)
	if err != nil {
		// 输入由纯值类型构成，序列化不会失败
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
