package seating

import "fmt"

// CrossoverMode 决定两个父代的哪些位置互换
type CrossoverMode string

const (
	CrossoverSingleCut CrossoverMode = "single-cut" // [1,2,3,4] [5,6,7,8] -> [1,6,7,8] [5,2,3,4]
	CrossoverDoubleCut CrossoverMode = "double-cut" // [1,2,3,4] [5,6,7,8] -> [1,6,7,4] [5,2,3,8]
	CrossoverUniform   CrossoverMode = "uniform"    // 每一位独立地抛硬币
	CrossoverClone     CrossoverMode = "clone"      // 不交换，子代与父代相同
)

var crossoverModes = []CrossoverMode{CrossoverSingleCut, CrossoverDoubleCut, CrossoverUniform, CrossoverClone}

func ParseCrossoverMode(s string) (CrossoverMode, error) {
	for _, m := range crossoverModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("不支持的交叉方式 %q", s)
}

func (m CrossoverMode) String() string {
	return string(m)
}
