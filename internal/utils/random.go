package utils

import (
	"fmt"
	"math/rand"

	"github.com/sysu-ecnc-dev/eaplanner/internal/generator"
)

var (
	letters = "abcdefghijklmnopqrstuvwxyz"
	digits  = "0123456789"
)

func GenerateRandomID(letterLength int, digitLength int) string {
	randomID := make([]byte, letterLength+digitLength)
	for i := range randomID {
		if i < letterLength {
			randomID[i] = letters[rand.Intn(len(letters))]
		} else {
			randomID[i] = digits[rand.Intn(len(digits))]
		}
	}
	return string(randomID)
}

// GenerateRandomInstanceName 生成形如 random_100_abcd1234 的实例名
func GenerateRandomInstanceName(assignments int) string {
	return fmt.Sprintf("random_%d_%s", assignments, GenerateRandomID(4, 4))
}

// GenerateRandomGeneratorParams 在 base 的基础上随机选择平均出度和种子
func GenerateRandomGeneratorParams(base generator.Params) generator.Params {
	p := base
	p.K = rand.Intn(3) + 1
	seed := rand.Int63()
	p.Seed = &seed
	return p
}
