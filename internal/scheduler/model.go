package scheduler

import (
	"slices"

	"github.com/sysu-ecnc-dev/eaplanner/internal/interpreter"
)

// Individual: 种群中的一个候选解
type Individual struct {
	Genes   interpreter.Chromosome
	Fitness interpreter.Scores // 为 nil 时表示尚未评估（或已失效）

	// 以下两个字段只有粒子群算法使用
	Velocity []float64
	Best     *Individual
}

func NewIndividual(genes interpreter.Chromosome) *Individual {
	return &Individual{Genes: genes}
}

func (ind *Individual) Valid() bool {
	return ind.Fitness != nil
}

// Invalidate 使目标值失效，下一次评估时会重新计算
func (ind *Individual) Invalidate() {
	ind.Fitness = nil
}

// Clone 深拷贝个体，包括个体最优
func (ind *Individual) Clone() *Individual {
	c := &Individual{
		Genes:    ind.Genes.Clone(),
		Fitness:  slices.Clone(ind.Fitness),
		Velocity: slices.Clone(ind.Velocity),
	}
	if ind.Best != nil {
		c.Best = ind.Best.Clone()
	}
	return c
}

// fitnesses 提取种群的目标值，调用方需保证所有个体都已评估
func fitnesses(population []*Individual) []interpreter.Scores {
	values := make([]interpreter.Scores, 0, len(population))
	for _, ind := range population {
		values = append(values, ind.Fitness)
	}
	return values
}

// 所有算法共用的参数
type Parameters struct {
	MaxEvaluations int     `json:"neval" validate:"required,min=1"`          // 评估次数预算
	PMin           int     `json:"pmin"`                                     // 初始基因的下界（含）
	PMax           int     `json:"pmax" validate:"gtfield=PMin"`             // 初始基因的上界（不含）
	RepairPct      float64 `json:"repairPct" validate:"min=0,max=1"`         // 每个约束被选中修复的概率，0 表示不修复
	SeedPopulation bool    `json:"seedPopulation"`                           // 是否以实例本身的排程为基础初始化种群
	HallOfFameSize int     `json:"hallOfFameSize" validate:"required,min=1"` // 精英档案的容量
	Parallelism    int     `json:"parallelism" validate:"min=0"`             // 并行评估的 goroutine 数量，0 或 1 表示串行
	Seed           *int64  `json:"seed,omitempty"`                           // 随机数种子，为空时随机
}

func DefaultParameters() Parameters {
	return Parameters{
		MaxEvaluations: 100000,
		PMin:           -50,
		PMax:           50,
		RepairPct:      1.0,
		SeedPopulation: true,
		HallOfFameSize: 1,
		Parallelism:    0,
	}
}
