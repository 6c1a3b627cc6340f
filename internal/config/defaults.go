package config

import (
	"github.com/sysu-ecnc-dev/eaplanner/internal/generator"
	"github.com/sysu-ecnc-dev/eaplanner/internal/scheduler"
)

// SchedulerParameters 返回以配置为默认值的算法公共参数
func (c *Config) SchedulerParameters() scheduler.Parameters {
	return scheduler.Parameters{
		MaxEvaluations: c.Algorithm.Neval,
		PMin:           c.Algorithm.PMin,
		PMax:           c.Algorithm.PMax,
		RepairPct:      c.Algorithm.RepairPct,
		SeedPopulation: c.Algorithm.SeedPopulation,
		HallOfFameSize: c.Algorithm.HallOfFameSize,
		Parallelism:    c.Algorithm.Parallelism,
	}
}

// GeneratorParams 返回以配置为默认值的实例生成参数
func (c *Config) GeneratorParams(assignments int) generator.Params {
	p := generator.DefaultParams(assignments)
	p.K = c.Generator.K
	p.PDate = c.Generator.PDate
	p.MuHours = c.Generator.MuHours
	p.StdHours = c.Generator.StdHours
	p.MuResources = c.Generator.MuResources
	p.StdResources = c.Generator.StdResources
	return p
}
