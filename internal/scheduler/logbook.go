package scheduler

import (
	"fmt"
	"math"

	"github.com/sysu-ecnc-dev/eaplanner/internal/interpreter"
)

// 统计量的名字，也是日志 CSV 中列名的前缀
var StatNames = []string{"avg", "min", "max", "std"}

// Record 是一代种群的统计信息，每个切片按目标排列（penalty, makespan）
type Record struct {
	Gen    int       `json:"gen"`
	NEvals int       `json:"nevals"` // 本代评估次数
	Evals  int       `json:"evals"`  // 累计评估次数
	Avg    []float64 `json:"avg"`
	Std    []float64 `json:"std"`
	Min    []float64 `json:"min"`
	Max    []float64 `json:"max"`
}

// Stat 按名字返回统计量
func (r *Record) Stat(name string) []float64 {
	switch name {
	case "avg":
		return r.Avg
	case "std":
		return r.Std
	case "min":
		return r.Min
	case "max":
		return r.Max
	default:
		return nil
	}
}

// Header 返回日志 CSV 的表头
func Header() []string {
	header := []string{"gen", "nevals", "evals"}
	for _, stat := range StatNames {
		for _, name := range interpreter.ScoreNames {
			header = append(header, fmt.Sprintf("%s_%s", stat, name))
		}
	}
	return header
}

// Row 按 Header 的顺序返回一行
func (r *Record) Row() []string {
	row := []string{fmt.Sprint(r.Gen), fmt.Sprint(r.NEvals), fmt.Sprint(r.Evals)}
	for _, stat := range StatNames {
		for _, v := range r.Stat(stat) {
			row = append(row, fmt.Sprint(v))
		}
	}
	return row
}

type Logbook struct {
	Records []Record `json:"records"`
}

func (l *Logbook) Append(r Record) {
	l.Records = append(l.Records, r)
}

func (l *Logbook) Len() int {
	return len(l.Records)
}

// Last 返回最新的记录，日志为空时返回 nil
func (l *Logbook) Last() *Record {
	if len(l.Records) == 0 {
		return nil
	}
	return &l.Records[len(l.Records)-1]
}

// Compile 计算种群每个目标的均值、总体标准差、最小值和最大值
func Compile(gen, nevals, evals int, population []*Individual) Record {
	r := Record{Gen: gen, NEvals: nevals, Evals: evals}
	if len(population) == 0 {
		return r
	}

	nobj := len(population[0].Fitness)
	r.Avg = make([]float64, nobj)
	r.Std = make([]float64, nobj)
	r.Min = make([]float64, nobj)
	r.Max = make([]float64, nobj)

	for j := range nobj {
		sum := 0.0
		r.Min[j] = math.Inf(1)
		r.Max[j] = math.Inf(-1)
		for _, ind := range population {
			v := ind.Fitness[j]
			sum += v
			r.Min[j] = min(r.Min[j], v)
			r.Max[j] = max(r.Max[j], v)
		}
		avg := sum / float64(len(population))

		variance := 0.0
		for _, ind := range population {
			variance += (ind.Fitness[j] - avg) * (ind.Fitness[j] - avg)
		}
		variance /= float64(len(population))

		r.Avg[j] = avg
		r.Std[j] = math.Sqrt(variance)
	}

	return r
}
