package scheduler

import (
	"math"
	"math/rand"
	"slices"

	"github.com/sysu-ecnc-dev/eaplanner/internal/ranking"
)

const (
	asfWeight = 1e6
	machEps   = 2.220446049250313e-16
)

// UniformReferencePoints 在单纯形上生成均匀分布的参考点，每个维度被切分成 p 份
func UniformReferencePoints(nobj, p int) [][]float64 {
	points := make([][]float64, 0)

	var gen func(ref []float64, left, depth int)
	gen = func(ref []float64, left, depth int) {
		if depth == nobj-1 {
			ref[depth] = float64(left) / float64(p)
			points = append(points, ref)
			return
		}
		for i := 0; i <= left; i++ {
			next := slices.Clone(ref)
			next[depth] = float64(i) / float64(p)
			gen(next, left-i, depth+1)
		}
	}
	gen(make([]float64, nobj), p, 0)

	return points
}

/**
 * NSGA3Selector 是带记忆的 NSGA-III 环境选择
 * 理想点、最差点和极值点会跨代保留，用于归一化目标值。
 */
type NSGA3Selector struct {
	refPoints [][]float64
	best      []float64
	worst     []float64
	extremes  [][]float64
}

func NewNSGA3Selector(refPoints [][]float64) *NSGA3Selector {
	nobj := len(refPoints[0])
	best := make([]float64, nobj)
	worst := make([]float64, nobj)
	for i := range nobj {
		best[i] = math.Inf(1)
		worst[i] = math.Inf(-1)
	}
	return &NSGA3Selector{refPoints: refPoints, best: best, worst: worst}
}

// Select 从个体中选出 k 个，个体必须都已评估
func (s *NSGA3Selector) Select(rng *rand.Rand, individuals []*Individual, k int) []*Individual {
	if k >= len(individuals) {
		return slices.Clone(individuals)
	}

	// 逐层取前沿，直到个数不少于 k
	fronts := make([][]*Individual, 0)
	count := 0
	for _, front := range ranking.Fronts(fitnesses(individuals)) {
		members := make([]*Individual, 0, len(front))
		for _, i := range front {
			members = append(members, individuals[i])
		}
		fronts = append(fronts, members)
		count += len(members)
		if count >= k {
			break
		}
	}

	points := make([][]float64, 0, count)
	for _, front := range fronts {
		for _, ind := range front {
			points = append(points, ind.Fitness)
		}
	}

	nobj := len(s.best)
	frontWorst := make([]float64, nobj)
	for j := range nobj {
		frontWorst[j] = math.Inf(-1)
	}
	for _, p := range points {
		for j := range nobj {
			s.best[j] = min(s.best[j], p[j])
			s.worst[j] = max(s.worst[j], p[j])
			frontWorst[j] = max(frontWorst[j], p[j])
		}
	}

	s.extremes = findExtremePoints(points, s.best, s.extremes)
	intercepts := findIntercepts(s.extremes, s.best, s.worst, frontWorst)
	niches, dists := associateToNiche(points, s.refPoints, s.best, intercepts)

	last := fronts[len(fronts)-1]
	selCount := count - len(last)

	nicheCounts := make([]int, len(s.refPoints))
	for _, niche := range niches[:selCount] {
		nicheCounts[niche]++
	}

	chosen := make([]*Individual, 0, k)
	for _, front := range fronts[:len(fronts)-1] {
		chosen = append(chosen, front...)
	}

	selected := niching(rng, last, k-selCount, niches[selCount:], dists[selCount:], nicheCounts)
	return append(chosen, selected...)
}

// findExtremePoints 对每个目标找出成就标量化函数值最小的点，上一代的极值点也参与比较
func findExtremePoints(points [][]float64, best []float64, previous [][]float64) [][]float64 {
	candidates := slices.Concat(points, previous)
	nobj := len(best)

	extremes := make([][]float64, nobj)
	for i := range nobj {
		minASF := math.Inf(1)
		for _, c := range candidates {
			asf := math.Inf(-1)
			for j := range nobj {
				w := asfWeight
				if i == j {
					w = 1
				}
				asf = max(asf, (c[j]-best[j])*w)
			}
			if asf < minASF {
				minASF = asf
				extremes[i] = slices.Clone(c)
			}
		}
	}

	return extremes
}

// findIntercepts 计算极值点构成的超平面在各坐标轴上的截距，无法求得时退回到最差点
func findIntercepts(extremes [][]float64, best, currentWorst, frontWorst []float64) []float64 {
	nobj := len(best)

	a := make([][]float64, nobj)
	for i := range nobj {
		a[i] = make([]float64, nobj)
		for j := range nobj {
			a[i][j] = extremes[i][j] - best[j]
		}
	}
	b := make([]float64, nobj)
	for i := range b {
		b[i] = 1
	}

	x, ok := solve(a, b)
	if !ok {
		return slices.Clone(currentWorst)
	}

	intercepts := make([]float64, nobj)
	for i, v := range x {
		if v == 0 {
			return slices.Clone(frontWorst)
		}
		intercepts[i] = 1 / v
	}

	for i := range nobj {
		dot := 0.0
		for j := range nobj {
			dot += a[i][j] * x[j]
		}
		if !isClose(dot, b[i]) {
			return slices.Clone(frontWorst)
		}
	}
	for i, v := range intercepts {
		if v <= 1e-6 || v+best[i] > currentWorst[i] {
			return slices.Clone(frontWorst)
		}
	}

	return intercepts
}

// associateToNiche 归一化后把每个点关联到垂直距离最近的参考方向
func associateToNiche(points, refPoints [][]float64, best, intercepts []float64) ([]int, []float64) {
	nobj := len(best)
	niches := make([]int, len(points))
	dists := make([]float64, len(points))

	norms := make([]float64, len(refPoints))
	for r, ref := range refPoints {
		norms[r] = norm(ref)
	}

	fn := make([]float64, nobj)
	for i, p := range points {
		for j := range nobj {
			fn[j] = (p[j] - best[j]) / (intercepts[j] - best[j] + machEps)
		}

		dists[i] = math.Inf(1)
		for r, ref := range refPoints {
			proj := 0.0
			for j := range nobj {
				proj += fn[j] * ref[j]
			}
			proj /= norms[r]

			d := 0.0
			for j := range nobj {
				diff := proj*ref[j]/norms[r] - fn[j]
				d += diff * diff
			}
			d = math.Sqrt(d)

			if d < dists[i] {
				dists[i] = d
				niches[i] = r
			}
		}
	}

	return niches, dists
}

// niching 从最后一层前沿中补齐 k 个个体，优先照顾关联个体最少的参考方向
func niching(rng *rand.Rand, individuals []*Individual, k int, niches []int, dists []float64, nicheCounts []int) []*Individual {
	selected := make([]*Individual, 0, k)
	available := make([]bool, len(individuals))
	for i := range available {
		available[i] = true
	}

	for len(selected) < k {
		n := k - len(selected)

		availableNiches := make([]bool, len(nicheCounts))
		for i, niche := range niches {
			if available[i] {
				availableNiches[niche] = true
			}
		}

		minCount := math.MaxInt
		for niche, ok := range availableNiches {
			if ok {
				minCount = min(minCount, nicheCounts[niche])
			}
		}

		candidates := make([]int, 0)
		for niche, ok := range availableNiches {
			if ok && nicheCounts[niche] == minCount {
				candidates = append(candidates, niche)
			}
		}
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		if len(candidates) > n {
			candidates = candidates[:n]
		}

		for _, niche := range candidates {
			members := make([]int, 0)
			for i, nc := range niches {
				if nc == niche && available[i] {
					members = append(members, i)
				}
			}
			rng.Shuffle(len(members), func(i, j int) {
				members[i], members[j] = members[j], members[i]
			})

			// 参考方向尚无关联个体时选最近的，否则随机选一个
			index := members[0]
			if nicheCounts[niche] == 0 {
				for _, i := range members[1:] {
					if dists[i] < dists[index] {
						index = i
					}
				}
			}

			available[index] = false
			nicheCounts[niche]++
			selected = append(selected, individuals[index])
		}
	}

	return selected
}

// solve 用带部分主元的高斯消元求解 a x = b，矩阵奇异时返回 false
func solve(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	m := make([][]float64, n)
	for i := range n {
		m[i] = append(slices.Clone(a[i]), b[i])
	}

	for col := range n {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if m[pivot][col] == 0 || math.IsNaN(m[pivot][col]) {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		for row := col + 1; row < n; row++ {
			f := m[row][col] / m[col][col]
			for j := col; j <= n; j++ {
				m[row][j] -= f * m[col][j]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := m[i][n]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * x[j]
		}
		x[i] = sum / m[i][i]
	}

	return x, true
}

func isClose(a, b float64) bool {
	return math.Abs(a-b) <= 1e-8+1e-5*math.Abs(b)
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
