// Package ranking 提供多目标最小化问题中的排序工具：
// 帕累托支配、帕累托分层以及按优先级的字典序比较。
package ranking

import (
	"slices"

	"golang.org/x/exp/constraints"
)

// Dominates 判断 a 是否支配 b：每个分量都不大于 b，且至少一个分量严格小于 b
func Dominates[S ~[]E, E constraints.Ordered](a, b S) bool {
	strictly := false
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			strictly = true
		}
	}
	return strictly
}

// ParetoRank 逐层剥离非支配前沿，第一层为 1。同一前沿中的个体共享等级。
func ParetoRank[S ~[]E, E constraints.Ordered](values []S) []int {
	ranks := make([]int, len(values))
	remaining := make([]int, len(values))
	for i := range remaining {
		remaining[i] = i
	}

	for rank := 1; len(remaining) > 0; rank++ {
		front := make([]int, 0)
		rest := make([]int, 0, len(remaining))

		for _, i := range remaining {
			dominated := false
			for _, j := range remaining {
				if i != j && Dominates(values[j], values[i]) {
					dominated = true
					break
				}
			}
			if dominated {
				rest = append(rest, i)
			} else {
				front = append(front, i)
			}
		}

		for _, i := range front {
			ranks[i] = rank
		}
		remaining = rest
	}

	return ranks
}

// Fronts 返回按等级分组的下标，fronts[0] 是第一层非支配前沿
func Fronts[S ~[]E, E constraints.Ordered](values []S) [][]int {
	ranks := ParetoRank(values)

	fronts := make([][]int, 0)
	for i, rank := range ranks {
		for len(fronts) < rank {
			fronts = append(fronts, make([]int, 0))
		}
		fronts[rank-1] = append(fronts[rank-1], i)
	}

	return fronts
}

// Compare 按字典序比较两个目标值，第一个分量优先级最高
func Compare[S ~[]E, E constraints.Ordered](a, b S) int {
	for i := range min(len(a), len(b)) {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// LessOrEqual 判断 a 是否按字典序不大于 b
func LessOrEqual[S ~[]E, E constraints.Ordered](a, b S) bool {
	return Compare(a, b) <= 0
}

// Order 返回按字典序稳定排序后的下标，相同目标值的个体保持原有先后
func Order[S ~[]E, E constraints.Ordered](values []S) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(i, j int) int {
		return Compare(values[i], values[j])
	})

	return order
}

// RankLexicographic 返回每个个体在字典序中的位置，结果是 0..N-1 的一个排列
func RankLexicographic[S ~[]E, E constraints.Ordered](values []S) []int {
	ranks := make([]int, len(values))
	for position, i := range Order(values) {
		ranks[i] = position
	}
	return ranks
}
