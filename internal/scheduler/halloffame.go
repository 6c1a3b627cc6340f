package scheduler

import (
	"slices"

	"github.com/sysu-ecnc-dev/eaplanner/internal/ranking"
)

// HallOfFame 保存至今为止按字典序最好的若干个互不相同的个体，从好到坏排列
type HallOfFame struct {
	maxSize int
	items   []*Individual
}

func NewHallOfFame(maxSize int) *HallOfFame {
	return &HallOfFame{
		maxSize: maxSize,
		items:   make([]*Individual, 0, maxSize),
	}
}

func (h *HallOfFame) Len() int {
	return len(h.items)
}

// Items 返回档案中的个体，第一个是最好的
func (h *HallOfFame) Items() []*Individual {
	return h.items
}

// Best 返回最好的个体，档案为空时返回 nil
func (h *HallOfFame) Best() *Individual {
	if len(h.items) == 0 {
		return nil
	}
	return h.items[0]
}

/**
 * Update 用一批已评估的个体更新档案
 * 当个体不比档案中最差的个体差（字典序 <=）或档案未满时尝试插入，
 * 基因完全相同的个体只保留一份，档案已满时先移除最差的个体。
 */
func (h *HallOfFame) Update(individuals []*Individual) {
	if h.maxSize <= 0 {
		return
	}

	for _, ind := range individuals {
		if len(h.items) == 0 {
			h.insert(ind)
			continue
		}

		worst := h.items[len(h.items)-1]
		if !ranking.LessOrEqual(ind.Fitness, worst.Fitness) && len(h.items) >= h.maxSize {
			continue
		}

		if h.contains(ind) {
			continue
		}

		if len(h.items) >= h.maxSize {
			h.items = h.items[:len(h.items)-1]
		}
		h.insert(ind)
	}
}

func (h *HallOfFame) contains(ind *Individual) bool {
	for _, item := range h.items {
		if slices.Equal(item.Genes, ind.Genes) {
			return true
		}
	}
	return false
}

// insert 插入个体的副本，目标值相同时新个体排在已有个体之前
func (h *HallOfFame) insert(ind *Individual) {
	i, _ := slices.BinarySearchFunc(h.items, ind, func(item, target *Individual) int {
		if ranking.Compare(item.Fitness, target.Fitness) < 0 {
			return -1
		}
		return 1
	})
	h.items = slices.Insert(h.items, i, ind.Clone())
}
