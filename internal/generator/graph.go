package generator

import (
	"container/heap"
	"math/rand"
	"slices"
)

// Edge 是一条从 From 指向 To 的有向边
type Edge struct {
	From int
	To   int
}

// Digraph 是节点为 0..n-1 的有向简单图
type Digraph struct {
	succ []map[int]struct{}
	pred []map[int]struct{}
}

func NewDigraph(n int) *Digraph {
	g := &Digraph{
		succ: make([]map[int]struct{}, n),
		pred: make([]map[int]struct{}, n),
	}
	for i := range n {
		g.succ[i] = make(map[int]struct{})
		g.pred[i] = make(map[int]struct{})
	}
	return g
}

// RandomDigraph 对每一对有序节点以概率 p 独立地加边
func RandomDigraph(n int, p float64, rng *rand.Rand) *Digraph {
	g := NewDigraph(n)
	if p <= 0 {
		return g
	}

	for u := range n {
		for v := range n {
			if u != v && rng.Float64() < p {
				g.AddEdge(u, v)
			}
		}
	}
	return g
}

func (g *Digraph) Len() int {
	return len(g.succ)
}

func (g *Digraph) AddEdge(u, v int) {
	g.succ[u][v] = struct{}{}
	g.pred[v][u] = struct{}{}
}

func (g *Digraph) RemoveEdge(u, v int) {
	delete(g.succ[u], v)
	delete(g.pred[v], u)
}

func (g *Digraph) HasEdge(u, v int) bool {
	_, ok := g.succ[u][v]
	return ok
}

func (g *Digraph) Degree(u int) int {
	return len(g.succ[u]) + len(g.pred[u])
}

// Successors 返回升序排列的后继节点
func (g *Digraph) Successors(u int) []int {
	succ := make([]int, 0, len(g.succ[u]))
	for v := range g.succ[u] {
		succ = append(succ, v)
	}
	slices.Sort(succ)
	return succ
}

// Edges 按 (From, To) 升序返回所有边
func (g *Digraph) Edges() []Edge {
	edges := make([]Edge, 0)
	for u := range g.succ {
		for _, v := range g.Successors(u) {
			edges = append(edges, Edge{From: u, To: v})
		}
	}
	return edges
}

// FindCycle 用三色深度优先搜索寻找一个环，返回环上的边；无环时返回 nil
func (g *Digraph) FindCycle() []Edge {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, g.Len())
	parent := make([]int, g.Len())

	var dfs func(u int) []Edge
	dfs = func(u int) []Edge {
		color[u] = gray
		for _, v := range g.Successors(u) {
			if color[v] == gray {
				// 找到环，沿 parent 回溯出整条环
				cycle := []Edge{{From: u, To: v}}
				for cur := u; cur != v; cur = parent[cur] {
					cycle = append(cycle, Edge{From: parent[cur], To: cur})
				}
				slices.Reverse(cycle)
				return cycle
			}
			if color[v] == white {
				parent[v] = u
				if cycle := dfs(v); cycle != nil {
					return cycle
				}
			}
		}
		color[u] = black
		return nil
	}

	for u := range g.Len() {
		if color[u] == white {
			if cycle := dfs(u); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// RemoveCycles 反复找出一个环并删除环上所有的边，直到图中无环
func (g *Digraph) RemoveCycles() {
	for {
		cycle := g.FindCycle()
		if cycle == nil {
			return
		}
		for _, e := range cycle {
			g.RemoveEdge(e.From, e.To)
		}
	}
}

// descendants 返回从 u 出发可达的所有节点（不含 u 本身）
func (g *Digraph) descendants(u int) map[int]struct{} {
	seen := make(map[int]struct{})
	stack := []int{u}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for v := range g.succ[cur] {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				stack = append(stack, v)
			}
		}
	}
	return seen
}

// TransitiveReduction 删除能被更长路径推出的边，调用方需保证图无环
func (g *Digraph) TransitiveReduction() {
	reduced := NewDigraph(g.Len())

	for u := range g.Len() {
		succ := g.Successors(u)
		implied := make(map[int]struct{})
		for _, w := range succ {
			for d := range g.descendants(w) {
				implied[d] = struct{}{}
			}
		}
		for _, v := range succ {
			if _, ok := implied[v]; !ok {
				reduced.AddEdge(u, v)
			}
		}
	}

	*g = *reduced
}

// ConnectIsolates 把每个孤立节点连向一个随机选出的节点。
// 孤立与否在处理到该节点时才判断，所以前面加的边可能让后面的节点不再孤立。
func (g *Digraph) ConnectIsolates(rng *rand.Rand) {
	for u := range g.Len() {
		if g.Degree(u) != 0 {
			continue
		}
		v := rng.Intn(g.Len())
		if v != u {
			g.AddEdge(u, v)
		}
	}
}

// TopologicalSort 返回字典序最小的拓扑序，调用方需保证图无环
func (g *Digraph) TopologicalSort() []int {
	indegree := make([]int, g.Len())
	ready := &intHeap{}
	for u := range g.Len() {
		indegree[u] = len(g.pred[u])
		if indegree[u] == 0 {
			heap.Push(ready, u)
		}
	}

	order := make([]int, 0, g.Len())
	for ready.Len() > 0 {
		u := heap.Pop(ready).(int)
		order = append(order, u)
		for _, v := range g.Successors(u) {
			indegree[v]--
			if indegree[v] == 0 {
				heap.Push(ready, v)
			}
		}
	}

	return order
}

// Relabel 按照给定顺序重新编号，order[i] 的新编号为 i
func (g *Digraph) Relabel(order []int) *Digraph {
	label := make([]int, g.Len())
	for i, u := range order {
		label[u] = i
	}

	relabeled := NewDigraph(g.Len())
	for _, e := range g.Edges() {
		relabeled.AddEdge(label[e.From], label[e.To])
	}
	return relabeled
}

type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *intHeap) Push(x any) {
	*h = append(*h, x.(int))
}

func (h *intHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
