package schedule

// Resource 是被一组活动共享的资源，容量由若干部分组成
type Resource struct {
	Name        string
	MinCapacity float64
	MedCapacity float64
}

func NewResource(name string, capacity float64) *Resource {
	return &Resource{Name: name, MinCapacity: capacity}
}

func (r *Resource) TotalCapacity() float64 {
	return r.MinCapacity + r.MedCapacity
}
