package handler

type ContextKey string

var (
	SubCtxKey   ContextKey = "sub"
	InstanceCtx ContextKey = "instance"
	RunCtx      ContextKey = "run"
)
