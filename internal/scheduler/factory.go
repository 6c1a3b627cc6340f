package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownAlgorithm = errors.New("未知的算法")

// Algorithms 列出所有可用的算法名
var Algorithms = []string{"ga", "ppa", "pso", "shc", "sa"}

// DefaultStrategyParameters 返回算法的默认参数
func DefaultStrategyParameters(name string) (any, error) {
	switch name {
	case "ga":
		return DefaultGAParameters(), nil
	case "ppa":
		return DefaultPPAParameters(), nil
	case "pso":
		return DefaultPSOParameters(), nil
	case "shc":
		return DefaultSHCParameters(), nil
	case "sa":
		return DefaultSAParameters(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
}

/**
 * ParseParameters 把 JSON 格式的算法参数覆盖在默认参数之上，返回参数结构体的指针
 * raw 可以为空，此时返回默认参数。
 */
func ParseParameters(name string, raw json.RawMessage) (any, error) {
	var p any
	switch name {
	case "ga":
		v := DefaultGAParameters()
		p = &v
	case "ppa":
		v := DefaultPPAParameters()
		p = &v
	case "pso":
		v := DefaultPSOParameters()
		p = &v
	case "shc":
		v := DefaultSHCParameters()
		p = &v
	case "sa":
		v := DefaultSAParameters()
		p = &v
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}

	if err := decodeParameters(raw, p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewStrategy 根据算法名和 JSON 格式的参数创建策略
func NewStrategy(name string, raw json.RawMessage) (Strategy, error) {
	p, err := ParseParameters(name, raw)
	if err != nil {
		return nil, err
	}

	switch p := p.(type) {
	case *GAParameters:
		return NewGA(*p)
	case *PPAParameters:
		return NewPPA(*p)
	case *PSOParameters:
		return NewPSO(*p)
	case *SHCParameters:
		return NewSHC(*p)
	case *SAParameters:
		return NewSA(*p)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
}

func decodeParameters(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	return nil
}
