package schedule

import (
	"errors"
	"fmt"
)

// ErrDataFormat 是所有数据格式错误的哨兵错误
var ErrDataFormat = errors.New("数据格式错误")

// DataFormatError 描述了某个数据文件中具体哪一行出错
type DataFormatError struct {
	File string
	Line int
	Err  error
}

func (e *DataFormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s 第 %d 行: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *DataFormatError) Unwrap() error {
	return e.Err
}

func (e *DataFormatError) Is(target error) bool {
	return target == ErrDataFormat
}

func formatErrorf(file string, line int, format string, args ...any) error {
	return &DataFormatError{File: file, Line: line, Err: fmt.Errorf(format, args...)}
}

// InvariantViolation 在罚分或修复逻辑中遇到未知的类型标识时被 panic 出来。
// 类型空间是封闭的，不存在默认分支。
type InvariantViolation struct {
	What  string
	Value any
}

func (v InvariantViolation) Error() string {
	return fmt.Sprintf("未知的 %s: %v", v.What, v.Value)
}
