package schedule

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotExt 是二进制快照文件的扩展名
const SnapshotExt = ".gob"

// MarshalBinary 把整个排程编码为 gob 快照
func (s *Schedule) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.Tables()); err != nil {
		return nil, fmt.Errorf("无法编码排程: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalSnapshot 解码由 MarshalBinary 生成的快照
func UnmarshalSnapshot(data []byte) (*Schedule, error) {
	var t Tables
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&t); err != nil {
		return nil, &DataFormatError{File: "snapshot", Err: err}
	}
	return t.Build()
}

func (s *Schedule) SaveSnapshot(path string) error {
	data, err := s.MarshalBinary()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("无法创建目录: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

func LoadSnapshot(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取快照 %s: %w", path, err)
	}
	return UnmarshalSnapshot(data)
}

// Load 根据路径选择读取方式：.gob 文件按快照读取，其余按 CSV 目录读取
func Load(path string) (*Schedule, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("路径 %s 不存在: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), SnapshotExt) {
		return LoadSnapshot(path)
	}

	return LoadCSV(path)
}
