package schedule

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	activitiesHeader          = []string{"id", "hours", "start", "duration"}
	sequenceConstraintsHeader = []string{"predecessor_id", "successor_id", "type"}
	resourcesHeader           = []string{"name", "total_capacity"}
	resourceConstraintsHeader = []string{"resource_name", "assignment_ids"}
	dateConstraintsHeader     = []string{"assignment_id", "type", "day"}
)

// SaveCSV 把排程写成目录中的若干 CSV 文件，没有日期约束时不写 date_constraints.csv
func (s *Schedule) SaveCSV(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("无法创建目录: %w", err)
	}

	return s.Tables().WriteCSV(dir)
}

func (t *Tables) WriteCSV(dir string) error {
	activities := make([][]string, 0, len(t.Activities))
	for _, row := range t.Activities {
		activities = append(activities, []string{
			strconv.Itoa(row.ID),
			strconv.Itoa(row.Hours),
			strconv.Itoa(row.Start),
			strconv.Itoa(row.Duration),
		})
	}
	if err := writeCSV(filepath.Join(dir, ActivitiesFile), activitiesHeader, activities); err != nil {
		return err
	}

	sequences := make([][]string, 0, len(t.Sequences))
	for _, row := range t.Sequences {
		sequences = append(sequences, []string{
			strconv.Itoa(row.PredecessorID),
			strconv.Itoa(row.SuccessorID),
			strconv.Itoa(row.Type),
		})
	}
	if err := writeCSV(filepath.Join(dir, SequenceConstraintsFile), sequenceConstraintsHeader, sequences); err != nil {
		return err
	}

	groups := make([][]string, 0, len(t.ResourceGroups))
	for _, row := range t.ResourceGroups {
		groups = append(groups, []string{row.ResourceName, JoinIDs(row.AssignmentIDs)})
	}
	if err := writeCSV(filepath.Join(dir, ResourceConstraintsFile), resourceConstraintsHeader, groups); err != nil {
		return err
	}

	resources := make([][]string, 0, len(t.Resources))
	for _, row := range t.Resources {
		resources = append(resources, []string{row.Name, strconv.FormatFloat(row.TotalCapacity, 'f', -1, 64)})
	}
	if err := writeCSV(filepath.Join(dir, ResourcesFile), resourcesHeader, resources); err != nil {
		return err
	}

	if len(t.Dates) == 0 {
		return nil
	}

	dates := make([][]string, 0, len(t.Dates))
	for _, row := range t.Dates {
		dates = append(dates, []string{
			strconv.Itoa(row.AssignmentID),
			strconv.Itoa(row.Type),
			strconv.Itoa(row.Day),
		})
	}
	return writeCSV(filepath.Join(dir, DateConstraintsFile), dateConstraintsHeader, dates)
}

// LoadCSV 从目录中读取排程，date_constraints.csv 是可选的
func LoadCSV(dir string) (*Schedule, error) {
	t, err := ReadTables(dir)
	if err != nil {
		return nil, err
	}
	return t.Build()
}

func ReadTables(dir string) (*Tables, error) {
	t := &Tables{}

	activities, err := readCSV(dir, ActivitiesFile, activitiesHeader, false)
	if err != nil {
		return nil, err
	}
	for i, record := range activities {
		values, err := atois(ActivitiesFile, i+2, record, "id", "hours", "start", "duration")
		if err != nil {
			return nil, err
		}
		t.Activities = append(t.Activities, ActivityRow{ID: values[0], Hours: values[1], Start: values[2], Duration: values[3]})
	}

	sequences, err := readCSV(dir, SequenceConstraintsFile, sequenceConstraintsHeader, false)
	if err != nil {
		return nil, err
	}
	for i, record := range sequences {
		values, err := atois(SequenceConstraintsFile, i+2, record, "predecessor_id", "successor_id", "type")
		if err != nil {
			return nil, err
		}
		t.Sequences = append(t.Sequences, SequenceRow{PredecessorID: values[0], SuccessorID: values[1], Type: values[2]})
	}

	resources, err := readCSV(dir, ResourcesFile, resourcesHeader, false)
	if err != nil {
		return nil, err
	}
	for i, record := range resources {
		capacity, err := strconv.ParseFloat(strings.TrimSpace(record["total_capacity"]), 64)
		if err != nil {
			return nil, formatErrorf(ResourcesFile, i+2, "total_capacity 不是数字: %w", err)
		}
		t.Resources = append(t.Resources, ResourceRow{Name: record["name"], TotalCapacity: capacity})
	}

	groups, err := readCSV(dir, ResourceConstraintsFile, resourceConstraintsHeader, false)
	if err != nil {
		return nil, err
	}
	for i, record := range groups {
		ids, err := SplitIDs(record["assignment_ids"])
		if err != nil {
			return nil, formatErrorf(ResourceConstraintsFile, i+2, "assignment_ids 格式错误: %w", err)
		}
		t.ResourceGroups = append(t.ResourceGroups, ResourceGroupRow{ResourceName: record["resource_name"], AssignmentIDs: ids})
	}

	dates, err := readCSV(dir, DateConstraintsFile, dateConstraintsHeader, true)
	if err != nil {
		return nil, err
	}
	for i, record := range dates {
		values, err := atois(DateConstraintsFile, i+2, record, "assignment_id", "type", "day")
		if err != nil {
			return nil, err
		}
		t.Dates = append(t.Dates, DateRow{AssignmentID: values[0], Type: values[1], Day: values[2]})
	}

	return t, nil
}

// JoinIDs 把 ID 列表拼成 "1;2;3" 的形式
func JoinIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ";")
}

// SplitIDs 解析 "1;2;3" 形式的 ID 列表，空字符串表示空列表
func SplitIDs(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}

	parts := strings.Split(s, ";")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func writeCSV(path string, header []string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("无法创建文件 %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("无法写入文件 %s: %w", path, err)
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("无法写入文件 %s: %w", path, err)
	}

	return file.Close()
}

// readCSV 以表头为键读取每一行，缺少必需的列时返回 DataFormatError
func readCSV(dir string, name string, required []string, optional bool) ([]map[string]string, error) {
	file, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法打开文件 %s: %w", name, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, formatErrorf(name, 1, "缺少表头")
		}
		return nil, &DataFormatError{File: name, Line: 1, Err: err}
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	for _, column := range required {
		found := false
		for _, header := range headers {
			if header == column {
				found = true
				break
			}
		}
		if !found {
			return nil, formatErrorf(name, 1, "缺少列 %s", column)
		}
	}

	// 读取数据
	var records []map[string]string
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, &DataFormatError{File: name, Line: line, Err: err}
		}

		record := make(map[string]string, len(headers))
		for i, value := range row {
			record[headers[i]] = value
		}
		records = append(records, record)
	}

	return records, nil
}

func atois(file string, line int, record map[string]string, columns ...string) ([]int, error) {
	values := make([]int, 0, len(columns))
	for _, column := range columns {
		v, err := strconv.Atoi(strings.TrimSpace(record[column]))
		if err != nil {
			return nil, formatErrorf(file, line, "%s 不是整数: %w", column, err)
		}
		values = append(values, v)
	}
	return values, nil
}
