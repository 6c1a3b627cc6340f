// Package artifact 把一次运行的过程和结果写到本地目录：
// logbook.csv、solution.json、parameters.json、instance.gob、最优排程的 CSV
// 以及可选的每代种群 population/<gen>.csv。
package artifact

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sysu-ecnc-dev/eaplanner/internal/interpreter"
	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
	"github.com/sysu-ecnc-dev/eaplanner/internal/scheduler"
)

const (
	LogbookFile    = "logbook.csv"
	SolutionFile   = "solution.json"
	ParametersFile = "parameters.json"
	InstanceFile   = "instance" + schedule.SnapshotExt
	ScheduleDir    = "schedule"
	PopulationDir  = "population"

	timestampLayout = "20060102T150405"
)

// FileRecorder 实现 scheduler.Recorder
type FileRecorder struct {
	root           string
	instance       string
	savePopulation bool

	runID  uuid.UUID
	folder string
}

func NewFileRecorder(root, instance string, savePopulation bool) *FileRecorder {
	return &FileRecorder{
		root:           root,
		instance:       instance,
		savePopulation: savePopulation,
		runID:          uuid.New(),
	}
}

// WithRunID 使用外部给定的运行 ID 命名目录
func (r *FileRecorder) WithRunID(id uuid.UUID) *FileRecorder {
	r.runID = id
	return r
}

// Folder 返回本次运行的目录，Start 之前为空
func (r *FileRecorder) Folder() string {
	return r.folder
}

// FolderName 返回 <时间>_<算法>_<运行 ID> 形式的目录名
func FolderName(startedAt time.Time, algorithm string, id uuid.UUID) string {
	return fmt.Sprintf("%s_%s_%s", startedAt.Format(timestampLayout), algorithm, id)
}

// InstanceDir 把实例名转换为结果根目录下的相对路径，结果不会跳出根目录
func InstanceDir(name string) string {
	segments := strings.Split(name, "/")
	for i, segment := range segments {
		segment = strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
				return r
			default:
				return '_'
			}
		}, segment)
		segment = strings.TrimLeft(segment, ".")
		if segment == "" {
			segment = "_"
		}
		segments[i] = segment
	}
	return filepath.Join(segments...)
}

func (r *FileRecorder) Start(info *scheduler.RunInfo) error {
	r.folder = filepath.Join(r.root, InstanceDir(r.instance), FolderName(info.StartedAt, info.Algorithm, r.runID))
	if err := os.MkdirAll(r.folder, 0o755); err != nil {
		return fmt.Errorf("创建结果目录失败: %w", err)
	}

	if err := info.Schedule.SaveSnapshot(filepath.Join(r.folder, InstanceFile)); err != nil {
		return err
	}

	parameters := map[string]any{
		"algorithm":  info.Algorithm,
		"strategy":   fmt.Sprint(info.Strategy),
		"parameters": info.Parameters,
		"startedAt":  info.StartedAt,
	}
	return writeJSON(filepath.Join(r.folder, ParametersFile), parameters)
}

func (r *FileRecorder) Generation(record scheduler.Record, population []*scheduler.Individual) error {
	if !r.savePopulation || len(population) == 0 {
		return nil
	}

	dir := filepath.Join(r.folder, PopulationDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建种群目录失败: %w", err)
	}

	header := make([]string, 0, len(population[0].Genes)+len(interpreter.ScoreNames))
	for i := range population[0].Genes {
		header = append(header, fmt.Sprintf("gene_%d", i))
	}
	for _, name := range interpreter.ScoreNames {
		header = append(header, "score_"+name)
	}

	rows := make([][]string, 0, len(population))
	for _, ind := range population {
		row := make([]string, 0, len(header))
		for _, g := range ind.Genes {
			row = append(row, strconv.FormatFloat(g, 'g', -1, 64))
		}
		for _, v := range ind.Fitness {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		rows = append(rows, row)
	}

	return writeCSV(filepath.Join(dir, fmt.Sprintf("%d.csv", record.Gen)), header, rows)
}

func (r *FileRecorder) Finish(result *scheduler.Result) error {
	rows := make([][]string, 0, result.Logbook.Len())
	for _, record := range result.Logbook.Records {
		rows = append(rows, record.Row())
	}
	if err := writeCSV(filepath.Join(r.folder, LogbookFile), scheduler.Header(), rows); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(r.folder, SolutionFile), result.Solution()); err != nil {
		return err
	}

	return result.BestSchedule.SaveCSV(filepath.Join(r.folder, ScheduleDir))
}

// ReadSolution 读取运行目录中的最优解
func ReadSolution(folder string) (*scheduler.Solution, error) {
	data, err := os.ReadFile(filepath.Join(folder, SolutionFile))
	if err != nil {
		return nil, err
	}

	var solution scheduler.Solution
	if err := json.Unmarshal(data, &solution); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", SolutionFile, err)
	}
	return &solution, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}
