// Package seed 向数据库中批量插入实例：随机生成的实例或者从 CSV 目录导入的实例。
package seed

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sysu-ecnc-dev/eaplanner/internal/domain"
	"github.com/sysu-ecnc-dev/eaplanner/internal/generator"
	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
	"github.com/sysu-ecnc-dev/eaplanner/internal/utils"
)

type InstanceStore interface {
	CreateInstance(instance *domain.Instance) error
}

/**
 * SeedRandomInstances 随机生成 n 个实例，活动数量依次从 sizes 中循环选取
 * base 根据活动数量返回生成参数的默认值，平均出度和随机种子每次都会重新选择。
 * 单个实例失败只记录日志，返回成功插入的数量。
 */
func SeedRandomInstances(store InstanceStore, base func(assignments int) generator.Params, sizes []int, n int) int {
	if len(sizes) == 0 {
		slog.Error("没有指定活动数量")
		return 0
	}

	cnt := 0
	for i := range n {
		size := sizes[i%len(sizes)]
		p := utils.GenerateRandomGeneratorParams(base(size))

		s, err := generator.Generate(p)
		if err != nil {
			slog.Error("无法生成随机实例", "assignments", size, "error", err)
			continue
		}

		description := fmt.Sprintf("k=%d, p_date=%v, seed=%d", p.K, p.PDate, *p.Seed)
		instance := domain.NewInstance(utils.GenerateRandomInstanceName(size), description, domain.InstanceSourceGenerated, s)
		if err := store.CreateInstance(instance); err != nil {
			slog.Error("无法插入实例", "name", instance.Name, "error", err)
			continue
		}

		cnt++
	}

	return cnt
}

/**
 * ImportInstances 导入 root 下所有包含 activities.csv 的目录
 * 实例名是目录相对于 root 的路径，root 本身就是实例目录时使用目录名。
 */
func ImportInstances(store InstanceStore, root string) (int, error) {
	if _, err := os.Stat(root); err != nil {
		return 0, err
	}

	cnt := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, err := os.Stat(filepath.Join(path, schedule.ActivitiesFile)); err != nil {
			return nil
		}

		s, err := schedule.LoadCSV(path)
		if err != nil {
			slog.Error("无法读取实例", "path", path, "error", err)
			return nil
		}
		if err := utils.ValidateSchedule(s); err != nil {
			slog.Error("实例不合法", "path", path, "error", err)
			return nil
		}

		instance := domain.NewInstance(instanceName(root, path), fmt.Sprintf("从 %s 导入", path), domain.InstanceSourceImported, s)
		if err := store.CreateInstance(instance); err != nil {
			slog.Error("无法插入实例", "name", instance.Name, "error", err)
			return nil
		}

		slog.Info("已导入实例", "name", instance.Name, "assignments", instance.Assignments, "constraints", instance.Constraints)
		cnt++
		return nil
	})

	return cnt, err
}

func instanceName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}
