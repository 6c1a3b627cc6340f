package seed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/eaplanner/internal/domain"
	"github.com/sysu-ecnc-dev/eaplanner/internal/generator"
	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
)

type memoryStore struct {
	instances []*domain.Instance
	reject    string
}

func (s *memoryStore) CreateInstance(instance *domain.Instance) error {
	if instance.Name == s.reject {
		return errors.New("实例名称已存在")
	}
	instance.ID = int64(len(s.instances) + 1)
	s.instances = append(s.instances, instance)
	return nil
}

func smallSchedule() *schedule.Schedule {
	ids := schedule.NewIDAllocator(0)
	a := ids.New(20).Set(0, 2)
	b := ids.New(10).Set(3, 1)

	s := schedule.New()
	s.AddAssignment(a, b)
	s.AddConstraint(
		schedule.NewRelationConstraint(schedule.FinishToStart, a, b),
		schedule.NewResourceConstraint(schedule.NewResource("Resource 0", 10), a, b),
	)
	return s
}

func TestSeedRandomInstances(t *testing.T) {
	store := &memoryStore{}

	cnt := SeedRandomInstances(store, generator.DefaultParams, []int{5, 8}, 3)
	assert.Equal(t, 3, cnt)
	require.Len(t, store.instances, 3)

	assert.Equal(t, 5, store.instances[0].Assignments)
	assert.Equal(t, 8, store.instances[1].Assignments)
	assert.Equal(t, 5, store.instances[2].Assignments)
	for _, instance := range store.instances {
		assert.Equal(t, domain.InstanceSourceGenerated, instance.Source)
		assert.Contains(t, instance.Description, "seed=")
		require.NotNil(t, instance.Tables)
		assert.Len(t, instance.Tables.Activities, instance.Assignments)
	}

	assert.Zero(t, SeedRandomInstances(store, generator.DefaultParams, nil, 3))
}

func TestImportInstances(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, smallSchedule().SaveCSV(filepath.Join(root, "set_a", "one")))
	require.NoError(t, smallSchedule().SaveCSV(filepath.Join(root, "set_a", "two")))
	require.NoError(t, smallSchedule().SaveCSV(filepath.Join(root, "set_b")))

	// 不是实例的目录会被忽略
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	store := &memoryStore{reject: "set_a/two"}
	cnt, err := ImportInstances(store, root)
	require.NoError(t, err)
	assert.Equal(t, 2, cnt)

	names := make([]string, 0, len(store.instances))
	for _, instance := range store.instances {
		names = append(names, instance.Name)
		assert.Equal(t, domain.InstanceSourceImported, instance.Source)
		assert.Equal(t, 2, instance.Assignments)
		assert.Equal(t, 2, instance.Constraints)
	}
	assert.ElementsMatch(t, []string{"set_a/one", "set_b"}, names)
}

func TestImportSingleInstance(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "j30_1")
	require.NoError(t, smallSchedule().SaveCSV(dir))

	store := &memoryStore{}
	cnt, err := ImportInstances(store, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)
	assert.Equal(t, "j30_1", store.instances[0].Name)

	_, err = ImportInstances(store, filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
