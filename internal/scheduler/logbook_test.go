package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	population := []*Individual{
		individual(nil, 0, 10),
		individual(nil, 2, 20),
		individual(nil, 4, 30),
		individual(nil, 6, 40),
	}

	r := Compile(3, 4, 12, population)

	assert.Equal(t, 3, r.Gen)
	assert.Equal(t, 4, r.NEvals)
	assert.Equal(t, 12, r.Evals)
	assert.Equal(t, []float64{3, 25}, r.Avg)
	assert.Equal(t, []float64{0, 10}, r.Min)
	assert.Equal(t, []float64{6, 40}, r.Max)
	assert.InDeltaSlice(t, []float64{2.2360679775, 11.1803398875}, r.Std, 1e-9)
}

func TestCompileEmpty(t *testing.T) {
	r := Compile(0, 0, 0, nil)
	assert.Nil(t, r.Avg)
}

func TestRecordRow(t *testing.T) {
	r := Compile(1, 2, 5, []*Individual{individual(nil, 1, 7)})

	header := Header()
	row := r.Row()
	require.Len(t, row, len(header))
	assert.Equal(t, []string{
		"gen", "nevals", "evals",
		"avg_penalty", "avg_makespan",
		"min_penalty", "min_makespan",
		"max_penalty", "max_makespan",
		"std_penalty", "std_makespan",
	}, header)
	assert.Equal(t, []string{"1", "2", "5", "1", "7", "1", "7", "1", "7", "0", "0"}, row)
}

func TestLogbook(t *testing.T) {
	var l Logbook
	assert.Nil(t, l.Last())

	l.Append(Record{Gen: 0})
	l.Append(Record{Gen: 1})
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 1, l.Last().Gen)
}
