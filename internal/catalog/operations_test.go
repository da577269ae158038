package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabels(t *testing.T) {
	got := Labels()
	require.Len(t, got, 10)
	assert.Equal(t, "地漏: 清洁、液封", got[8])

	seen := make(map[string]bool)
	for _, l := range got {
		assert.False(t, seen[l], "duplicate label %q", l)
		seen[l] = true
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("样品瓶: 清点数量后交车间物料员退回中转站保存"))
	assert.False(t, Contains("样品瓶"))
	assert.False(t, Contains(""))
}

func TestOperationsReturnsCopy(t *testing.T) {
	ops := Operations()
	ops[0].Item = "changed"
	assert.Equal(t, "中间产品", Operations()[0].Item)
}
