package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMilestoneSet_MarkOnlyOnce(t *testing.T) {
	set := NewMilestoneSet()

	assert.True(t, set.Mark("exec-1", MilestoneCompleted))
	assert.False(t, set.Mark("exec-1", MilestoneCompleted))
	assert.False(t, set.Mark("exec-1", MilestoneCompleted))
}

func TestMilestoneSet_FlagsAreIndependent(t *testing.T) {
	set := NewMilestoneSet()

	assert.True(t, set.Mark("exec-1", MilestoneWaiting))
	assert.True(t, set.Mark("exec-1", MilestoneCompleted))

	// Failed has not fired yet for this execution, even though completed has.
	assert.True(t, set.Mark("exec-1", MilestoneFailed))
	assert.False(t, set.Mark("exec-1", MilestoneFailed))
}

func TestMilestoneSet_KeyedPerExecution(t *testing.T) {
	set := NewMilestoneSet()

	assert.True(t, set.Mark("exec-1", MilestoneCompleted))
	assert.True(t, set.Mark("exec-2", MilestoneCompleted))
	assert.False(t, set.Mark("exec-1", MilestoneCompleted))

	assert.True(t, set.Marked("exec-1", MilestoneCompleted))
	assert.False(t, set.Marked("exec-1", MilestoneWaiting))
	assert.False(t, set.Marked("exec-3", MilestoneCompleted))
}
