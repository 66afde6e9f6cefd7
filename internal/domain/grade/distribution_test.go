package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullRoster() []int {
	return []int{1, 2, 3, 3, 4, 4, 5, 5, 6, 6}
}

func TestDefaultDistribution_Valid(t *testing.T) {
	d := DefaultDistribution()
	require.NoError(t, d.Validate())
	assert.Equal(t, 10, d.Capacity())
	assert.Equal(t, 10, d.RequiredHeadcount())
}

func TestCanAssign_FullRosterRejectsEveryRank(t *testing.T) {
	d := DefaultDistribution()
	for rank := 1; rank <= 6; rank++ {
		ok, reason := d.CanAssign(fullRoster(), rank, false, nil)
		assert.False(t, ok, "rank %d", rank)
		assert.NotEmpty(t, reason)
	}
}

func TestCanAssign_RankAtCapRejectedOnUpdate(t *testing.T) {
	d := DefaultDistribution()
	prev := 6
	for rank := 1; rank <= 5; rank++ {
		ok, reason := d.CanAssign(fullRoster(), rank, true, &prev)
		assert.False(t, ok, "rank %d", rank)
		assert.Contains(t, reason, "already has the maximum")
	}
}

func TestCanAssign_BelowCapAccepted(t *testing.T) {
	d := DefaultDistribution()
	current := []int{1, 3, 4, 4}
	for _, rank := range []int{2, 3, 5, 6} {
		ok, reason := d.CanAssign(current, rank, false, nil)
		assert.True(t, ok, "rank %d", rank)
		assert.Empty(t, reason)
	}

	ok, reason := d.CanAssign(current, 1, false, nil)
	assert.False(t, ok)
	assert.Equal(t, "Grade 1 already has the maximum of 1 employee.", reason)

	ok, reason = d.CanAssign(current, 4, false, nil)
	assert.False(t, ok)
	assert.Equal(t, "Grade 4 already has the maximum of 2 employees.", reason)
}

func TestCanAssign_UpdateKeepsOwnSlot(t *testing.T) {
	d := DefaultDistribution()
	prev := 1
	ok, _ := d.CanAssign(fullRoster(), 1, true, &prev)
	assert.True(t, ok)

	ok, _ = d.CanAssign(fullRoster(), 1, true, nil)
	assert.False(t, ok)
}

func TestCanAssign_HeadcountCeiling(t *testing.T) {
	d := Distribution{Limits: map[int]int{1: 5, 2: 5, 3: 5, 4: 5, 5: 5, 6: 5}, MaxHeadcount: 3}
	ok, reason := d.CanAssign([]int{1, 2, 3}, 4, false, nil)
	assert.False(t, ok)
	assert.Equal(t, "Maximum of 3 employees reached.", reason)

	prev := 3
	ok, _ = d.CanAssign([]int{1, 2, 3}, 4, true, &prev)
	assert.True(t, ok)
}

func TestCanAssign_UnknownRank(t *testing.T) {
	ok, reason := DefaultDistribution().CanAssign(nil, 7, false, nil)
	assert.False(t, ok)
	assert.Contains(t, reason, "does not exist")
}

func TestValidate_Rejects(t *testing.T) {
	missing := Distribution{Limits: map[int]int{1: 1}, MaxHeadcount: 1}
	assert.ErrorIs(t, missing.Validate(), ErrInvalidDistribution)

	tooMany := DefaultDistribution()
	tooMany.MaxHeadcount = 11
	assert.ErrorIs(t, tooMany.Validate(), ErrInvalidDistribution)

	extra := DefaultDistribution()
	extra.Limits = map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 2, 6: 2, 7: 1}
	assert.ErrorIs(t, extra.Validate(), ErrInvalidDistribution)
}

func TestVacancies(t *testing.T) {
	v := DefaultDistribution().Vacancies([]int{1, 3, 6, 6})
	assert.Equal(t, map[int]int{2: 1, 3: 1, 4: 2, 5: 2}, v)
}
