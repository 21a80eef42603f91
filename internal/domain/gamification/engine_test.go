package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Уровень - количество табличных порогов, не превышающих суммарный XP:
// новый участник начинает с первого уровня, не с нулевого.
func TestCalculateLevel(t *testing.T) {
	assert.Equal(t, Level(1), CalculateLevel(0))
	assert.Equal(t, Level(1), CalculateLevel(49))
	assert.Equal(t, Level(2), CalculateLevel(50))
	assert.Equal(t, Level(3), CalculateLevel(125))
	assert.Equal(t, Level(4), CalculateLevel(250))
	assert.Equal(t, Level(7), CalculateLevel(1000))
	assert.Equal(t, Level(7), CalculateLevel(1399))
	assert.Equal(t, Level(8), CalculateLevel(1400))
	assert.Equal(t, Level(1), CalculateLevel(-10))
}

func TestNextLevelThreshold(t *testing.T) {
	assert.Equal(t, XP(50), NextLevelThreshold(1))
	assert.Equal(t, XP(1000), NextLevelThreshold(6))
	assert.Equal(t, XP(1400), NextLevelThreshold(7))
	assert.Equal(t, XP(1800), NextLevelThreshold(8))
}

// Каждый уровень достижим: XP ровно на пороге следующего уровня
// поднимает ровно на один уровень.
func TestLevelThresholdsAreConsistent(t *testing.T) {
	for lvl := Level(1); lvl < 12; lvl++ {
		next := NextLevelThreshold(lvl)
		assert.Equal(t, lvl+1, CalculateLevel(next), "threshold for level %d", lvl+1)
		assert.Equal(t, lvl, CalculateLevel(next-1), "just below threshold for level %d", lvl+1)
	}
}

func TestStateAward(t *testing.T) {
	s := NewState("m1")
	assert.Equal(t, Level(1), s.Level)

	leveled, err := s.Award(XPPerCheckin)
	assert.NoError(t, err)
	assert.False(t, leveled)
	assert.Equal(t, XP(10), s.TotalXP)

	// Push over the first threshold.
	leveled, err = s.Award(45)
	assert.NoError(t, err)
	assert.True(t, leveled)
	assert.Equal(t, Level(2), s.Level)

	_, err = s.Award(0)
	assert.ErrorIs(t, err, ErrInvalidXPAmount)
	_, err = s.Award(-5)
	assert.ErrorIs(t, err, ErrInvalidXPAmount)
}

func TestStateBonusIdempotence(t *testing.T) {
	s := NewState("m1")
	week := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	assert.False(t, s.BonusGrantedFor(week))
	s.MarkBonusGranted(week)
	assert.True(t, s.BonusGrantedFor(week))
	assert.False(t, s.BonusGrantedFor(week.AddDate(0, 0, 7)))
}

func TestEvaluate_PlainCheckin(t *testing.T) {
	e := NewEngine(4)

	out := e.Evaluate(CheckinFacts{MemberID: "m1", WeeklyCount: 1})
	assert.Equal(t, XPPerCheckin, out.BaseXP)
	assert.False(t, out.WeeklyBonus)
	assert.Empty(t, out.Badges)
}

func TestEvaluate_WeekCompletionBonus(t *testing.T) {
	e := NewEngine(4)

	out := e.Evaluate(CheckinFacts{MemberID: "m1", WeeklyCount: 3, HadAnyFullWeekBefore: true})
	assert.True(t, out.WeeklyBonus)
	assert.Empty(t, out.Badges)

	// Second slot never carries the bonus.
	out = e.Evaluate(CheckinFacts{MemberID: "m1", WeeklyCount: 2})
	assert.False(t, out.WeeklyBonus)
}

func TestEvaluate_FirstFullWeekBadge(t *testing.T) {
	e := NewEngine(4)

	out := e.Evaluate(CheckinFacts{MemberID: "m1", WeeklyCount: 3, HadAnyFullWeekBefore: false})
	assert.Contains(t, out.Badges, BadgeFirstFullWeek)
	assert.NotContains(t, out.Badges, BadgeComeback)
}

func TestEvaluate_ComebackBadge(t *testing.T) {
	e := NewEngine(4)

	out := e.Evaluate(CheckinFacts{
		MemberID:             "m1",
		WeeklyCount:          3,
		HadAnyFullWeekBefore: true,
		PreviousWeekWasEmpty: true,
	})
	assert.Contains(t, out.Badges, BadgeComeback)
	assert.NotContains(t, out.Badges, BadgeFirstFullWeek)
}

func TestEvaluate_StreakBadgeAtThreshold(t *testing.T) {
	e := NewEngine(4)

	out := e.Evaluate(CheckinFacts{
		MemberID:             "m1",
		WeeklyCount:          3,
		HadAnyFullWeekBefore: true,
		StreakWithCurrent:    3,
	})
	assert.NotContains(t, out.Badges, BadgeStreak)

	out = e.Evaluate(CheckinFacts{
		MemberID:             "m1",
		WeeklyCount:          3,
		HadAnyFullWeekBefore: true,
		StreakWithCurrent:    4,
	})
	assert.Contains(t, out.Badges, BadgeStreak)
}

func TestEvaluate_EarlyStartBadge(t *testing.T) {
	e := NewEngine(4)

	out := e.Evaluate(CheckinFacts{MemberID: "m1", WeeklyCount: 1, IsFirstSlotOnMonday: true})
	assert.Contains(t, out.Badges, BadgeEarlyStart)
	assert.False(t, out.WeeklyBonus)
}

func TestNewEngine_DefaultThreshold(t *testing.T) {
	e := NewEngine(0)
	assert.Equal(t, DefaultStreakThreshold, e.StreakThreshold())
}

func TestCatalogCoversAllCodes(t *testing.T) {
	catalog := Catalog(4)
	codes := map[BadgeCode]bool{}
	for _, b := range catalog {
		codes[b.Code] = true
		assert.NotEmpty(t, b.Title)
	}
	assert.True(t, codes[BadgeFirstFullWeek])
	assert.True(t, codes[BadgeStreak])
	assert.True(t, codes[BadgeEarlyStart])
	assert.True(t, codes[BadgeComeback])

	_, ok := FindBadge(BadgeComeback)
	assert.True(t, ok)
	_, ok = FindBadge("no_such_badge")
	assert.False(t, ok)
}
