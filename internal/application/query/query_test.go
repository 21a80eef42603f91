package query

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/progress"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ── fakes ─────────────────────────────────────────────────────────────────────

type memberRepoStub struct {
	member.Repository
	members []*member.Member
}

func (s *memberRepoStub) GetActive(_ context.Context) ([]*member.Member, error) {
	out := make([]*member.Member, 0, len(s.members))
	for _, m := range s.members {
		if m.Status.CountsInTables() {
			out = append(out, m)
		}
	}
	return out, nil
}

type checkinRepoStub struct {
	checkin.Repository
	records []*checkin.Record
	weeks   []checkin.WeekSummary
}

func (s *checkinRepoStub) GetWeekAll(_ context.Context, weekStart time.Time) ([]*checkin.Record, error) {
	out := make([]*checkin.Record, 0)
	for _, r := range s.records {
		if r.WeekStart.Equal(weekStart) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *checkinRepoStub) GetMemberWeeks(_ context.Context, _ string, limit int) ([]checkin.WeekSummary, error) {
	out := make([]checkin.WeekSummary, len(s.weeks))
	copy(out, s.weeks)
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type cacheStub struct {
	entries map[time.Time][]progress.LeaderboardEntry
	puts    int
}

func newCacheStub() *cacheStub {
	return &cacheStub{entries: make(map[time.Time][]progress.LeaderboardEntry)}
}

func (c *cacheStub) Get(_ context.Context, weekStart time.Time) ([]progress.LeaderboardEntry, error) {
	entries, ok := c.entries[weekStart]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return entries, nil
}

func (c *cacheStub) Put(_ context.Context, weekStart time.Time, entries []progress.LeaderboardEntry) error {
	c.entries[weekStart] = entries
	c.puts++
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

var weekStart = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // Monday
var midweek = weekStart.AddDate(0, 0, 2)

func rosterMember(t *testing.T, id, name string) *member.Member {
	t.Helper()
	m, err := member.NewMember(id, member.DisplayName(name))
	require.NoError(t, err)
	return m
}

func record(t *testing.T, memberID, name string, dayOffset, slot int) *checkin.Record {
	t.Helper()
	r, err := checkin.NewRecord(
		"rec-"+memberID+"-"+string(rune('0'+slot)), memberID, name,
		weekStart, weekStart.AddDate(0, 0, dayOffset),
		checkin.Slot(slot), 20, "",
	)
	require.NoError(t, err)
	return r
}

// ── tests ─────────────────────────────────────────────────────────────────────

func TestWeeklyTable_RosterOrderAndEmptyRows(t *testing.T) {
	members := &memberRepoStub{members: []*member.Member{
		rosterMember(t, "m1", "Аня"),
		rosterMember(t, "m2", "Борис"),
		rosterMember(t, "m3", "Вика"),
	}}
	checkins := &checkinRepoStub{records: []*checkin.Record{
		record(t, "m2", "Борис", 0, 1),
		record(t, "m2", "Борис", 1, 2),
	}}

	h := NewWeeklyTableHandler(members, checkins, time.UTC)
	result, err := h.Handle(context.Background(), WeeklyTableQuery{Now: midweek})
	require.NoError(t, err)

	require.Len(t, result.Rows, 3)
	assert.Equal(t, "Аня", result.Rows[0].DisplayName)
	assert.Equal(t, 0, result.Rows[0].SlotCount, "members without check-ins keep their row")
	assert.Equal(t, 2, result.Rows[1].SlotCount)
	assert.True(t, result.Rows[1].Filled[0])
	assert.True(t, result.Rows[1].Filled[1])
	assert.False(t, result.Rows[1].Filled[2])
	assert.Equal(t, weekStart, result.WeekStart)
	assert.Equal(t, 0, result.FullCount)
}

func TestWeeklyTable_LeftMembersExcluded(t *testing.T) {
	gone := rosterMember(t, "m9", "Ушедший")
	gone.Leave()
	members := &memberRepoStub{members: []*member.Member{
		rosterMember(t, "m1", "Аня"), gone,
	}}

	h := NewWeeklyTableHandler(members, &checkinRepoStub{}, time.UTC)
	result, err := h.Handle(context.Background(), WeeklyTableQuery{Now: midweek})
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Аня", result.Rows[0].DisplayName)
}

func TestLeaderboard_OrderingAndTieBreak(t *testing.T) {
	members := &memberRepoStub{members: []*member.Member{
		rosterMember(t, "m1", "Вика"),
		rosterMember(t, "m2", "Аня"),
		rosterMember(t, "m3", "Борис"),
	}}
	checkins := &checkinRepoStub{records: []*checkin.Record{
		record(t, "m1", "Вика", 0, 1),
		record(t, "m2", "Аня", 0, 1),
		record(t, "m3", "Борис", 0, 1),
		record(t, "m3", "Борис", 1, 2),
	}}

	h := NewLeaderboardHandler(members, checkins, nil, time.UTC)
	result, err := h.Handle(context.Background(), LeaderboardQuery{Now: midweek})
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, "Борис", result.Entries[0].DisplayName)
	assert.Equal(t, 2, result.Entries[0].Score)
	// Равный счёт упорядочивается по имени.
	assert.Equal(t, "Аня", result.Entries[1].DisplayName)
	assert.Equal(t, "Вика", result.Entries[2].DisplayName)
	assert.Equal(t, []int{1, 2, 3}, []int{result.Entries[0].Rank, result.Entries[1].Rank, result.Entries[2].Rank})
}

func TestLeaderboard_CacheHit(t *testing.T) {
	cache := newCacheStub()
	cached := []progress.LeaderboardEntry{{Rank: 1, MemberID: "m1", DisplayName: "Аня", Score: 3}}
	require.NoError(t, cache.Put(context.Background(), weekStart, cached))
	cache.puts = 0

	h := NewLeaderboardHandler(&memberRepoStub{}, &checkinRepoStub{}, cache, time.UTC)
	result, err := h.Handle(context.Background(), LeaderboardQuery{Now: midweek})
	require.NoError(t, err)

	assert.True(t, result.FromCache)
	assert.Equal(t, cached, result.Entries)
	assert.Equal(t, 0, cache.puts)
}

func TestLeaderboard_CacheMissPopulates(t *testing.T) {
	cache := newCacheStub()
	members := &memberRepoStub{members: []*member.Member{rosterMember(t, "m1", "Аня")}}
	checkins := &checkinRepoStub{records: []*checkin.Record{record(t, "m1", "Аня", 0, 1)}}

	h := NewLeaderboardHandler(members, checkins, cache, time.UTC)
	result, err := h.Handle(context.Background(), LeaderboardQuery{Now: midweek})
	require.NoError(t, err)

	assert.False(t, result.FromCache)
	assert.Equal(t, 1, cache.puts)
}

func TestStreaks_GapBreaksStreak(t *testing.T) {
	checkins := &checkinRepoStub{weeks: []checkin.WeekSummary{
		{WeekStart: weekStart.AddDate(0, 0, -7), SlotCount: 3},
		// Неделя -14 пропущена: разрыв.
		{WeekStart: weekStart.AddDate(0, 0, -21), SlotCount: 3},
	}}

	h := NewStreaksHandler(checkins, time.UTC)
	result, err := h.Handle(context.Background(), StreaksQuery{MemberID: "m1", Now: midweek})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Completed)
	assert.False(t, result.CurrentWeekFull)
}

func TestStreaks_CurrentFullWeekCounted(t *testing.T) {
	checkins := &checkinRepoStub{weeks: []checkin.WeekSummary{
		{WeekStart: weekStart, SlotCount: 3},
		{WeekStart: weekStart.AddDate(0, 0, -7), SlotCount: 3},
	}}

	h := NewStreaksHandler(checkins, time.UTC)
	result, err := h.Handle(context.Background(), StreaksQuery{MemberID: "m1", Now: midweek})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Completed)
	assert.Equal(t, 2, result.WithCurrentWeek)
	assert.True(t, result.CurrentWeekFull)
}

func TestStreaks_PacificWeekAnchors(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	// Недели так, как их отдаёт хранилище: полночь понедельника
	// в тихоокеанском поясе.
	pacificMonday := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)
	checkins := &checkinRepoStub{weeks: []checkin.WeekSummary{
		{WeekStart: pacificMonday.AddDate(0, 0, -7), SlotCount: 3},
		{WeekStart: pacificMonday.AddDate(0, 0, -14), SlotCount: 3},
	}}

	// 04:00 UTC во вторник - ещё понедельник в Лос-Анджелесе.
	h := NewStreaksHandler(checkins, loc)
	result, err := h.Handle(context.Background(), StreaksQuery{
		MemberID: "m1",
		Now:      time.Date(2026, 1, 6, 4, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Completed)
}

func TestHistory_PadsMissingWeeks(t *testing.T) {
	checkins := &checkinRepoStub{weeks: []checkin.WeekSummary{
		{WeekStart: weekStart, SlotCount: 2, TotalMinutes: 40},
		{WeekStart: weekStart.AddDate(0, 0, -14), SlotCount: 3, TotalMinutes: 60},
	}}

	h := NewHistoryHandler(checkins, time.UTC)
	result, err := h.Handle(context.Background(), HistoryQuery{MemberID: "m1", Now: midweek})
	require.NoError(t, err)

	require.Len(t, result.Weeks, DefaultHistoryDepth)
	assert.Equal(t, 2, result.Weeks[0].SlotCount)
	assert.Equal(t, 0, result.Weeks[1].SlotCount, "missing week shows as zero row")
	assert.True(t, result.Weeks[2].Full)
	assert.Equal(t, 0, result.Weeks[3].SlotCount)
}
