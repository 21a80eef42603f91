package eventhandler

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/gamification"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ── fakes ─────────────────────────────────────────────────────────────────────

type weeksRepoStub struct {
	checkin.Repository
	weeks []checkin.WeekSummary
}

func (s *weeksRepoStub) GetMemberWeeks(_ context.Context, _ string, limit int) ([]checkin.WeekSummary, error) {
	out := make([]checkin.WeekSummary, len(s.weeks))
	copy(out, s.weeks)
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stateRepoStub struct {
	states map[string]*gamification.State
}

func newStateRepoStub() *stateRepoStub {
	return &stateRepoStub{states: make(map[string]*gamification.State)}
}

func (s *stateRepoStub) GetState(_ context.Context, memberID string) (*gamification.State, error) {
	if st, ok := s.states[memberID]; ok {
		return st, nil
	}
	st := gamification.NewState(memberID)
	s.states[memberID] = st
	return st, nil
}

func (s *stateRepoStub) SaveState(_ context.Context, st *gamification.State) error {
	s.states[st.MemberID] = st
	return nil
}

func (s *stateRepoStub) GetAllStates(_ context.Context) ([]*gamification.State, error) {
	out := make([]*gamification.State, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st)
	}
	return out, nil
}

type awardRepoStub struct {
	granted map[string][]gamification.BadgeCode
	awards  []*gamification.Award
}

func newAwardRepoStub() *awardRepoStub {
	return &awardRepoStub{granted: make(map[string][]gamification.BadgeCode)}
}

func (s *awardRepoStub) Grant(_ context.Context, award *gamification.Award) error {
	for _, code := range s.granted[award.MemberID] {
		if code == award.Code {
			return shared.ErrBadgeAlreadyGranted
		}
	}
	s.granted[award.MemberID] = append(s.granted[award.MemberID], award.Code)
	s.awards = append(s.awards, award)
	return nil
}

func (s *awardRepoStub) GetByMember(_ context.Context, memberID string) ([]*gamification.Award, error) {
	out := make([]*gamification.Award, 0)
	for _, code := range s.granted[memberID] {
		out = append(out, &gamification.Award{MemberID: memberID, Code: code})
	}
	return out, nil
}

func (s *awardRepoStub) Has(_ context.Context, memberID string, code gamification.BadgeCode) (bool, error) {
	for _, c := range s.granted[memberID] {
		if c == code {
			return true, nil
		}
	}
	return false, nil
}

type publisherStub struct {
	events []shared.Event
}

func (p *publisherStub) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *publisherStub) has(eventType shared.EventType) bool {
	for _, e := range p.events {
		if e.EventType() == eventType {
			return true
		}
	}
	return false
}

// ── helpers ───────────────────────────────────────────────────────────────────

var week = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // Monday

func accepted(memberID string, slot, weeklyCount int, localDate time.Time) *shared.CheckinAcceptedEvent {
	return shared.NewCheckinAcceptedEvent(memberID, "Аня", week, localDate, slot, weeklyCount, 20)
}

func newHandler(weeks *weeksRepoStub, states *stateRepoStub, awards *awardRepoStub, publisher *publisherStub) *OnCheckinAcceptedHandler {
	return NewOnCheckinAcceptedHandler(weeks, states, awards, nil,
		gamification.NewEngine(4), publisher, nil)
}

// ── tests ─────────────────────────────────────────────────────────────────────

func TestOnCheckinAccepted_BaseXP(t *testing.T) {
	states := newStateRepoStub()
	publisher := &publisherStub{}
	h := newHandler(&weeksRepoStub{}, states, newAwardRepoStub(), publisher)

	err := h.Handle(accepted("m1", 2, 2, week.AddDate(0, 0, 2)))
	require.NoError(t, err)

	st, _ := states.GetState(context.Background(), "m1")
	assert.Equal(t, 10, int(st.TotalXP))
	assert.True(t, publisher.has(shared.EventXPAwarded))
	assert.False(t, publisher.has(shared.EventBadgeUnlocked))
}

func TestOnCheckinAccepted_WeeklyBonusOnThirdSlot(t *testing.T) {
	states := newStateRepoStub()
	publisher := &publisherStub{}
	h := newHandler(&weeksRepoStub{}, states, newAwardRepoStub(), publisher)

	err := h.Handle(accepted("m1", 3, 3, week.AddDate(0, 0, 4)))
	require.NoError(t, err)

	st, _ := states.GetState(context.Background(), "m1")
	assert.Equal(t, 35, int(st.TotalXP), "10 base + 25 weekly bonus")
	assert.True(t, st.BonusGrantedFor(week))
}

func TestOnCheckinAccepted_BonusNotDoubled(t *testing.T) {
	states := newStateRepoStub()
	h := newHandler(&weeksRepoStub{}, states, newAwardRepoStub(), &publisherStub{})

	require.NoError(t, h.Handle(accepted("m1", 3, 3, week.AddDate(0, 0, 4))))
	require.NoError(t, h.Handle(accepted("m1", 3, 3, week.AddDate(0, 0, 4))))

	st, _ := states.GetState(context.Background(), "m1")
	assert.Equal(t, 45, int(st.TotalXP), "second event re-awards base only")
}

func TestOnCheckinAccepted_FirstFullWeekBadge(t *testing.T) {
	awards := newAwardRepoStub()
	publisher := &publisherStub{}
	h := newHandler(&weeksRepoStub{}, newStateRepoStub(), awards, publisher)

	require.NoError(t, h.Handle(accepted("m1", 3, 3, week.AddDate(0, 0, 4))))

	assert.Equal(t, []gamification.BadgeCode{gamification.BadgeFirstFullWeek}, awards.granted["m1"])
	assert.True(t, publisher.has(shared.EventBadgeUnlocked))
}

func TestOnCheckinAccepted_BadgeNotRegranted(t *testing.T) {
	awards := newAwardRepoStub()
	publisher := &publisherStub{}
	h := newHandler(&weeksRepoStub{}, newStateRepoStub(), awards, publisher)

	require.NoError(t, h.Handle(accepted("m1", 3, 3, week.AddDate(0, 0, 4))))
	badgeEvents := len(publisher.events)

	require.NoError(t, h.Handle(accepted("m1", 3, 3, week.AddDate(0, 0, 4))))

	assert.Len(t, awards.granted["m1"], 1)
	for _, e := range publisher.events[badgeEvents:] {
		assert.NotEqual(t, shared.EventBadgeUnlocked, e.EventType())
	}
}

func TestOnCheckinAccepted_EarlyStartBadge(t *testing.T) {
	awards := newAwardRepoStub()
	h := newHandler(&weeksRepoStub{}, newStateRepoStub(), awards, &publisherStub{})

	// Первый слот занят в понедельник.
	require.NoError(t, h.Handle(accepted("m1", 1, 1, week)))

	assert.Contains(t, awards.granted["m1"], gamification.BadgeEarlyStart)
}

func TestOnCheckinAccepted_ComebackBadge(t *testing.T) {
	// Полная неделя две недели назад, прошлая неделя пустая.
	weeks := &weeksRepoStub{weeks: []checkin.WeekSummary{
		{WeekStart: week.AddDate(0, 0, -14), SlotCount: 3},
	}}
	awards := newAwardRepoStub()
	h := newHandler(weeks, newStateRepoStub(), awards, &publisherStub{})

	require.NoError(t, h.Handle(accepted("m1", 3, 3, week.AddDate(0, 0, 4))))

	assert.Contains(t, awards.granted["m1"], gamification.BadgeComeback)
	assert.NotContains(t, awards.granted["m1"], gamification.BadgeFirstFullWeek,
		"first full week already happened earlier")
}

func TestOnCheckinAccepted_StreakBadge(t *testing.T) {
	// Три полные недели подряд перед текущей; закрытие текущей даёт серию 4.
	weeks := &weeksRepoStub{weeks: []checkin.WeekSummary{
		{WeekStart: week.AddDate(0, 0, -7), SlotCount: 3},
		{WeekStart: week.AddDate(0, 0, -14), SlotCount: 3},
		{WeekStart: week.AddDate(0, 0, -21), SlotCount: 3},
	}}
	awards := newAwardRepoStub()
	h := newHandler(weeks, newStateRepoStub(), awards, &publisherStub{})

	require.NoError(t, h.Handle(accepted("m1", 3, 3, week.AddDate(0, 0, 4))))

	assert.Contains(t, awards.granted["m1"], gamification.BadgeStreak)
}

func TestOnCheckinAccepted_AwardCarriesWeekContext(t *testing.T) {
	awards := newAwardRepoStub()
	states := newStateRepoStub()
	h := newHandler(&weeksRepoStub{}, states, awards, &publisherStub{})

	require.NoError(t, h.Handle(accepted("m1", 3, 3, week.AddDate(0, 0, 4))))

	require.NotEmpty(t, awards.awards)
	award := awards.awards[0]
	assert.Equal(t, "Аня", award.DisplayName)
	assert.True(t, award.WeekStart.Equal(week))
	assert.False(t, award.GrantedAt.IsZero())

	st, _ := states.GetState(context.Background(), "m1")
	assert.Equal(t, gamification.BadgeFirstFullWeek, st.LastBadge)
}

func TestOnCheckinAccepted_PacificWeekAnchors(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	// Недели и событие закреплены на тихоокеанской полуночи, как их
	// отдают хранилище и команда отметки.
	pacificWeek := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)
	weeks := &weeksRepoStub{weeks: []checkin.WeekSummary{
		{WeekStart: pacificWeek.AddDate(0, 0, -7), SlotCount: 3},
		{WeekStart: pacificWeek.AddDate(0, 0, -14), SlotCount: 3},
		{WeekStart: pacificWeek.AddDate(0, 0, -21), SlotCount: 3},
	}}
	awards := newAwardRepoStub()
	states := newStateRepoStub()
	h := newHandler(weeks, states, awards, &publisherStub{})

	event := shared.NewCheckinAcceptedEvent(
		"m1", "Аня", pacificWeek, pacificWeek.AddDate(0, 0, 4), 3, 3, 20)
	require.NoError(t, h.Handle(event))

	assert.Contains(t, awards.granted["m1"], gamification.BadgeStreak)

	st, _ := states.GetState(context.Background(), "m1")
	assert.Equal(t, 35, int(st.TotalXP), "10 base + 25 weekly bonus")
	assert.True(t, st.BonusGrantedFor(pacificWeek))
}

func TestOnCheckinAccepted_LevelUpEvent(t *testing.T) {
	states := newStateRepoStub()
	st := gamification.NewState("m1")
	_, err := st.Award(45)
	require.NoError(t, err)
	states.states["m1"] = st

	publisher := &publisherStub{}
	h := newHandler(&weeksRepoStub{}, states, newAwardRepoStub(), publisher)

	// 45 + 10 пересекает порог 50.
	require.NoError(t, h.Handle(accepted("m1", 1, 1, week.AddDate(0, 0, 1))))

	assert.True(t, publisher.has(shared.EventLevelUp))
}

func TestOnCheckinAccepted_IgnoresWrongEventType(t *testing.T) {
	h := newHandler(&weeksRepoStub{}, newStateRepoStub(), newAwardRepoStub(), &publisherStub{})

	err := h.Handle(shared.NewWeekCompletedEvent("m1", "Аня", week))
	assert.NoError(t, err)
}
