package command

import (
	"context"
	"sort"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/reminder"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// In-memory fakes for the command handler tests.

type memberRepoStub struct {
	members map[string]*member.Member
}

func newMemberRepoStub(members ...*member.Member) *memberRepoStub {
	s := &memberRepoStub{members: make(map[string]*member.Member)}
	for _, m := range members {
		s.members[m.ID] = m
	}
	return s
}

func (s *memberRepoStub) Create(_ context.Context, m *member.Member) error {
	if _, ok := s.members[m.ID]; ok {
		return shared.ErrMemberAlreadyExists
	}
	s.members[m.ID] = m
	return nil
}

func (s *memberRepoStub) GetByID(_ context.Context, id string) (*member.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return nil, shared.ErrMemberNotRegistered
	}
	return m, nil
}

func (s *memberRepoStub) GetByExternalID(_ context.Context, externalID member.ExternalID) (*member.Member, error) {
	for _, m := range s.members {
		if m.ExternalID == externalID {
			return m, nil
		}
	}
	return nil, shared.ErrMemberNotRegistered
}

func (s *memberRepoStub) GetByDisplayName(_ context.Context, name member.DisplayName) (*member.Member, error) {
	for _, m := range s.members {
		if m.DisplayName.Equal(name) {
			return m, nil
		}
	}
	return nil, shared.ErrMemberNotRegistered
}

func (s *memberRepoStub) Update(_ context.Context, m *member.Member) error {
	s.members[m.ID] = m
	return nil
}

func (s *memberRepoStub) GetAll(_ context.Context) ([]*member.Member, error) {
	out := make([]*member.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memberRepoStub) GetActive(_ context.Context) ([]*member.Member, error) {
	all, _ := s.GetAll(context.Background())
	out := make([]*member.Member, 0, len(all))
	for _, m := range all {
		if m.Status.CountsInTables() {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memberRepoStub) Count(_ context.Context) (int, error) {
	return len(s.members), nil
}

type checkinRepoStub struct {
	records []*checkin.Record
}

func (s *checkinRepoStub) Create(_ context.Context, r *checkin.Record) error {
	for _, existing := range s.records {
		if existing.MemberID != r.MemberID {
			continue
		}
		if existing.LocalDate.Equal(r.LocalDate) {
			return shared.ErrAlreadyLogged
		}
		if existing.WeekStart.Equal(r.WeekStart) && existing.Slot == r.Slot {
			return shared.ErrAlreadyLogged
		}
	}
	s.records = append(s.records, r)
	return nil
}

func (s *checkinRepoStub) GetWeek(_ context.Context, memberID string, weekStart time.Time) ([]*checkin.Record, error) {
	out := make([]*checkin.Record, 0)
	for _, r := range s.records {
		if r.MemberID == memberID && r.WeekStart.Equal(weekStart) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
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

func (s *checkinRepoStub) DeleteLatest(_ context.Context, memberID string, weekStart time.Time) (*checkin.Record, error) {
	idx := -1
	for i, r := range s.records {
		if r.MemberID != memberID || !r.WeekStart.Equal(weekStart) {
			continue
		}
		if idx == -1 || r.CreatedAt.After(s.records[idx].CreatedAt) {
			idx = i
		}
	}
	if idx == -1 {
		return nil, shared.ErrNothingToUndo
	}
	removed := s.records[idx]
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	return removed, nil
}

func (s *checkinRepoStub) GetMemberWeeks(_ context.Context, memberID string, limit int) ([]checkin.WeekSummary, error) {
	byWeek := make(map[time.Time]*checkin.WeekSummary)
	for _, r := range s.records {
		if r.MemberID != memberID {
			continue
		}
		w, ok := byWeek[r.WeekStart]
		if !ok {
			w = &checkin.WeekSummary{WeekStart: r.WeekStart}
			byWeek[r.WeekStart] = w
		}
		w.SlotCount++
		w.TotalMinutes += int(r.Minutes)
	}
	out := make([]checkin.WeekSummary, 0, len(byWeek))
	for _, w := range byWeek {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *checkinRepoStub) GetHistory(_ context.Context, memberID string, limit int) ([]*checkin.Record, error) {
	out := make([]*checkin.Record, 0)
	for _, r := range s.records {
		if r.MemberID == memberID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type publisherStub struct {
	events []shared.Event
}

func (p *publisherStub) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *publisherStub) typesSeen() []shared.EventType {
	out := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type invalidatorStub struct {
	weeks []time.Time
}

func (s *invalidatorStub) Invalidate(_ context.Context, weekStart time.Time) error {
	s.weeks = append(s.weeks, weekStart)
	return nil
}

type scheduleRepoStub struct {
	schedules map[string]*reminder.Schedule
}

func newScheduleRepoStub() *scheduleRepoStub {
	return &scheduleRepoStub{schedules: make(map[string]*reminder.Schedule)}
}

func (s *scheduleRepoStub) Upsert(_ context.Context, schedule *reminder.Schedule) error {
	s.schedules[schedule.MemberID] = schedule
	return nil
}

func (s *scheduleRepoStub) GetByMember(_ context.Context, memberID string) (*reminder.Schedule, error) {
	sched, ok := s.schedules[memberID]
	if !ok {
		return nil, shared.ErrNoActiveSchedule
	}
	return sched, nil
}

func (s *scheduleRepoStub) Delete(_ context.Context, memberID string) error {
	if _, ok := s.schedules[memberID]; !ok {
		return shared.ErrNoActiveSchedule
	}
	delete(s.schedules, memberID)
	return nil
}

func (s *scheduleRepoStub) GetAll(_ context.Context) ([]*reminder.Schedule, error) {
	out := make([]*reminder.Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		out = append(out, sched)
	}
	return out, nil
}

type triggersStub struct {
	installed []*reminder.Schedule
	removed   []string
}

func (s *triggersStub) Install(schedule *reminder.Schedule) error {
	s.installed = append(s.installed, schedule)
	return nil
}

func (s *triggersStub) Remove(memberID string) {
	s.removed = append(s.removed, memberID)
}
