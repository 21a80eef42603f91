// Package application собирает слой приложения в единый набор
// обработчиков. Внешний диспетчер команд (Telegram-бот, CLI, что угодно)
// получает готовый App и транслирует каждую команду чата в ровно один
// вызов обработчика.
package application

import (
	"log/slog"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/application/command"
	"github.com/vocal-hub/vocal-practice-hub/internal/application/eventhandler"
	"github.com/vocal-hub/vocal-practice-hub/internal/application/query"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/gamification"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/program"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/reminder"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// Dependencies - всё, что нужно слою приложения от инфраструктуры.
// Invalidator и Cache опциональны: без Redis обработчики просто
// пересчитывают рейтинг на каждый запрос.
type Dependencies struct {
	MemberRepo   member.Repository
	CheckinRepo  checkin.Repository
	StateRepo    gamification.StateRepository
	AwardRepo    gamification.AwardRepository
	ProgramRepo  program.Repository
	ScheduleRepo reminder.Repository

	Roster *member.Roster

	Invalidator command.LeaderboardInvalidator
	Cache       query.LeaderboardCache
	Triggers    command.ReminderTriggers

	EventPublisher shared.EventPublisher
	Engine         *gamification.Engine

	Location *time.Location
	Logger   *slog.Logger
}

// Commands - обработчики команд (изменяют состояние).
type Commands struct {
	RecordCheckin  *command.RecordCheckinHandler
	UndoCheckin    *command.UndoCheckinHandler
	RegisterMember *command.RegisterMemberHandler
	SetReminder    *command.SetReminderHandler
	CancelReminder *command.CancelReminderHandler
}

// Queries - обработчики запросов (только чтение).
type Queries struct {
	WeeklyTable *query.WeeklyTableHandler
	Leaderboard *query.LeaderboardHandler
	Streaks     *query.StreaksHandler
	History     *query.HistoryHandler
	MyProgress  *query.MyProgressHandler
}

// Events - подписчики доменных событий.
type Events struct {
	CheckinAccepted *eventhandler.OnCheckinAcceptedHandler
}

// App - собранный слой приложения.
type App struct {
	Commands Commands
	Queries  Queries
	Events   Events
}

// New собирает все обработчики из зависимостей.
func New(deps Dependencies) *App {
	return &App{
		Commands: Commands{
			RecordCheckin: command.NewRecordCheckinHandler(
				deps.MemberRepo,
				deps.CheckinRepo,
				deps.Invalidator,
				deps.EventPublisher,
				deps.Location,
				deps.Logger,
			),
			UndoCheckin: command.NewUndoCheckinHandler(
				deps.MemberRepo,
				deps.CheckinRepo,
				deps.Invalidator,
				deps.EventPublisher,
				deps.Location,
				deps.Logger,
			),
			RegisterMember: command.NewRegisterMemberHandler(
				deps.MemberRepo,
				deps.Roster,
				deps.EventPublisher,
				deps.Logger,
			),
			SetReminder:    command.NewSetReminderHandler(deps.ScheduleRepo, deps.Triggers),
			CancelReminder: command.NewCancelReminderHandler(deps.ScheduleRepo, deps.Triggers),
		},
		Queries: Queries{
			WeeklyTable: query.NewWeeklyTableHandler(deps.MemberRepo, deps.CheckinRepo, deps.Location),
			Leaderboard: query.NewLeaderboardHandler(deps.MemberRepo, deps.CheckinRepo, deps.Cache, deps.Location),
			Streaks:     query.NewStreaksHandler(deps.CheckinRepo, deps.Location),
			History:     query.NewHistoryHandler(deps.CheckinRepo, deps.Location),
			MyProgress: query.NewMyProgressHandler(
				deps.MemberRepo,
				deps.CheckinRepo,
				deps.StateRepo,
				deps.AwardRepo,
				deps.ProgramRepo,
				deps.Location,
			),
		},
		Events: Events{
			CheckinAccepted: eventhandler.NewOnCheckinAcceptedHandler(
				deps.CheckinRepo,
				deps.StateRepo,
				deps.AwardRepo,
				deps.ProgramRepo,
				deps.Engine,
				deps.EventPublisher,
				deps.Logger,
			),
		},
	}
}
