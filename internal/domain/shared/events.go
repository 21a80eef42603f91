package shared

import (
	"time"
)

// EventType defines the type of domain event.
type EventType string

// Domain event types.
const (
	// Check-in events
	EventCheckinAccepted EventType = "checkin.accepted"
	EventCheckinUndone   EventType = "checkin.undone"
	EventWeekCompleted   EventType = "checkin.week_completed"

	// Gamification events
	EventXPAwarded     EventType = "gamification.xp_awarded"
	EventLevelUp       EventType = "gamification.level_up"
	EventBadgeUnlocked EventType = "gamification.badge_unlocked"

	// Member events
	EventMemberRegistered EventType = "member.registered"

	// Rollover events
	EventWeekArchived EventType = "rollover.week_archived"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CHECK-IN EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// CheckinAcceptedEvent is published when a check-in passes all ledger rules
// and is committed. WeeklyCount is the member's slot count for the week
// after this check-in (1..3).
type CheckinAcceptedEvent struct {
	BaseEvent
	MemberID    string
	DisplayName string
	WeekStart   time.Time
	LocalDate   time.Time
	Slot        int
	WeeklyCount int
	Minutes     int
}

// NewCheckinAcceptedEvent creates a new check-in accepted event.
func NewCheckinAcceptedEvent(memberID, displayName string, weekStart, localDate time.Time, slot, weeklyCount, minutes int) *CheckinAcceptedEvent {
	return &CheckinAcceptedEvent{
		BaseEvent:   NewBaseEvent(EventCheckinAccepted, memberID),
		MemberID:    memberID,
		DisplayName: displayName,
		WeekStart:   weekStart,
		LocalDate:   localDate,
		Slot:        slot,
		WeeklyCount: weeklyCount,
		Minutes:     minutes,
	}
}

// Payload implements Event interface.
func (e *CheckinAcceptedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":    e.MemberID,
		"display_name": e.DisplayName,
		"week_start":   e.WeekStart.Format("2006-01-02"),
		"local_date":   e.LocalDate.Format("2006-01-02"),
		"slot":         e.Slot,
		"weekly_count": e.WeeklyCount,
		"minutes":      e.Minutes,
	}
}

// CheckinUndoneEvent is published when the latest check-in of the week
// is removed. RemainingCount is the member's slot count after removal.
type CheckinUndoneEvent struct {
	BaseEvent
	MemberID       string
	DisplayName    string
	WeekStart      time.Time
	RemovedSlot    int
	RemainingCount int
}

// NewCheckinUndoneEvent creates a new check-in undone event.
func NewCheckinUndoneEvent(memberID, displayName string, weekStart time.Time, removedSlot, remainingCount int) *CheckinUndoneEvent {
	return &CheckinUndoneEvent{
		BaseEvent:      NewBaseEvent(EventCheckinUndone, memberID),
		MemberID:       memberID,
		DisplayName:    displayName,
		WeekStart:      weekStart,
		RemovedSlot:    removedSlot,
		RemainingCount: remainingCount,
	}
}

// Payload implements Event interface.
func (e *CheckinUndoneEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":       e.MemberID,
		"display_name":    e.DisplayName,
		"week_start":      e.WeekStart.Format("2006-01-02"),
		"removed_slot":    e.RemovedSlot,
		"remaining_count": e.RemainingCount,
	}
}

// WeekCompletedEvent is published on the transition to a full week
// (third slot claimed).
type WeekCompletedEvent struct {
	BaseEvent
	MemberID    string
	DisplayName string
	WeekStart   time.Time
}

// NewWeekCompletedEvent creates a new week completed event.
func NewWeekCompletedEvent(memberID, displayName string, weekStart time.Time) *WeekCompletedEvent {
	return &WeekCompletedEvent{
		BaseEvent:   NewBaseEvent(EventWeekCompleted, memberID),
		MemberID:    memberID,
		DisplayName: displayName,
		WeekStart:   weekStart,
	}
}

// Payload implements Event interface.
func (e *WeekCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":    e.MemberID,
		"display_name": e.DisplayName,
		"week_start":   e.WeekStart.Format("2006-01-02"),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GAMIFICATION EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// XPAwardedEvent is published when a member earns XP.
type XPAwardedEvent struct {
	BaseEvent
	MemberID string
	Amount   int
	Reason   string
	TotalXP  int
}

// NewXPAwardedEvent creates a new XP awarded event.
func NewXPAwardedEvent(memberID string, amount int, reason string, totalXP int) *XPAwardedEvent {
	return &XPAwardedEvent{
		BaseEvent: NewBaseEvent(EventXPAwarded, memberID),
		MemberID:  memberID,
		Amount:    amount,
		Reason:    reason,
		TotalXP:   totalXP,
	}
}

// Payload implements Event interface.
func (e *XPAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id": e.MemberID,
		"amount":    e.Amount,
		"reason":    e.Reason,
		"total_xp":  e.TotalXP,
	}
}

// LevelUpEvent is published when accumulated XP crosses a level threshold.
type LevelUpEvent struct {
	BaseEvent
	MemberID    string
	DisplayName string
	OldLevel    int
	NewLevel    int
	TotalXP     int
}

// NewLevelUpEvent creates a new level up event.
func NewLevelUpEvent(memberID, displayName string, oldLevel, newLevel, totalXP int) *LevelUpEvent {
	return &LevelUpEvent{
		BaseEvent:   NewBaseEvent(EventLevelUp, memberID),
		MemberID:    memberID,
		DisplayName: displayName,
		OldLevel:    oldLevel,
		NewLevel:    newLevel,
		TotalXP:     totalXP,
	}
}

// Payload implements Event interface.
func (e *LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":    e.MemberID,
		"display_name": e.DisplayName,
		"old_level":    e.OldLevel,
		"new_level":    e.NewLevel,
		"total_xp":     e.TotalXP,
	}
}

// BadgeUnlockedEvent is published when a member earns a badge for the
// first time. Re-earning an already granted badge publishes nothing.
type BadgeUnlockedEvent struct {
	BaseEvent
	MemberID    string
	DisplayName string
	BadgeCode   string
	BadgeTitle  string
}

// NewBadgeUnlockedEvent creates a new badge unlocked event.
func NewBadgeUnlockedEvent(memberID, displayName, badgeCode, badgeTitle string) *BadgeUnlockedEvent {
	return &BadgeUnlockedEvent{
		BaseEvent:   NewBaseEvent(EventBadgeUnlocked, memberID),
		MemberID:    memberID,
		DisplayName: displayName,
		BadgeCode:   badgeCode,
		BadgeTitle:  badgeTitle,
	}
}

// Payload implements Event interface.
func (e *BadgeUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":    e.MemberID,
		"display_name": e.DisplayName,
		"badge_code":   e.BadgeCode,
		"badge_title":  e.BadgeTitle,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// MemberRegisteredEvent is published when a roster member links their
// external chat identity.
type MemberRegisteredEvent struct {
	BaseEvent
	MemberID    string
	DisplayName string
	ExternalID  int64
}

// NewMemberRegisteredEvent creates a new member registered event.
func NewMemberRegisteredEvent(memberID, displayName string, externalID int64) *MemberRegisteredEvent {
	return &MemberRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventMemberRegistered, memberID),
		MemberID:    memberID,
		DisplayName: displayName,
		ExternalID:  externalID,
	}
}

// Payload implements Event interface.
func (e *MemberRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":    e.MemberID,
		"display_name": e.DisplayName,
		"external_id":  e.ExternalID,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ROLLOVER EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// WeekArchivedEvent is published after a completed week rollover.
type WeekArchivedEvent struct {
	BaseEvent
	WeekStart     time.Time
	RecordsMoved  int
	FullWeekCount int
}

// NewWeekArchivedEvent creates a new week archived event.
func NewWeekArchivedEvent(weekStart time.Time, recordsMoved, fullWeekCount int) *WeekArchivedEvent {
	return &WeekArchivedEvent{
		BaseEvent:     NewBaseEvent(EventWeekArchived, "system"),
		WeekStart:     weekStart,
		RecordsMoved:  recordsMoved,
		FullWeekCount: fullWeekCount,
	}
}

// Payload implements Event interface.
func (e *WeekArchivedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"week_start":      e.WeekStart.Format("2006-01-02"),
		"records_moved":   e.RecordsMoved,
		"full_week_count": e.FullWeekCount,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT BUS CONTRACTS
// ══════════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles domain events.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	// Publish publishes an event to all subscribers.
	Publish(event Event) error
}

// EventSubscriber subscribes to domain events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// Unsubscribe removes a handler for a specific event type.
	Unsubscribe(eventType EventType, handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
