// Package member содержит доменную модель участника вокальной группы.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package member

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ExternalID представляет уникальный идентификатор пользователя в мессенджере.
type ExternalID int64

// IsValid проверяет, что ExternalID положительный.
func (e ExternalID) IsValid() bool {
	return e > 0
}

// DisplayName представляет имя участника из ростера группы.
type DisplayName string

// IsValid проверяет корректность имени.
func (d DisplayName) IsValid() bool {
	s := string(d)
	return len(s) >= 1 && len(s) <= 64 && strings.TrimSpace(s) == s && s != ""
}

// String возвращает строковое представление имени.
func (d DisplayName) String() string {
	return string(d)
}

// Normalized возвращает имя в каноническом виде для сравнения с ростером.
// Сравнение нечувствительно к регистру.
func (d DisplayName) Normalized() string {
	return strings.ToLower(strings.TrimSpace(string(d)))
}

// Equal сравнивает два имени без учёта регистра.
func (d DisplayName) Equal(other DisplayName) bool {
	return d.Normalized() == other.Normalized()
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет текущий статус участника в группе.
type Status string

const (
	// StatusActive - участник активен и учитывается в таблицах и напоминаниях.
	StatusActive Status = "active"
	// StatusPaused - участник взял паузу: напоминания не шлются,
	// но история сохраняется.
	StatusPaused Status = "paused"
	// StatusLeft - участник покинул группу.
	StatusLeft Status = "left"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusLeft:
		return true
	default:
		return false
	}
}

// CanReceiveReminders возвращает true, если участнику можно слать напоминания.
func (s Status) CanReceiveReminders() bool {
	return s == StatusActive
}

// CountsInTables возвращает true, если участник отображается в недельной таблице.
func (s Status) CountsInTables() bool {
	return s == StatusActive || s == StatusPaused
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: MEMBER
// ══════════════════════════════════════════════════════════════════════════════

// Member - центральная сущность системы, представляющая участника группы.
type Member struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// ExternalID - идентификатор пользователя в мессенджере.
	// Ноль означает, что участник ещё не привязал свой аккаунт.
	ExternalID ExternalID

	// DisplayName - имя участника из ростера.
	DisplayName DisplayName

	// Status - текущий статус в группе.
	Status Status

	// IsAdmin - администратор группы (может запускать служебные операции).
	IsAdmin bool

	// RegisteredAt - время привязки аккаунта мессенджера.
	RegisteredAt time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidExternalID - невалидный идентификатор мессенджера.
	ErrInvalidExternalID = errors.New("invalid external id: must be positive")

	// ErrInvalidDisplayName - невалидное имя участника.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-64 chars without surrounding whitespace")

	// ErrInvalidStatus - невалидный статус участника.
	ErrInvalidStatus = errors.New("invalid member status")

	// ErrNotRegistered - участник не привязал аккаунт мессенджера.
	ErrNotRegistered = errors.New("member has not linked a messenger account")
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTRUCTORS AND METHODS
// ══════════════════════════════════════════════════════════════════════════════

// NewMember создаёт нового участника из ростера. Аккаунт мессенджера
// на этом этапе ещё не привязан.
func NewMember(id string, name DisplayName) (*Member, error) {
	if !name.IsValid() {
		return nil, ErrInvalidDisplayName
	}

	now := time.Now()
	return &Member{
		ID:          id,
		DisplayName: name,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Link привязывает аккаунт мессенджера к участнику.
func (m *Member) Link(externalID ExternalID, at time.Time) error {
	if !externalID.IsValid() {
		return ErrInvalidExternalID
	}
	m.ExternalID = externalID
	m.RegisteredAt = at
	m.UpdatedAt = at
	return nil
}

// IsLinked возвращает true, если участник привязал аккаунт мессенджера.
func (m *Member) IsLinked() bool {
	return m.ExternalID.IsValid()
}

// Pause переводит участника в статус паузы.
func (m *Member) Pause() {
	m.Status = StatusPaused
	m.UpdatedAt = time.Now()
}

// Resume возвращает участника в активный статус.
func (m *Member) Resume() {
	m.Status = StatusActive
	m.UpdatedAt = time.Now()
}

// Leave помечает участника как покинувшего группу.
func (m *Member) Leave() {
	m.Status = StatusLeft
	m.UpdatedAt = time.Now()
}

// Validate проверяет корректность всех полей участника.
func (m *Member) Validate() error {
	if m.ID == "" {
		return errors.New("member id is required")
	}
	if !m.DisplayName.IsValid() {
		return ErrInvalidDisplayName
	}
	if !m.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}
