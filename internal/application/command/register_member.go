package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER MEMBER COMMAND
// Привязывает аккаунт мессенджера к имени из ростера. Семантика замены:
// повторная регистрация того же аккаунта под другим именем перевешивает
// привязку, старое имя остаётся в ростере без аккаунта.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterMemberCommand содержит данные для регистрации.
type RegisterMemberCommand struct {
	// ExternalID - идентификатор пользователя в мессенджере.
	ExternalID int64

	// DisplayName - заявленное имя из ростера.
	DisplayName string
}

// Validate проверяет корректность команды.
func (c RegisterMemberCommand) Validate() error {
	if !member.ExternalID(c.ExternalID).IsValid() {
		return shared.ErrInvalidExternalID
	}
	if !member.DisplayName(c.DisplayName).IsValid() {
		return member.ErrInvalidDisplayName
	}
	return nil
}

// RegisterMemberResult содержит результат регистрации.
type RegisterMemberResult struct {
	// Member - участник с привязанным аккаунтом.
	Member *member.Member

	// Relinked - true, если аккаунт был перевешен с другого имени.
	Relinked bool
}

// RegisterMemberHandler обрабатывает RegisterMemberCommand.
type RegisterMemberHandler struct {
	memberRepo     member.Repository
	roster         *member.Roster
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
}

// NewRegisterMemberHandler создаёт новый RegisterMemberHandler.
func NewRegisterMemberHandler(
	memberRepo member.Repository,
	roster *member.Roster,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *RegisterMemberHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterMemberHandler{
		memberRepo:     memberRepo,
		roster:         roster,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Handle выполняет команду регистрации.
func (h *RegisterMemberHandler) Handle(ctx context.Context, cmd RegisterMemberCommand) (*RegisterMemberResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	canonical, ok := h.roster.Canonical(member.DisplayName(cmd.DisplayName))
	if !ok {
		return nil, shared.ErrNameNotOnRoster
	}

	now := time.Now()
	result := &RegisterMemberResult{}

	// Семантика замены: если аккаунт уже привязан к другому имени,
	// старая привязка снимается.
	if prev, err := h.memberRepo.GetByExternalID(ctx, member.ExternalID(cmd.ExternalID)); err == nil {
		if prev.DisplayName.Equal(canonical) {
			result.Member = prev
			return result, nil
		}
		prev.ExternalID = 0
		prev.UpdatedAt = now
		if err := h.memberRepo.Update(ctx, prev); err != nil {
			return nil, fmt.Errorf("register_member: failed to unlink previous name: %w", err)
		}
		result.Relinked = true
	}

	target, err := h.memberRepo.GetByDisplayName(ctx, canonical)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("register_member: %w", err)
		}
		// Ростер сидируется при старте, но участника могли добавить
		// в ростер конфигурацией позже сидирования.
		target, err = member.NewMember(uuid.New().String(), canonical)
		if err != nil {
			return nil, fmt.Errorf("register_member: %w", err)
		}
		if err := h.memberRepo.Create(ctx, target); err != nil {
			return nil, fmt.Errorf("register_member: %w", err)
		}
	}

	if err := target.Link(member.ExternalID(cmd.ExternalID), now); err != nil {
		return nil, err
	}
	if err := h.memberRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("register_member: failed to save link: %w", err)
	}

	result.Member = target

	event := shared.NewMemberRegisteredEvent(target.ID, target.DisplayName.String(), cmd.ExternalID)
	if err := h.eventPublisher.Publish(event); err != nil {
		h.logger.Error("failed to publish event",
			"event_type", event.EventType(), "member_id", target.ID, "error", err)
	}

	return result, nil
}
