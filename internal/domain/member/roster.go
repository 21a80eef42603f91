package member

import (
	"errors"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER
// Ростер - закрытый список имён участников группы. Только имена из
// ростера могут привязывать аккаунты и отмечать занятия.
// ══════════════════════════════════════════════════════════════════════════════

// Roster представляет упорядоченный список имён участников группы.
// Порядок ростера определяет порядок строк в недельной таблице.
type Roster struct {
	names []DisplayName
	index map[string]int // normalized name -> position
}

// ErrEmptyRoster - ростер не может быть пустым.
var ErrEmptyRoster = errors.New("roster must contain at least one name")

// ErrDuplicateRosterName - имя встречается в ростере дважды.
var ErrDuplicateRosterName = errors.New("duplicate name in roster")

// NewRoster создаёт ростер из списка имён. Имена сравниваются без
// учёта регистра, дубликаты не допускаются.
func NewRoster(names []string) (*Roster, error) {
	if len(names) == 0 {
		return nil, ErrEmptyRoster
	}

	r := &Roster{
		names: make([]DisplayName, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, raw := range names {
		name := DisplayName(strings.TrimSpace(raw))
		if !name.IsValid() {
			return nil, ErrInvalidDisplayName
		}
		key := name.Normalized()
		if _, ok := r.index[key]; ok {
			return nil, ErrDuplicateRosterName
		}
		r.index[key] = len(r.names)
		r.names = append(r.names, name)
	}
	return r, nil
}

// Contains проверяет, есть ли имя в ростере.
func (r *Roster) Contains(name DisplayName) bool {
	_, ok := r.index[name.Normalized()]
	return ok
}

// Canonical возвращает каноническую форму имени из ростера
// (с тем регистром, в котором оно записано в ростере).
func (r *Roster) Canonical(name DisplayName) (DisplayName, bool) {
	pos, ok := r.index[name.Normalized()]
	if !ok {
		return "", false
	}
	return r.names[pos], true
}

// Position возвращает позицию имени в ростере (0-based).
func (r *Roster) Position(name DisplayName) (int, bool) {
	pos, ok := r.index[name.Normalized()]
	return pos, ok
}

// Names возвращает копию списка имён в порядке ростера.
func (r *Roster) Names() []DisplayName {
	out := make([]DisplayName, len(r.names))
	copy(out, r.names)
	return out
}

// Size возвращает количество имён в ростере.
func (r *Roster) Size() int {
	return len(r.names)
}
