package viewsync

import (
	"context"
	"sort"
	"strings"

	"onpointe/prevention/internal/backend"
	"onpointe/prevention/internal/domain"
)

// RefreshAvailability loads the PT's own slots, or the linked PT's slots
// for a dancer.
func (s *Synchronizer) RefreshAvailability(ctx context.Context) {
	s.mu.Lock()
	role := s.session.Role
	if role == domain.RoleUnset {
		s.mu.Unlock()
		return
	}
	t := s.beginLocked("availability")
	s.view.Availability.Loading = true
	s.view.Availability.Message = ""
	s.mu.Unlock()
	s.notify()

	var (
		slots []domain.AvailabilitySlot
		err   error
	)
	if role == domain.RolePT {
		slots, err = s.backend.GetMyAvailability(ctx)
	} else {
		slots, err = s.backend.GetLinkedPTAvailability(ctx)
	}

	s.finish(t, func(v *View) {
		v.Availability.Loading = false
		if err != nil {
			v.Availability.Message = err.Error()
			v.Availability.Slots = nil
			return
		}
		v.Availability.Subtitle = "Your PT's upcoming slots"
		if role == domain.RolePT {
			v.Availability.Subtitle = "Your upcoming slots"
		}
		v.Availability.Slots = SlotRows(slots, role == domain.RolePT)
		if len(v.Availability.Slots) == 0 {
			v.Availability.Message = "No slots yet."
		}
	})
}

// AddAvailability publishes a slot. The date defaults to today.
func (s *Synchronizer) AddAvailability(ctx context.Context, in backend.SlotInput) error {
	if s.Session().Role != domain.RolePT {
		return ErrWrongRole
	}
	in.Date = strings.TrimSpace(in.Date)
	if in.Date == "" {
		in.Date = s.today()
	}
	in.Start = strings.TrimSpace(in.Start)
	in.End = strings.TrimSpace(in.End)
	in.Note = strings.TrimSpace(in.Note)

	s.update(func(v *View) { v.Availability.Message = "" })
	if err := s.backend.SetMyAvailability(ctx, in); err != nil {
		s.update(func(v *View) { v.Availability.Message = err.Error() })
		return err
	}
	s.RefreshAvailability(ctx)
	return nil
}

// DeleteAvailability removes one of the PT's slots.
func (s *Synchronizer) DeleteAvailability(ctx context.Context, slotID string) error {
	if s.Session().Role != domain.RolePT {
		return ErrWrongRole
	}
	if err := s.backend.DeleteMyAvailability(ctx, slotID); err != nil {
		s.update(func(v *View) { v.Availability.Message = err.Error() })
		return err
	}
	s.RefreshAvailability(ctx)
	return nil
}

// SlotRows orders slots by (date, start). Both are zero-padded, so plain
// string comparison is time order.
func SlotRows(slots []domain.AvailabilitySlot, deletable bool) []SlotRow {
	sorted := append([]domain.AvailabilitySlot(nil), slots...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date+sorted[i].Start < sorted[j].Date+sorted[j].Start
	})

	rows := make([]SlotRow, 0, len(sorted))
	for _, slot := range sorted {
		rows = append(rows, SlotRow{
			SlotID:    slot.ID,
			Date:      slot.Date,
			Start:     slot.Start,
			End:       slot.End,
			Note:      slot.Note,
			Deletable: deletable,
		})
	}
	return rows
}
