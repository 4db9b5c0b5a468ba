package event

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matrix-org/gomatrixserverlib/spec"
)

// Validate checks the identifiers on the envelope. Decoding does not require
// it; the validate command reports failures alongside schema violations.
func (e Event) Validate() error {
	var errs []error

	if !strings.HasPrefix(e.EventID, "$") {
		errs = append(errs, fmt.Errorf("event_id %q must start with '$'", e.EventID))
	}
	if _, err := spec.NewRoomID(e.RoomID); err != nil {
		errs = append(errs, fmt.Errorf("room_id %q: %w", e.RoomID, err))
	}
	if _, err := spec.NewUserID(e.Sender, true); err != nil {
		errs = append(errs, fmt.Errorf("sender %q: %w", e.Sender, err))
	}
	if e.Type == spec.MRoomMember {
		if e.StateKey == nil {
			errs = append(errs, errors.New("m.room.member requires a state_key"))
		} else if _, err := spec.NewUserID(*e.StateKey, true); err != nil {
			errs = append(errs, fmt.Errorf("state_key %q: %w", *e.StateKey, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s: %w", ErrMalformed, e.EventID, errors.Join(errs...))
	}
	return nil
}
