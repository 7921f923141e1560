package service

import "github.com/Shivanand-hulikatti/event-reservations/internal/model"

func requireAdmin(caller model.Identity) error {
	if !caller.IsAdmin() {
		return model.Forbidden("admin access required")
	}
	return nil
}

func requireParticipant(caller model.Identity) error {
	if !caller.IsParticipant() {
		return model.Forbidden("only participants can reserve events")
	}
	return nil
}

// requireOwner checks that the admin caller created e.
func requireOwner(caller model.Identity, e *model.Event) error {
	if e.CreatorID != caller.UserID {
		return model.Forbidden("you can only manage your own events")
	}
	return nil
}
