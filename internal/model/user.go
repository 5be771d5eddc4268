package model

import "strings"

// UserProfile holds the occupancy markers consulted for bundle discounts.
type UserProfile struct {
	ID                string  `json:"id"`
	CurrentSeat       *string `json:"current_seat,omitempty"`
	CurrentHostelRoom *string `json:"current_hostel_room,omitempty"`
}

// HasActiveSeat reports whether the user currently holds a reading room seat.
func (u *UserProfile) HasActiveSeat() bool {
	return u != nil && u.CurrentSeat != nil && strings.TrimSpace(*u.CurrentSeat) != ""
}

// HasActiveHostelRoom reports whether the user currently holds a hostel room.
func (u *UserProfile) HasActiveHostelRoom() bool {
	return u != nil && u.CurrentHostelRoom != nil && strings.TrimSpace(*u.CurrentHostelRoom) != ""
}
