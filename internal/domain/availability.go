package domain

import "time"

// AvailabilitySlot is a bookable window published by a PT.
// Date is YYYY-MM-DD and Start/End are HH:MM, so string order is time order.
type AvailabilitySlot struct {
	ID        string    `bson:"_id,omitempty" json:"slotId"`
	PTID      string    `bson:"ptId" json:"-"`
	Date      string    `bson:"date" json:"date"`
	Start     string    `bson:"start" json:"start"`
	End       string    `bson:"end" json:"end"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"-"`
}
