package domain

import "time"

// Alert notifies a PT that a dancer's check-in crossed a risk threshold.
// Reviewed only ever moves from false to true.
type Alert struct {
	ID         string         `bson:"_id,omitempty" json:"id"`
	PTID       string         `bson:"ptId" json:"ptId"`
	DancerUID  string         `bson:"dancerUid" json:"dancerUid"`
	Severity   string         `bson:"severity" json:"severity"`
	Reasons    []string       `bson:"reasons,omitempty" json:"reasons,omitempty"`
	Reviewed   bool           `bson:"reviewed" json:"reviewed"`
	Snapshot   *AlertSnapshot `bson:"snapshot,omitempty" json:"snapshot,omitempty"`
	CreatedAt  time.Time      `bson:"createdAt" json:"createdAt"`
	ReviewedAt *time.Time     `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
}

// AlertSnapshot captures the check-in values the alert was raised for.
type AlertSnapshot struct {
	Date string  `bson:"date" json:"date"`
	Load *Number `bson:"load,omitempty" json:"load,omitempty"`
}
