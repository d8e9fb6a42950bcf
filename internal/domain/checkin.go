package domain

import "time"

// CheckIn is a dancer's daily self-report. One per (dancer, date); writes are
// upserts keyed by date.
type CheckIn struct {
	ID        string    `bson:"_id,omitempty" json:"-"`
	DancerID  string    `bson:"dancerId" json:"dancerId,omitempty"`
	Date      string    `bson:"date" json:"date"` // ISO calendar date, natural key
	Minutes   Number    `bson:"minutes" json:"minutes"`
	RPE       Number    `bson:"rpe" json:"rpe"`
	Fatigue   Number    `bson:"fatigue" json:"fatigue"`
	Sore      Number    `bson:"sore" json:"sore"`
	Sleep     Number    `bson:"sleep" json:"sleep"`
	Notes     string    `bson:"notes" json:"notes"`
	Risk      *Risk     `bson:"risk,omitempty" json:"risk,omitempty"` // Written by the server evaluator
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Risk is the server-computed assessment stored on a check-in.
// Severity is kept raw so unknown values can fall through on the client.
type Risk struct {
	Severity    string    `bson:"severity" json:"severity"`
	Reasons     []string  `bson:"reasons,omitempty" json:"reasons,omitempty"`
	Load        *Number   `bson:"load,omitempty" json:"load,omitempty"`
	ACWR        *Number   `bson:"acwr,omitempty" json:"acwr,omitempty"`
	EvaluatedAt time.Time `bson:"evaluatedAt" json:"evaluatedAt"`
}
