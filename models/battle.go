package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Battle is a public AI-vs-AI voting contest. BattleID is globally unique
// (enforced by a unique index). Participants holds the ids of users who have
// voted; a user appears at most once and votes cannot be retracted.
//
// Invariant: TotalVotes == Model1Votes + Model2Votes at all times. Votes are
// cast with a single atomic update that advances all three counters together.
type Battle struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	BattleID       string             `bson:"battleId" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"-"`
	Creator        string             `bson:"creator" json:"creator"`
	Question       string             `bson:"question" json:"question"`
	Model1         string             `bson:"model1" json:"model1"`
	Model2         string             `bson:"model2" json:"model2"`
	Model1Response string             `bson:"model1Response" json:"model1Response"`
	Model2Response string             `bson:"model2Response" json:"model2Response"`
	Model1Votes    int                `bson:"model1Votes" json:"model1Votes"`
	Model2Votes    int                `bson:"model2Votes" json:"model2Votes"`
	TotalVotes     int                `bson:"totalVotes" json:"totalVotes"`
	Participants   []string           `bson:"participants" json:"participants"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	EndTime        time.Time          `bson:"endTime" json:"endTime"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
}

// Expired reports whether the battle's end time has passed. A battle can be
// expired while still flagged active; readers downgrade it lazily.
func (b *Battle) Expired(now time.Time) bool {
	return now.After(b.EndTime)
}
