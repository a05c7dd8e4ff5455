package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"promptarena/db"
	"promptarena/internal/battleindex"
	"promptarena/internal/metrics"
	"promptarena/models"
	"promptarena/structs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultBattleDuration = 5
	maxBattleDuration     = 1440
)

// newBattleID returns a timestamp-plus-random-suffix id. Uniqueness is
// enforced by the index on battleId, not by the generator.
func newBattleID() string {
	return fmt.Sprintf("%d-%06x", time.Now().UnixMilli(), rand.Intn(1<<24))
}

// CreateBattle validates and stores a new community battle owned by the
// caller.
func CreateBattle(ctx context.Context, userID string, req structs.CreateBattleRequest) (*models.Battle, error) {
	user, err := GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(req.Question) < 1 || len(req.Question) > 1000 {
		return nil, validationError("question must be 1-1000 characters")
	}
	if req.Model1 == "" || req.Model2 == "" {
		return nil, validationError("model1 and model2 are required")
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = defaultBattleDuration
	}
	if duration < 1 || duration > maxBattleDuration {
		return nil, validationError("duration must be 1-1440 minutes")
	}

	now := time.Now()
	battle := models.Battle{
		BattleID:       newBattleID(),
		UserID:         user.ID,
		Creator:        user.Username,
		Question:       req.Question,
		Model1:         req.Model1,
		Model2:         req.Model2,
		Model1Response: req.Model1Response,
		Model2Response: req.Model2Response,
		Participants:   []string{},
		CreatedAt:      now,
		EndTime:        now.Add(time.Duration(duration) * time.Minute),
		IsActive:       true,
	}

	if _, err := db.BattleCollection.InsertOne(ctx, battle); err != nil {
		// Timestamp collision on the generated id: regenerate once.
		if mongo.IsDuplicateKeyError(err) {
			battle.BattleID = newBattleID()
			if _, err := db.BattleCollection.InsertOne(ctx, battle); err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	battleindex.Track(ctx, battle.BattleID, battle.EndTime)
	return &battle, nil
}

// ListBattles returns the global feed, newest first. Battles whose end time
// has passed while still flagged active are downgraded lazily, both in the
// returned payload and in storage.
func ListBattles(ctx context.Context) ([]models.Battle, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := db.BattleCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	battles := []models.Battle{}
	if err := cursor.All(ctx, &battles); err != nil {
		return nil, err
	}

	now := time.Now()
	var expired []string
	for i := range battles {
		if battles[i].IsActive && battles[i].Expired(now) {
			battles[i].IsActive = false
			expired = append(expired, battles[i].BattleID)
		}
	}
	if len(expired) > 0 {
		_, err := db.BattleCollection.UpdateMany(ctx,
			bson.M{"battleId": bson.M{"$in": expired}},
			bson.M{"$set": bson.M{"isActive": false}})
		if err != nil {
			return nil, err
		}
		battleindex.Sweep(ctx, now)
	}
	return battles, nil
}

// GetBattle fetches one battle by id, downgrading it lazily if expired.
func GetBattle(ctx context.Context, battleID string) (*models.Battle, error) {
	var battle models.Battle
	err := db.BattleCollection.FindOne(ctx, bson.M{"battleId": battleID}).Decode(&battle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	if battle.IsActive && battle.Expired(now) {
		_, err := db.BattleCollection.UpdateOne(ctx,
			bson.M{"battleId": battleID},
			bson.M{"$set": bson.M{"isActive": false}})
		if err != nil {
			return nil, err
		}
		battle.IsActive = false
		battleindex.Untrack(ctx, battleID)
	}
	return &battle, nil
}

// UpdateBattle merges the present fields of a partial update into the stored
// record. Used primarily to flip isActive off when a client notices an
// expired battle.
func UpdateBattle(ctx context.Context, battleID string, req structs.UpdateBattleRequest) (*models.Battle, error) {
	set := bson.M{}
	if req.Model1Votes != nil {
		set["model1Votes"] = *req.Model1Votes
	}
	if req.Model2Votes != nil {
		set["model2Votes"] = *req.Model2Votes
	}
	if req.TotalVotes != nil {
		set["totalVotes"] = *req.TotalVotes
	}
	if req.Participants != nil {
		set["participants"] = *req.Participants
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}
	if req.Model1Response != nil {
		set["model1Response"] = *req.Model1Response
	}
	if req.Model2Response != nil {
		set["model2Response"] = *req.Model2Response
	}
	if len(set) == 0 {
		return nil, validationError("no updatable fields provided")
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Battle
	err := db.BattleCollection.FindOneAndUpdate(ctx, bson.M{"battleId": battleID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.IsActive != nil && !*req.IsActive {
		battleindex.Untrack(ctx, battleID)
	}
	return &updated, nil
}

// VoteBattle casts a vote for model1 or model2. The guard conditions (battle
// active, not expired, caller not already a participant) and both counter
// increments travel in one atomic update, so totalVotes can never drift from
// model1Votes+model2Votes and a racing double vote cannot slip through.
func VoteBattle(ctx context.Context, battleID, userID, choice string) (*models.Battle, error) {
	if choice != "model1" && choice != "model2" {
		return nil, validationError("model must be model1 or model2")
	}

	now := time.Now()
	filter := bson.M{
		"battleId":     battleID,
		"isActive":     true,
		"endTime":      bson.M{"$gt": now},
		"participants": bson.M{"$ne": userID},
	}
	update := bson.M{
		"$inc":      bson.M{choice + "Votes": 1, "totalVotes": 1},
		"$addToSet": bson.M{"participants": userID},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Battle
	err := db.BattleCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		metrics.VotesTotal.Inc()
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// The guarded update matched nothing; re-read to report why.
	battle, err := GetBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	return nil, classifyVoteFailure(battle, userID, now)
}

// classifyVoteFailure explains a rejected vote for a battle that does exist.
func classifyVoteFailure(battle *models.Battle, userID string, now time.Time) error {
	for _, p := range battle.Participants {
		if p == userID {
			return ErrAlreadyVoted
		}
	}
	if !battle.IsActive || battle.Expired(now) {
		return ErrBattleClosed
	}
	// Matched nothing yet looks votable now: a concurrent update won the
	// race. Treat as closed rather than retrying.
	return ErrBattleClosed
}

// DeleteBattle removes a battle; only its creator may do so.
func DeleteBattle(ctx context.Context, userID, battleID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}

	var battle models.Battle
	if err := db.BattleCollection.FindOne(ctx, bson.M{"battleId": battleID}).Decode(&battle); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	if battle.UserID != oid {
		return ErrForbidden
	}

	if _, err := db.BattleCollection.DeleteOne(ctx, bson.M{"battleId": battleID}); err != nil {
		return err
	}
	battleindex.Untrack(ctx, battleID)
	return nil
}

// CleanupExpiredBattles flips every expired-but-active battle inactive and
// returns how many were affected. The Redis deadline index narrows the sweep
// when available; the Mongo isActive/endTime index covers the fallback.
func CleanupExpiredBattles(ctx context.Context) (int64, error) {
	now := time.Now()

	filter := bson.M{"isActive": true, "endTime": bson.M{"$lt": now}}
	if due := battleindex.Due(ctx, now); len(due) > 0 {
		filter["battleId"] = bson.M{"$in": due}
	} else if battleindex.Enabled() {
		// Index is live and reports nothing due; trust it and skip the scan.
		return 0, nil
	}

	res, err := db.BattleCollection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"isActive": false}})
	if err != nil {
		return 0, err
	}
	battleindex.Sweep(ctx, now)
	return res.ModifiedCount, nil
}
