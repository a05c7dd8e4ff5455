package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"promptarena/db"
	"promptarena/models"
	"promptarena/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateUser validates and stores a new account. Email and username
// uniqueness is double-checked here and backed by unique indexes.
func CreateUser(ctx context.Context, email, username, password, confirmPassword string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if !utils.ValidEmail(email) {
		return nil, validationError("invalid email address")
	}
	if utils.IsDisposableEmail(email) {
		return nil, validationError("disposable email addresses are not allowed")
	}
	if password != confirmPassword {
		return nil, validationError("passwords do not match")
	}

	if n, err := db.UserCollection.CountDocuments(ctx, bson.M{"email": email}); err != nil {
		return nil, err
	} else if n > 0 {
		return nil, ErrEmailTaken
	}
	if n, err := db.UserCollection.CountDocuments(ctx, bson.M{"username": username}); err != nil {
		return nil, err
	} else if n > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		Email:          email,
		Username:       username,
		PasswordHash:   hash,
		LastTokenReset: now,
		CreatedAt:      now,
	}

	res, err := db.UserCollection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}

// Authenticate checks credentials and returns the account. Any mismatch
// yields the same generic error.
func Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetUser loads an account by the hex id stored in the JWT.
func GetUser(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	var user models.User
	if err := db.UserCollection.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetProfile returns the account with the monthly counter lazily reset when
// the calendar month has rolled over since the last reset.
func GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if needsMonthlyReset(user.LastTokenReset, now) {
		_, err := db.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
			"$set": bson.M{"monthlyTokens": int64(0), "lastTokenReset": now},
		})
		if err != nil {
			return nil, err
		}
		user.MonthlyTokens = 0
		user.LastTokenReset = now
	}
	return user, nil
}

// AddTokenUsage increments the lifetime and monthly counters atomically. On
// the first call after a month rollover the monthly counter is set to exactly
// the increment, not accumulated onto the stale value.
func AddTokenUsage(ctx context.Context, userID string, tokens int64) (*models.User, error) {
	if tokens < 0 {
		return nil, validationError("tokens must be >= 0")
	}
	user, err := GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var update bson.M
	if needsMonthlyReset(user.LastTokenReset, now) {
		update = bson.M{
			"$set": bson.M{"monthlyTokens": tokens, "lastTokenReset": now},
			"$inc": bson.M{"totalTokens": tokens},
		}
	} else {
		update = bson.M{
			"$inc": bson.M{"totalTokens": tokens, "monthlyTokens": tokens},
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	if err := db.UserCollection.FindOneAndUpdate(ctx, bson.M{"_id": user.ID}, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// ChangePassword rotates the password after verifying the current one.
func ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return validationError("current password is incorrect")
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	_, err = db.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set": bson.M{"passwordHash": hash},
	})
	return err
}

// UpdateProfile changes email and/or username, rejecting collisions with
// other accounts.
func UpdateProfile(ctx context.Context, userID, email, username string) (*models.User, error) {
	user, err := GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if email != "" {
		email = strings.ToLower(strings.TrimSpace(email))
		if !utils.ValidEmail(email) {
			return nil, validationError("invalid email address")
		}
		if utils.IsDisposableEmail(email) {
			return nil, validationError("disposable email addresses are not allowed")
		}
		n, err := db.UserCollection.CountDocuments(ctx, bson.M{"email": email, "_id": bson.M{"$ne": user.ID}})
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, ErrEmailTaken
		}
		set["email"] = email
	}
	if username != "" {
		username = strings.TrimSpace(username)
		if len(username) < 3 || len(username) > 30 {
			return nil, validationError("username must be 3-30 characters")
		}
		n, err := db.UserCollection.CountDocuments(ctx, bson.M{"username": username, "_id": bson.M{"$ne": user.ID}})
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, ErrUsernameTaken
		}
		set["username"] = username
	}
	if len(set) == 0 {
		return user, nil
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	if err := db.UserCollection.FindOneAndUpdate(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// needsMonthlyReset reports whether now falls in a different calendar month
// (or year) than the last reset.
func needsMonthlyReset(lastReset, now time.Time) bool {
	return lastReset.Month() != now.Month() || lastReset.Year() != now.Year()
}
