package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/errors"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/mongodb"
)

const notificationsCollection = "scheduled_notifications"

// NotificationRepository handles scheduled notification data operations
type NotificationRepository struct {
	client *mongodb.MongoClient
}

// NewNotificationRepository creates a new repository
func NewNotificationRepository(client *mongodb.MongoClient) *NotificationRepository {
	return &NotificationRepository{client: client}
}

// EnsureIndexes creates the secondary lookup indexes
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "task_id", Value: 1},
			},
			Options: options.Index().SetName("task_id_idx"),
		},
		{
			Keys: bson.D{
				{Key: "is_triggered", Value: 1},
				{Key: "scheduled_time", Value: 1},
			},
			Options: options.Index().SetName("due_scan_idx"),
		},
	}

	return r.client.CreateIndexes(ctx, notificationsCollection, indexes)
}

// Create persists a new scheduled notification. Time validation is the
// scheduling entry point's responsibility, not the repository's.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.ScheduledNotification) error {
	_, err := r.client.Collection(notificationsCollection).InsertOne(ctx, n)
	if err != nil {
		return errors.NewStorageUnavailableError("failed to create notification", err)
	}
	return nil
}

// FindByID finds a scheduled notification by ID
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*domain.ScheduledNotification, error) {
	var n domain.ScheduledNotification
	err := r.client.Collection(notificationsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, errors.NewNotFoundError("notification not found", err)
	}
	if err != nil {
		return nil, errors.NewStorageUnavailableError("failed to find notification", err)
	}
	return &n, nil
}

// FindAll returns every record with no ordering guarantee
func (r *NotificationRepository) FindAll(ctx context.Context) ([]*domain.ScheduledNotification, error) {
	return r.find(ctx, bson.M{})
}

// FindByTaskID returns all notifications belonging to a task
func (r *NotificationRepository) FindByTaskID(ctx context.Context, taskID string) ([]*domain.ScheduledNotification, error) {
	return r.find(ctx, bson.M{"task_id": taskID})
}

// FindDueUntriggered returns undelivered notifications whose scheduled time
// has elapsed as of now
func (r *NotificationRepository) FindDueUntriggered(ctx context.Context, now time.Time) ([]*domain.ScheduledNotification, error) {
	filter := bson.M{
		"is_triggered":   false,
		"scheduled_time": bson.M{"$lte": now},
	}
	return r.find(ctx, filter)
}

func (r *NotificationRepository) find(ctx context.Context, filter bson.M) ([]*domain.ScheduledNotification, error) {
	cursor, err := r.client.Collection(notificationsCollection).Find(ctx, filter)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("failed to query notifications", err)
	}
	defer cursor.Close(ctx)

	var notifications []*domain.ScheduledNotification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, errors.NewStorageUnavailableError("failed to decode notifications", err)
	}

	return notifications, nil
}

// MarkTriggered flips is_triggered to true. The update is conditional on the
// record being untriggered, which makes it the serialization point between
// racing evaluation passes: the first caller wins the transition, later
// callers get won=false. Returns NotFound when the id does not exist.
func (r *NotificationRepository) MarkTriggered(ctx context.Context, id string) (bool, error) {
	filter := bson.M{"_id": id, "is_triggered": false}
	update := bson.M{"$set": bson.M{"is_triggered": true}}

	result, err := r.client.Collection(notificationsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, errors.NewStorageUnavailableError("failed to mark notification triggered", err)
	}
	if result.ModifiedCount > 0 {
		return true, nil
	}

	// Lost the race, or the id is missing entirely
	count, err := r.client.Collection(notificationsCollection).CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, errors.NewStorageUnavailableError("failed to check notification", err)
	}
	if count == 0 {
		return false, errors.NewNotFoundError("notification not found", nil)
	}
	return false, nil
}

// Delete removes a record. Fails with NotFound when absent; cascade callers
// are expected to tolerate that.
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.client.Collection(notificationsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.NewStorageUnavailableError("failed to delete notification", err)
	}
	if result.DeletedCount == 0 {
		return errors.NewNotFoundError("notification not found", nil)
	}
	return nil
}

// DeleteByTaskID removes every notification owned by a task and returns how
// many were deleted
func (r *NotificationRepository) DeleteByTaskID(ctx context.Context, taskID string) (int64, error) {
	result, err := r.client.Collection(notificationsCollection).DeleteMany(ctx, bson.M{"task_id": taskID})
	if err != nil {
		return 0, errors.NewStorageUnavailableError("failed to delete task notifications", err)
	}
	return result.DeletedCount, nil
}
