package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"batchchat/internal/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository is the durable record of every chat message. All read
// methods exclude soft-deleted messages. Paginated methods return the items
// for the requested page plus the total match count.
type MessageRepository interface {
	Create(ctx context.Context, message entity.Message) (int64, error)
	Get(ctx context.Context, messageId int64) (entity.Message, error)

	// FindDirectBetween returns the DIRECT conversation between two users,
	// in either sender/recipient order, most recent first.
	FindDirectBetween(ctx context.Context, userId1, userId2 int64, page, size int) ([]entity.Message, int64, error)

	// FindByScope returns a challenge or mentorship stream in chronological
	// (chat-log) order.
	FindByScope(ctx context.Context, kind entity.ConversationKind, scopeId int64, page, size int) ([]entity.Message, int64, error)

	// FindLastConversations returns, for each distinct peer the user has
	// exchanged direct messages with, the message with the highest id,
	// newest conversation first.
	FindLastConversations(ctx context.Context, userId int64) ([]entity.Message, error)

	CountUnread(ctx context.Context, userId int64) (int64, error)

	// MarkRead flips a single direct message to read, but only when
	// recipientId is actually the recipient and the message is still unread.
	// Returns whether a row changed.
	MarkRead(ctx context.Context, messageId, recipientId int64, readAt time.Time) (bool, error)

	// MarkConversationRead flips every unread direct message from peerId to
	// userId in one atomic update and returns the number affected.
	MarkConversationRead(ctx context.Context, userId, peerId int64, readAt time.Time) (int64, error)

	SearchDirect(ctx context.Context, query string, userId int64, page, size int) ([]entity.Message, int64, error)
	SearchScope(ctx context.Context, query string, kind entity.ConversationKind, scopeId int64, page, size int) ([]entity.Message, int64, error)

	SoftDelete(ctx context.Context, messageId int64) error
}

type messageRepository struct {
	db mongo.Database
}

func NewMessageRepository(db mongo.Database) MessageRepository {
	return &messageRepository{
		db: db,
	}
}

// EnsureMessageIndexes creates the compound indexes backing every query
// pattern of the history and search paths.
func EnsureMessageIndexes(ctx context.Context, db mongo.Database) error {
	collection := db.Collection("messages")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "senderId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "recipientId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "challengeId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "mentorshipId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "conversationKind", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *messageRepository) Create(ctx context.Context, message entity.Message) (int64, error) {
	id, err := nextSequence(ctx, &r.db, "messages")
	if err != nil {
		return 0, err
	}
	message.Id = id

	collection := r.db.Collection("messages")
	_, err = collection.InsertOne(ctx, message)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *messageRepository) Get(ctx context.Context, messageId int64) (entity.Message, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": messageId}

	var message entity.Message
	err := collection.FindOne(ctx, filter).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity.Message{}, ErrMessageNotFound
		}
		return entity.Message{}, err
	}

	return message, nil
}

func (r *messageRepository) findPage(ctx context.Context, filter bson.M, sortDir int, page, size int) ([]entity.Message, int64, error) {
	collection := r.db.Collection("messages")

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: sortDir}}).
		SetSkip(int64(page) * int64(size)).
		SetLimit(int64(size))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	var messages []entity.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func directBetweenFilter(userId1, userId2 int64) bson.M {
	return bson.M{
		"conversationKind": entity.ConversationDirect,
		"isDeleted":        false,
		"$or": []bson.M{
			{"senderId": userId1, "recipientId": userId2},
			{"senderId": userId2, "recipientId": userId1},
		},
	}
}

func scopeFilter(kind entity.ConversationKind, scopeId int64) bson.M {
	filter := bson.M{
		"conversationKind": kind,
		"isDeleted":        false,
	}
	if kind == entity.ConversationMentorship {
		filter["mentorshipId"] = scopeId
	} else {
		filter["challengeId"] = scopeId
	}
	return filter
}

func (r *messageRepository) FindDirectBetween(ctx context.Context, userId1, userId2 int64, page, size int) ([]entity.Message, int64, error) {
	return r.findPage(ctx, directBetweenFilter(userId1, userId2), -1, page, size)
}

func (r *messageRepository) FindByScope(ctx context.Context, kind entity.ConversationKind, scopeId int64, page, size int) ([]entity.Message, int64, error) {
	return r.findPage(ctx, scopeFilter(kind, scopeId), 1, page, size)
}

func (r *messageRepository) FindLastConversations(ctx context.Context, userId int64) ([]entity.Message, error) {
	collection := r.db.Collection("messages")

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"conversationKind": entity.ConversationDirect,
			"isDeleted":        false,
			"$or": []bson.M{
				{"senderId": userId},
				{"recipientId": userId},
			},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"peerId": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$senderId", userId}},
				"$recipientId",
				"$senderId",
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id": "$peerId",
			"doc": bson.M{"$first": "$$ROOT"},
		}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$doc"}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var messages []entity.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, userId int64) (int64, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{
		"conversationKind": entity.ConversationDirect,
		"recipientId":      userId,
		"isRead":           false,
		"isDeleted":        false,
	}
	return collection.CountDocuments(ctx, filter)
}

func (r *messageRepository) MarkRead(ctx context.Context, messageId, recipientId int64, readAt time.Time) (bool, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{
		"_id":              messageId,
		"conversationKind": entity.ConversationDirect,
		"recipientId":      recipientId,
		"isRead":           false,
		"isDeleted":        false,
	}
	update := bson.M{"$set": bson.M{"isRead": true, "readAt": readAt}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (r *messageRepository) MarkConversationRead(ctx context.Context, userId, peerId int64, readAt time.Time) (int64, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{
		"conversationKind": entity.ConversationDirect,
		"senderId":         peerId,
		"recipientId":      userId,
		"isRead":           false,
		"isDeleted":        false,
	}
	update := bson.M{"$set": bson.M{"isRead": true, "readAt": readAt}}

	result, err := collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func contentRegex(query string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
}

func (r *messageRepository) SearchDirect(ctx context.Context, query string, userId int64, page, size int) ([]entity.Message, int64, error) {
	filter := bson.M{
		"conversationKind": entity.ConversationDirect,
		"isDeleted":        false,
		"content":          contentRegex(query),
		"$or": []bson.M{
			{"senderId": userId},
			{"recipientId": userId},
		},
	}
	return r.findPage(ctx, filter, -1, page, size)
}

func (r *messageRepository) SearchScope(ctx context.Context, query string, kind entity.ConversationKind, scopeId int64, page, size int) ([]entity.Message, int64, error) {
	filter := scopeFilter(kind, scopeId)
	filter["content"] = contentRegex(query)
	return r.findPage(ctx, filter, 1, page, size)
}

func (r *messageRepository) SoftDelete(ctx context.Context, messageId int64) error {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": messageId}
	update := bson.M{"$set": bson.M{"isDeleted": true}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}
