package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"anonchat/internal/model"
)

const usersCollection = "users"

// userDocument is the stored shape of a user; messages are embedded.
type userDocument struct {
	ID                  bson.ObjectID     `bson:"_id,omitempty"`
	Username            string            `bson:"username"`
	Email               string            `bson:"email"`
	Password            string            `bson:"password"`
	VerifyCode          string            `bson:"verifyCode"`
	VerifyCodeExpiry    time.Time         `bson:"verifyCodeExpiry"`
	IsVerified          bool              `bson:"isVerified"`
	IsAcceptingMessages bool              `bson:"isAcceptingMessages"`
	Messages            []messageDocument `bson:"messages"`
}

type messageDocument struct {
	ID        bson.ObjectID `bson:"_id"`
	Content   string        `bson:"content"`
	CreatedAt time.Time     `bson:"createdAt"`
}

type MongoUserRepository struct {
	client *mongo.Client
	users  *mongo.Collection
}

func NewMongoUserRepository(client *mongo.Client, database string) *MongoUserRepository {
	return &MongoUserRepository{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique username and email indexes.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes failed: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *MongoUserRepository) Create(ctx context.Context, user *model.User) error {
	doc := toUserDocument(user)
	doc.ID = bson.NewObjectID()
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	user.ExternalID = doc.ID.Hex()
	return nil
}

// Save overwrites the scalar fields of the user matched by its document id.
func (r *MongoUserRepository) Save(ctx context.Context, user *model.User) error {
	id, err := bson.ObjectIDFromHex(user.ExternalID)
	if err != nil {
		return fmt.Errorf("save user failed: invalid id %q: %w", user.ExternalID, err)
	}
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"username":            user.Username,
			"email":               user.Email,
			"password":            user.PasswordHash,
			"verifyCode":          user.VerifyCode,
			"verifyCodeExpiry":    user.VerifyCodeExpiry,
			"isVerified":          user.IsVerified,
			"isAcceptingMessages": user.IsAcceptingMessages,
		}},
	)
	if err != nil {
		return fmt.Errorf("save user failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) GetVerifiedByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "query verified user by username", bson.M{"username": username, "isVerified": true})
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "query user by username", bson.M{"username": username})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "query user by email", bson.M{"email": email})
}

func (r *MongoUserRepository) SetAcceptingMessages(ctx context.Context, username string, accepting bool) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"isAcceptingMessages": accepting}},
	)
	if err != nil {
		return fmt.Errorf("update accepting messages failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) AppendMessage(ctx context.Context, username string, message *model.Message) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	res, err := r.users.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$push": bson.M{"messages": messageDocument{
			ID:        bson.NewObjectID(),
			Content:   message.Content,
			CreatedAt: message.CreatedAt,
		}}},
	)
	if err != nil {
		return fmt.Errorf("append message failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) ListMessages(ctx context.Context, username string, limit int) ([]model.Message, error) {
	var doc userDocument
	err := r.users.FindOne(ctx,
		bson.M{"username": username},
		options.FindOne().SetProjection(bson.M{"messages": 1}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return newestMessages(doc.Messages, limit), nil
}

func (r *MongoUserRepository) ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.users.UpdateMany(ctx,
		bson.M{
			"verifyCode":       bson.M{"$ne": ""},
			"verifyCodeExpiry": bson.M{"$lt": now},
		},
		bson.M{"$set": bson.M{"verifyCode": ""}},
	)
	if err != nil {
		return 0, fmt.Errorf("clear expired codes failed: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, action string, filter bson.M) (*model.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s failed: %w", action, err)
	}
	return fromUserDocument(&doc), nil
}

func toUserDocument(user *model.User) *userDocument {
	messages := make([]messageDocument, 0, len(user.Messages))
	for _, m := range user.Messages {
		messages = append(messages, messageDocument{
			ID:        bson.NewObjectID(),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return &userDocument{
		Username:            user.Username,
		Email:               user.Email,
		Password:            user.PasswordHash,
		VerifyCode:          user.VerifyCode,
		VerifyCodeExpiry:    user.VerifyCodeExpiry,
		IsVerified:          user.IsVerified,
		IsAcceptingMessages: user.IsAcceptingMessages,
		Messages:            messages,
	}
}

func fromUserDocument(doc *userDocument) *model.User {
	messages := make([]model.Message, 0, len(doc.Messages))
	for _, m := range doc.Messages {
		messages = append(messages, model.Message{Content: m.Content, CreatedAt: m.CreatedAt})
	}
	user := &model.User{
		Username:            doc.Username,
		Email:               doc.Email,
		PasswordHash:        doc.Password,
		VerifyCode:          doc.VerifyCode,
		VerifyCodeExpiry:    doc.VerifyCodeExpiry,
		IsVerified:          doc.IsVerified,
		IsAcceptingMessages: doc.IsAcceptingMessages,
		Messages:            messages,
	}
	if !doc.ID.IsZero() {
		user.ExternalID = doc.ID.Hex()
	}
	return user
}

// newestMessages orders embedded messages newest first and applies the list limit.
func newestMessages(docs []messageDocument, limit int) []model.Message {
	out := make([]model.Message, 0, len(docs))
	for _, m := range docs {
		out = append(out, model.Message{Content: m.Content, CreatedAt: m.CreatedAt})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n := normalizeLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out
}
