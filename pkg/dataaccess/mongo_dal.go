package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/v0bot/pkg/custom"
	"github.com/Jacobbrewer1/v0bot/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/v0bot/pkg/entities"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoDatabase             = "v0bot"
	reactionRolesCollection   = "reaction_roles"
	reactionRolesMessageField = "message_id"
)

// roleMappingDocument is one mapping as stored in mongo.
type roleMappingDocument struct {
	MessageID            string `bson:"message_id"`
	entities.RoleMapping `bson:",inline"`
	UpdatedAt            custom.Datetime `bson:"updated_at"`
}

// MongoDal stores one document per mapping.
type MongoDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewMongoDal creates a mongo backed dal.
func NewMongoDal(l *slog.Logger, client *mongo.Client) *MongoDal {
	l = l.With(slog.String(logging.KeyDal, roleMappingDalName))

	if client == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &MongoDal{
		l:      l,
		client: client,
	}
}

func (d *MongoDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(reactionRolesCollection)
}

func (d *MongoDal) Load(ctx context.Context) (records map[string]*entities.RoleMapping, err error) {
	done := observe(BackendMongo, "load")
	defer func() { done(err) }()

	cur, err := d.collection().Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error finding reaction roles: %w", err)
	}

	var docs []roleMappingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding reaction roles: %w", err)
	}

	records = make(map[string]*entities.RoleMapping, len(docs))
	for _, doc := range docs {
		records[doc.MessageID] = doc.RoleMapping.Clone()
	}
	return records, nil
}

func (d *MongoDal) Save(ctx context.Context, messageID string, mapping *entities.RoleMapping) (err error) {
	done := observe(BackendMongo, "save")
	defer func() { done(err) }()

	doc := &roleMappingDocument{
		MessageID:   messageID,
		RoleMapping: *mapping.Clone(),
		UpdatedAt:   custom.Now(),
	}

	opts := options.Update().SetUpsert(true)
	_, err = d.collection().UpdateOne(ctx, bson.M{reactionRolesMessageField: messageID}, bson.M{"$set": doc}, opts)
	if err != nil {
		return fmt.Errorf("error updating reaction role: %w", err)
	}
	return nil
}

func (d *MongoDal) Delete(ctx context.Context, messageID string) (err error) {
	done := observe(BackendMongo, "delete")
	defer func() { done(err) }()

	if _, err = d.collection().DeleteOne(ctx, bson.M{reactionRolesMessageField: messageID}); err != nil {
		return fmt.Errorf("error deleting reaction role: %w", err)
	}
	return nil
}

func (d *MongoDal) Ping(ctx context.Context) error {
	return connection.PingMongo(ctx, d.client)
}

func (d *MongoDal) Close(ctx context.Context) error {
	if err := d.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("error disconnecting from mongo: %w", err)
	}
	return nil
}
