package sharedstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"studio/internal/domain"
)

const mongoCollection = "shared_symbols"

// mongoBackend implements Backend for MongoDB.
type mongoBackend struct {
	client *mongo.Client
	dbName string
}

// mongoSymbol is the stored document shape. The fragment stays a JSON string
// so it round-trips exactly regardless of BSON type coercion.
type mongoSymbol struct {
	ID           string    `bson:"_id"`
	Scope        string    `bson:"scope"`
	OwnerID      string    `bson:"ownerId"`
	Name         string    `bson:"name"`
	FragmentJSON string    `bson:"fragmentJson"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func newMongoBackend(cfg *Config, password string) (*mongoBackend, error) {
	var uri string

	// A host that is already a full connection string (Atlas mongodb+srv:// or
	// standard mongodb://) is used directly.
	if strings.HasPrefix(cfg.Host, "mongodb+srv://") || strings.HasPrefix(cfg.Host, "mongodb://") {
		uri = cfg.Host
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", password)
		}
	} else {
		port := cfg.Port
		if port == 0 {
			port = 27017
		}
		if cfg.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.Username, password, cfg.Host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", cfg.Host, port)
		}
	}

	dbName := cfg.Database
	if dbName == "" {
		dbName = "studio"
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	return &mongoBackend{client: client, dbName: dbName}, nil
}

func (m *mongoBackend) coll() *mongo.Collection {
	return m.client.Database(m.dbName).Collection(mongoCollection)
}

func (m *mongoBackend) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

func (m *mongoBackend) ListSymbols(ctx context.Context, ownerID string, scope domain.SymbolScope) ([]domain.Symbol, error) {
	cursor, err := m.coll().Find(ctx,
		bson.M{"ownerId": ownerID, "scope": string(scope)},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list shared symbols: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.Symbol
	for cursor.Next(ctx) {
		var doc mongoSymbol
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode shared symbol: %w", err)
		}
		frag, err := domain.UnmarshalFragment(doc.FragmentJSON)
		if err != nil {
			return nil, fmt.Errorf("parse fragment %s: %w", doc.ID, err)
		}
		out = append(out, domain.Symbol{
			ID:        doc.ID,
			Scope:     domain.SymbolScope(doc.Scope),
			OwnerID:   doc.OwnerID,
			Name:      doc.Name,
			Fragment:  frag,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return out, cursor.Err()
}

func (m *mongoBackend) CreateSymbol(ctx context.Context, sym *domain.Symbol) error {
	fragment, err := domain.MarshalFragment(sym.Fragment)
	if err != nil {
		return fmt.Errorf("marshal fragment: %w", err)
	}
	now := time.Now()
	sym.CreatedAt = now
	sym.UpdatedAt = now
	_, err = m.coll().InsertOne(ctx, mongoSymbol{
		ID:           sym.ID,
		Scope:        string(sym.Scope),
		OwnerID:      sym.OwnerID,
		Name:         sym.Name,
		FragmentJSON: fragment,
		CreatedAt:    sym.CreatedAt,
		UpdatedAt:    sym.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert shared symbol: %w", err)
	}
	return nil
}

func (m *mongoBackend) UpdateSymbol(ctx context.Context, sym *domain.Symbol) error {
	fragment, err := domain.MarshalFragment(sym.Fragment)
	if err != nil {
		return fmt.Errorf("marshal fragment: %w", err)
	}
	sym.UpdatedAt = time.Now()
	_, err = m.coll().UpdateOne(ctx,
		bson.M{"_id": sym.ID},
		bson.M{"$set": bson.M{
			"name":         sym.Name,
			"fragmentJson": fragment,
			"updatedAt":    sym.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("update shared symbol: %w", err)
	}
	return nil
}

func (m *mongoBackend) DeleteSymbol(ctx context.Context, id string) error {
	_, err := m.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete shared symbol: %w", err)
	}
	return nil
}

func (m *mongoBackend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
