package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tieubaoca/contract-intel-be/types"
)

var ErrExtractionNotFound = errors.New("extraction not found")

type ExtractionRepo interface {
	// Upsert replaces the document's extraction as a whole. A concurrent
	// reader sees either the old or the new extraction, never a mix.
	Upsert(ctx context.Context, extraction *types.Extraction) error
	Get(ctx context.Context, documentID string) (*types.Extraction, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

type extractionRepo struct {
	collection *mongo.Collection
}

func NewExtractionRepo(collection *mongo.Collection) ExtractionRepo {
	return &extractionRepo{
		collection: collection,
	}
}

func (r *extractionRepo) Upsert(ctx context.Context, extraction *types.Extraction) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": extraction.DocumentID},
		extraction,
		options.Replace().SetUpsert(true))
	return err
}

func (r *extractionRepo) Get(ctx context.Context, documentID string) (*types.Extraction, error) {
	var extraction types.Extraction
	err := r.collection.FindOne(ctx, bson.M{"_id": documentID}).Decode(&extraction)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrExtractionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &extraction, nil
}

func (r *extractionRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": documentID})
	return err
}
