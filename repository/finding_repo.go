package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tieubaoca/contract-intel-be/types"
)

type FindingRepo interface {
	// Replace discards the document's previous findings and stores the new
	// run's findings in order.
	Replace(ctx context.Context, documentID string, findings []types.Finding) error
	ListByDocument(ctx context.Context, documentID string) ([]types.Finding, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

type findingRepo struct {
	collection *mongo.Collection
}

func NewFindingRepo(collection *mongo.Collection) FindingRepo {
	return &findingRepo{
		collection: collection,
	}
}

func (r *findingRepo) Replace(ctx context.Context, documentID string, findings []types.Finding) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"document_id": documentID}); err != nil {
		return err
	}
	if len(findings) == 0 {
		return nil
	}
	docs := make([]interface{}, len(findings))
	for i := range findings {
		findings[i].DocumentID = documentID
		docs[i] = findings[i]
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *findingRepo) ListByDocument(ctx context.Context, documentID string) ([]types.Finding, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"document_id": documentID},
		options.Find().SetSort(bson.M{"finding_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var findings []types.Finding
	for cursor.Next(ctx) {
		var finding types.Finding
		if err := cursor.Decode(&finding); err != nil {
			return nil, err
		}
		findings = append(findings, finding)
	}
	return findings, cursor.Err()
}

func (r *findingRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"document_id": documentID})
	return err
}
