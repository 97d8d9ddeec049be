package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Counter names incremented by the pipeline.
const (
	MetricDocumentsIngested    = "documents_ingested"
	MetricExtractionsPerformed = "extractions_performed"
	MetricQueriesAnswered      = "queries_answered"
	MetricAuditsRun            = "audits_run"
)

// MetricsRepo is the injected counter store. Counters are named, monotonic
// and process-independent; increments are atomic.
type MetricsRepo interface {
	Inc(ctx context.Context, name string) error
	All(ctx context.Context) (map[string]int64, error)
}

type metricsRepo struct {
	collection *mongo.Collection
}

func NewMetricsRepo(collection *mongo.Collection) MetricsRepo {
	return &metricsRepo{
		collection: collection,
	}
}

func (r *metricsRepo) Inc(ctx context.Context, name string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": 1}},
		options.UpdateOne().SetUpsert(true))
	return err
}

func (r *metricsRepo) All(ctx context.Context) (map[string]int64, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	metrics := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			Name  string `bson:"_id"`
			Value int64  `bson:"value"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		metrics[row.Name] = row.Value
	}
	return metrics, cursor.Err()
}
