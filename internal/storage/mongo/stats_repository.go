package mongo

import (
	"context"
	"time"

	"github.com/dukedaW/shortlinks/internal/infrastructure/db"
	"github.com/dukedaW/shortlinks/internal/processing/links"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClickStatsRepository keeps per-day click aggregates. The consumer feeds it
// from the click event stream; the API reads it for the stats endpoint.
type ClickStatsRepository struct {
	coll      *mongo.Collection
	processed *mongo.Collection
}

type clickDailyDoc struct {
	Alias string `bson:"alias"`
	Date  string `bson:"date"` // YYYY-MM-DD (UTC)
	Count int64  `bson:"count"`
}

func NewClickStatsRepository(m *db.Mongo) (*ClickStatsRepository, error) {
	repo := &ClickStatsRepository{
		coll:      m.Collection("clicks_daily"),
		processed: m.Collection("processed_events"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "alias", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_alias_date"),
		},
		{
			Keys:    bson.D{{Key: "alias", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("alias_date_desc"),
		},
	})
	if err != nil {
		return nil, err
	}

	_, err = repo.processed.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "event_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_event_id"),
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

// MarkProcessedOnce claims eventID for this consumer. It returns false when a
// previous delivery already claimed it, which makes redeliveries from the
// broker harmless.
func (r *ClickStatsRepository) MarkProcessedOnce(ctx context.Context, eventID string, at time.Time) (bool, error) {
	_, err := r.processed.InsertOne(ctx, bson.M{
		"event_id":     eventID,
		"processed_at": at.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ClickStatsRepository) IncDaily(ctx context.Context, alias string, at time.Time) error {
	date := dateString(at)

	_, err := r.coll.UpdateOne(
		ctx,
		bson.M{"alias": alias, "date": date},
		bson.M{
			"$inc": bson.M{"count": 1},
			"$setOnInsert": bson.M{
				"alias": alias,
				"date":  date,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *ClickStatsRepository) GetDaily(ctx context.Context, alias string, from, to time.Time) ([]links.DailyCount, error) {
	cur, err := r.coll.Find(
		ctx,
		bson.M{
			"alias": alias,
			"date": bson.M{
				"$gte": dateString(from),
				"$lte": dateString(to),
			},
		},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []links.DailyCount
	for cur.Next(ctx) {
		var doc clickDailyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, links.DailyCount{
			Date:  doc.Date,
			Count: doc.Count,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ClickStatsRepository) DeleteByAlias(ctx context.Context, alias string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"alias": alias})
	return err
}

func dateString(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
