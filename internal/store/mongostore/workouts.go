package mongostore

import (
	"context"
	"regexp"
	"time"

	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var sortFields = map[string]string{
	store.SortName:      "name",
	store.SortGroup:     "group",
	store.SortCreatedAt: "createdAt",
	store.SortUpdatedAt: "updatedAt",
}

type WorkoutStore struct {
	c *mongo.Collection
	s *Store
}

func (w *WorkoutStore) Create(ctx context.Context, wo *model.Workout) (*model.Workout, error) {
	if wo.ID == "" {
		id, err := store.NewID()
		if err != nil {
			return nil, err
		}
		wo.ID = id
	}

	now := time.Now().UTC()
	wo.CreatedAt = now
	wo.UpdatedAt = now

	ctx, cancel := w.s.ctx(ctx)
	defer cancel()

	if _, err := w.c.InsertOne(ctx, wo); err != nil {
		return nil, translate(err)
	}

	return wo, nil
}

func (w *WorkoutStore) FindByID(ctx context.Context, userID, id string) (*model.Workout, error) {
	ctx, cancel := w.s.ctx(ctx)
	defer cancel()

	var wo model.Workout
	if err := w.c.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&wo); err != nil {
		return nil, translate(err)
	}

	return &wo, nil
}

func (w *WorkoutStore) ExistsByName(ctx context.Context, userID, name string) (bool, error) {
	ctx, cancel := w.s.ctx(ctx)
	defer cancel()

	n, err := w.c.CountDocuments(ctx, bson.M{"userId": userID, "name": name}, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err)
	}

	return n > 0, nil
}

func (w *WorkoutStore) Query(ctx context.Context, f store.WorkoutFilter, p store.Page) ([]model.Workout, int64, error) {
	filter := bson.M{"userId": f.UserID}
	if f.Group != "" {
		filter["group"] = f.Group
	}
	if f.NameLike != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.NameLike), Options: "i"}
	}

	sort := bson.D{}
	for _, s := range p.Sort {
		if field, ok := sortFields[s.Field]; ok {
			dir := 1
			if s.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: field, Value: dir})
		}
	}

	ctx, cancel := w.s.ctx(ctx)
	defer cancel()

	total, err := w.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err)
	}

	opts := options.Find().
		SetSkip(int64((p.Page - 1) * p.Limit)).
		SetLimit(int64(p.Limit))
	if len(sort) > 0 {
		opts.SetSort(sort)
	}

	cur, err := w.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, translate(err)
	}

	results := []model.Workout{}
	if err := cur.All(ctx, &results); err != nil {
		return nil, 0, translate(err)
	}

	return results, total, nil
}

func (w *WorkoutStore) SetPicture(ctx context.Context, userID, id, pictureURL string) (*model.Workout, error) {
	ctx, cancel := w.s.ctx(ctx)
	defer cancel()

	var wo model.Workout
	err := w.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"pictureUrl": pictureURL, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&wo)
	if err != nil {
		return nil, translate(err)
	}

	return &wo, nil
}
