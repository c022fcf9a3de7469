package gormstore

import (
	"context"
	"strings"

	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var sortColumns = map[string]string{
	store.SortName:      "name",
	store.SortGroup:     "workout_group",
	store.SortCreatedAt: "created_at",
	store.SortUpdatedAt: "updated_at",
}

// likeEscaper escapes LIKE wildcards so user input only matches literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type WorkoutStore struct {
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

	db, cancel := w.s.conn(ctx)
	defer cancel()

	if err := db.Create(wo).Error; err != nil {
		return nil, translate(err)
	}

	return wo, nil
}

func (w *WorkoutStore) FindByID(ctx context.Context, userID, id string) (*model.Workout, error) {
	db, cancel := w.s.conn(ctx)
	defer cancel()

	var wo model.Workout
	err := db.
		Where("id = ? AND user_id = ?", id, userID).
		First(&wo).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &wo, nil
}

func (w *WorkoutStore) ExistsByName(ctx context.Context, userID, name string) (bool, error) {
	db, cancel := w.s.conn(ctx)
	defer cancel()

	var count int64
	err := db.Model(&model.Workout{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).
		Error
	if err != nil {
		return false, translate(err)
	}

	return count > 0, nil
}

func (w *WorkoutStore) Query(ctx context.Context, f store.WorkoutFilter, p store.Page) ([]model.Workout, int64, error) {
	db, cancel := w.s.conn(ctx)
	defer cancel()

	filter := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("user_id = ?", f.UserID)
		if f.Group != "" {
			tx = tx.Where("workout_group = ?", f.Group)
		}
		if f.NameLike != "" {
			tx = tx.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(f.NameLike))+"%")
		}
		return tx
	}

	var total int64
	if err := db.Model(&model.Workout{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q := db.Scopes(filter)
	for _, s := range p.Sort {
		col, ok := sortColumns[s.Field]
		if !ok {
			continue
		}
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: s.Desc})
	}

	results := []model.Workout{}
	err := q.
		Offset((p.Page - 1) * p.Limit).
		Limit(p.Limit).
		Find(&results).
		Error
	if err != nil {
		return nil, 0, translate(err)
	}

	return results, total, nil
}

func (w *WorkoutStore) SetPicture(ctx context.Context, userID, id, pictureURL string) (*model.Workout, error) {
	db, cancel := w.s.conn(ctx)
	r := db.Model(&model.Workout{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("picture_url", pictureURL)
	cancel()

	if r.Error != nil {
		return nil, translate(r.Error)
	}
	if r.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}

	return w.FindByID(ctx, userID, id)
}
