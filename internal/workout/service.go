// Package workout manages the workouts owned by a user
package workout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"fitlog/fitness-api/internal/apperr"
	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"

	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps the row offset far from overflowing
	MaxPage = 1_000_000

	defaultPicturePath = "/workouts/default_workout.png"
)

// PictureStore keeps uploaded pictures and returns their public URL
type PictureStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type Config struct {
	Groups    []string
	PublicURL string
	// MaxPictureSize is in bytes
	MaxPictureSize      int64
	AllowedPictureTypes []string
}

type Service struct {
	workouts store.WorkoutStore
	pictures PictureStore
	cfg      Config
}

// NewService returns a workout service. pictures may be nil, in which case
// picture uploads are rejected.
func NewService(workouts store.WorkoutStore, pictures PictureStore, cfg Config) *Service {
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")
	return &Service{workouts: workouts, pictures: pictures, cfg: cfg}
}

func (s *Service) Groups() []string {
	return slices.Clone(s.cfg.Groups)
}

type CreateInput struct {
	Name        string
	Group       string
	PictureURL  string
	Description string
}

// Create stores a new workout for userID. Names are unique per user.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Workout, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Group = strings.TrimSpace(in.Group)

	if in.Name == "" {
		return nil, apperr.New(apperr.CauseInvalidInput, "Workout name can't be empty")
	}

	if !slices.Contains(s.cfg.Groups, in.Group) {
		return nil, apperr.New(apperr.CauseInvalidInput, "Invalid workout group")
	}

	exists, err := s.workouts.ExistsByName(ctx, userID, in.Name)
	if err != nil {
		return nil, apperr.FromStore(err, apperr.CauseUnknown, "Failed to check workout name")
	}

	if exists {
		return nil, apperr.New(apperr.CauseWorkoutNameTaken, "Workout name already exist")
	}

	if in.PictureURL == "" {
		in.PictureURL = s.cfg.PublicURL + defaultPicturePath
	}

	w, err := s.workouts.Create(ctx, &model.Workout{
		UserID:      userID,
		Name:        in.Name,
		Group:       in.Group,
		PictureURL:  in.PictureURL,
		Description: strings.TrimSpace(in.Description),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.CauseWorkoutNameTaken, "Workout name already exist", err)
		}
		return nil, apperr.FromStore(err, apperr.CauseUnknown, "Failed to create workout")
	}

	return w, nil
}

type QueryInput struct {
	Name   string
	Group  string
	SortBy string
	Limit  int
	Page   int
}

type QueryResult struct {
	Results      []model.Workout `json:"results"`
	Page         int             `json:"page"`
	Limit        int             `json:"limit"`
	TotalPages   int             `json:"totalPages"`
	TotalResults int64           `json:"totalResults"`
}

// Query lists the workouts of userID one page at a time
func (s *Service) Query(ctx context.Context, userID string, in QueryInput) (*QueryResult, error) {
	sort, err := ParseSort(in.SortBy)
	if err != nil {
		return nil, apperr.Wrap(apperr.CauseInvalidInput, "Invalid sortBy", err)
	}

	limit := in.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	if in.Page > MaxPage {
		return nil, apperr.New(apperr.CauseInvalidInput, fmt.Sprintf("page must not be bigger than %d", MaxPage))
	}
	page := max(in.Page, 1)

	results, total, err := s.workouts.Query(ctx,
		store.WorkoutFilter{UserID: userID, Group: in.Group, NameLike: in.Name},
		store.Page{Limit: limit, Page: page, Sort: sort},
	)
	if err != nil {
		return nil, apperr.FromStore(err, apperr.CauseUnknown, "Failed to query workouts")
	}

	return &QueryResult{
		Results:      results,
		Page:         page,
		Limit:        limit,
		TotalPages:   int(math.Ceil(float64(total) / float64(limit))),
		TotalResults: total,
	}, nil
}

// ParseSort reads a sortBy value such as "name:desc,createdAt:asc". Fields
// without a direction sort ascending. An empty value sorts by creation time.
func ParseSort(sortBy string) ([]store.Sort, error) {
	if strings.TrimSpace(sortBy) == "" {
		return []store.Sort{{Field: store.SortCreatedAt}}, nil
	}

	var out []store.Sort
	for _, part := range strings.Split(sortBy, ",") {
		field, dir, _ := strings.Cut(strings.TrimSpace(part), ":")

		switch field {
		case store.SortName, store.SortGroup, store.SortCreatedAt, store.SortUpdatedAt:
		default:
			return nil, fmt.Errorf("unknown sort field %q", field)
		}

		var desc bool
		switch strings.ToLower(dir) {
		case "", "asc":
		case "desc":
			desc = true
		default:
			return nil, fmt.Errorf("unknown sort direction %q", dir)
		}

		out = append(out, store.Sort{Field: field, Desc: desc})
	}

	return out, nil
}

// SetPicture uploads a picture for one of userID's workouts
func (s *Service) SetPicture(ctx context.Context, userID, workoutID string, r io.Reader) (*model.Workout, error) {
	if s.pictures == nil {
		return nil, apperr.New(apperr.CauseInvalidInput, "Picture uploads are disabled")
	}

	if _, err := s.workouts.FindByID(ctx, userID, workoutID); err != nil {
		return nil, apperr.FromStore(err, apperr.CauseWorkoutNotFound, "Workout not found")
	}

	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxPictureSize+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.CauseInvalidInput, "Failed to read picture", err)
	}

	if int64(len(data)) > s.cfg.MaxPictureSize {
		return nil, apperr.New(apperr.CauseInvalidInput, "Picture too large")
	}

	mime := mimetype.Detect(data)
	if len(s.cfg.AllowedPictureTypes) > 0 && !slices.ContainsFunc(s.cfg.AllowedPictureTypes, mime.Is) {
		return nil, apperr.New(apperr.CauseInvalidInput, "Unsupported picture type")
	}

	key := fmt.Sprintf("workouts/%s/%s%s", userID, workoutID, mime.Extension())
	url, err := s.pictures.Put(ctx, key, bytes.NewReader(data), mime.String())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	w, err := s.workouts.SetPicture(ctx, userID, workoutID, url)
	if err != nil {
		return nil, apperr.FromStore(err, apperr.CauseWorkoutNotFound, "Workout not found")
	}

	return w, nil
}
