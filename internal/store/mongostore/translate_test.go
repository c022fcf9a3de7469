package mongostore

import (
	"context"
	"errors"
	"testing"

	"fitlog/fitness-api/internal/store"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no documents", mongo.ErrNoDocuments, store.ErrNotFound},
		{"duplicate", mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}, store.ErrDuplicate},
		{"deadline", context.DeadlineExceeded, store.ErrIO},
		{"disconnected", mongo.ErrClientDisconnected, store.ErrIO},
		{"network label", mongo.CommandError{Code: 6, Labels: []string{"NetworkError"}}, store.ErrIO},
		{"bad value", mongo.CommandError{Code: 2, Message: "BadValue"}, nil},
		{"plain error", errors.New("cannot decode"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err)
			if tt.want != nil {
				assert.ErrorIs(t, got, tt.want)
				return
			}

			assert.NotErrorIs(t, got, store.ErrIO)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
