package mongostore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"fitlog/fitness-api/internal/store"
	"fitlog/fitness-api/internal/store/mongostore"
	"fitlog/fitness-api/internal/store/storetest"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/stretchr/testify/require"
)

// Set FITLOG_TEST_MONGO_URI to run these against a real server
func TestContract(t *testing.T) {
	uri := os.Getenv("FITLOG_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FITLOG_TEST_MONGO_URI not set")
	}

	storetest.Run(t, func(t *testing.T) *store.Stores {
		ctx := context.Background()

		name, err := gonanoid.Generate("abcdefghijklmnopqrstuvwxyz", 12)
		require.NoError(t, err)

		s, err := mongostore.Open(ctx, uri, "fitlog_test_"+name, 5*time.Second)
		require.NoError(t, err)

		t.Cleanup(func() {
			_ = s.Drop(ctx)
			_ = s.Stores().Close(ctx)
		})

		return s.Stores()
	})
}
