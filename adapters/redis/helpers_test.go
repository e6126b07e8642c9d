package redis

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupTest(t *testing.T) (*redis.Client, redismock.ClientMock, func()) {
	db, mock := redismock.NewClientMock()
	return db, mock, func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	}
}

// testJob 模擬 stream 中傳遞的工作
type testJob struct {
	ID  string `msgpack:"id"`
	Key string `msgpack:"key"`
}

func mustEncode(t *testing.T, job testJob) map[string]any {
	t.Helper()
	values, err := DefaultParseToMessage(job)
	if err != nil {
		t.Fatalf("encode job: %v", err)
	}
	return values
}

// lockedContext 模擬 mutex 取得鎖後回傳的 context
func lockedContext(ctx context.Context) (context.Context, error) {
	return ctx, nil
}
