package images

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"labelme/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

var testActor = models.Actor{UserID: "user-1", Username: "alice"}

type testDeps struct {
	objects  *MockIObjectStore
	metadata *MockIMetadataStore
	notifier *MockINotifier
	opts     []Option
}

func setupTest(t *testing.T) *testDeps {
	ctrl := gomock.NewController(t)
	deps := &testDeps{
		objects:  NewMockIObjectStore(ctrl),
		metadata: NewMockIMetadataStore(ctrl),
		notifier: NewMockINotifier(ctrl),
	}
	deps.opts = []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }),
		WithNotifier(deps.notifier),
		WithFanOutLimit(4),
	}
	return deps
}
