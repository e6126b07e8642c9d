package images

import (
	"context"

	"golang.org/x/sync/errgroup"

	"labelme/models"
)

// ItemResult 是 fan-out 中單一項目的結果
type ItemResult[I, T any] struct {
	Item  I
	Value T
	Err   error
}

// ItemFailure 是回給使用者的單一項目失敗資訊
type ItemFailure struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// fanOut 同時對每個項目呼叫 fn，單一項目失敗不會取消其他項目。
// 結果的順序和輸入相同。
func fanOut[I, T any](ctx context.Context, limit int, items []I, fn func(ctx context.Context, item I) (T, error)) []ItemResult[I, T] {
	results := make([]ItemResult[I, T], len(items))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			value, err := fn(ctx, item)
			results[i] = ItemResult[I, T]{Item: item, Value: value, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// failuresOf 把失敗的結果轉成對外的格式，內部錯誤用 fallback 代替
func failuresOf[I, T any](results []ItemResult[I, T], name func(I) string, fallback string) []ItemFailure {
	var failures []ItemFailure
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failures = append(failures, ItemFailure{Item: name(r.Item), Reason: models.PublicMessage(r.Err, fallback)})
	}
	return failures
}

func identity(s string) string { return s }
