package images

import (
	"errors"
	"fmt"
	"strings"

	"labelme/models"
)

// 物件 key 的格式為 {userId}/{imageId}/{fileName}。
// ingestion 依賴這個格式還原擁有者與圖片 ID，修改格式時必須同時提升版本。
const keyLayoutVersion = 1

const keySeparator = "/"

var ErrMalformedKey = errors.New("malformed object key")

type ObjectKey struct {
	UserID   string
	ImageID  string
	FileName string
}

func (k ObjectKey) String() string {
	return k.UserID + keySeparator + k.ImageID + keySeparator + k.FileName
}

// ParseObjectKey 解析物件 key，格式不符時回傳 upstream 錯誤，不會嘗試猜測
func ParseObjectKey(key string) (ObjectKey, error) {
	parts := strings.Split(key, keySeparator)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return ObjectKey{}, models.NewUpstreamError(
			fmt.Sprintf("object key %q does not follow layout v%d", key, keyLayoutVersion),
			ErrMalformedKey,
		)
	}
	return ObjectKey{UserID: parts[0], ImageID: parts[1], FileName: parts[2]}, nil
}

func validateFileName(fileName string) error {
	if strings.TrimSpace(fileName) == "" {
		return models.NewValidationError("fileName is required")
	}
	if strings.Contains(fileName, keySeparator) {
		return models.NewValidationError("fileName must not contain '/'")
	}
	return nil
}

// externalFileName 取 URL 最後一段並去掉 query string，取不到時用 image-{id}.jpg
func externalFileName(imageURL, imageID string) string {
	name := imageURL
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name, _, _ = strings.Cut(name, "?")
	if name == "" {
		return "image-" + imageID + ".jpg"
	}
	return name
}
