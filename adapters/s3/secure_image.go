package s3

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// SecureMIMETypesExtension 定義了允許上傳的安全圖片類型及其對應的副檔名
var SecureMIMETypesExtension = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/bmp":  "bmp",
	"image/tiff": "tiff",
	"image/webp": "webp",
}

// CheckSecureImageAndGetExtension 檢查給定的 MIME 類型是否為允許的圖片類型，並返回對應的副檔名
func CheckSecureImageAndGetExtension(mimeType string) (bool, string) {
	ext, ok := SecureMIMETypesExtension[mimeType]
	return ok, ext
}

// DetectSecureImage 依內容判斷實際的 MIME 類型，不信任客戶端宣告的 Content-Type
func DetectSecureImage(content []byte) (string, bool) {
	mimeType := http.DetectContentType(content)
	ok, _ := CheckSecureImageAndGetExtension(mimeType)
	return mimeType, ok
}

// DecodeBase64Image 解碼 base64 圖片，允許帶有 data:image/png;base64, 前綴。
// 解碼後的內容超過 maxSize 時回傳 ReachLimitError。
func DecodeBase64Image(payload string, maxSize int64) ([]byte, error) {
	if _, data, found := strings.Cut(payload, ","); found && strings.HasPrefix(payload, "data:") {
		payload = data
	}
	return ReadAllLimited(base64.NewDecoder(base64.StdEncoding, strings.NewReader(payload)), maxSize)
}
