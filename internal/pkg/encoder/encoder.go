package encoder

import (
	"encoding/base64"
	"os"

	"github.com/ds124wfegd/image-analyser/internal/entity"
)

// EncodeFile reads the file at path and returns the standard base64 encoding
// of its exact bytes.
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", entity.LocalIOError("cannot read staged image", err)
	}
	return EncodeBytes(data), nil
}

func EncodeBytes(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DataURI embeds an encoded image into a data URI, e.g. data:image/png;base64,...
func DataURI(mimeType, encoded string) string {
	return "data:" + mimeType + ";base64," + encoded
}
