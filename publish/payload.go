package publish

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ysmood/gson"
)

// resultPaths are tried in order for the created or updated content indicator.
var resultPaths = []string{"data.result", "result", "id", "data.id"}

// parsePayload decodes a publish API body. A body that is not JSON yields a
// zero JSON and ok=false.
func parsePayload(body []byte) (gson.JSON, bool) {
	var j gson.JSON
	if len(strings.TrimSpace(string(body))) == 0 {
		return j, false
	}
	if err := json.Unmarshal(body, &j); err != nil {
		return gson.JSON{}, false
	}
	return j, true
}

// errorMarker reports the platform's error message when the payload carries
// an "error" key, or a non-zero numeric "code" together with a "message".
func errorMarker(j gson.JSON) (string, bool) {
	if _, isObject := j.Val().(map[string]interface{}); !isObject {
		return "", false
	}

	if j.Has("error") && !j.Get("error").Nil() {
		if msg := scalar(j.Get("error.message")); msg != "" {
			return msg, true
		}
		if msg := scalar(j.Get("error")); msg != "" {
			return msg, true
		}
		return "publish API reported an error", true
	}

	code := j.Get("code")
	if _, numeric := code.Val().(float64); numeric && code.Num() != 0 && j.Has("message") {
		if msg := scalar(j.Get("message")); msg != "" {
			return msg, true
		}
		return fmt.Sprintf("publish API error code %v", code.Num()), true
	}
	return "", false
}

// resultOf extracts the created or updated content indicator, or "ok" when
// the payload names none.
func resultOf(j gson.JSON) string {
	for _, path := range resultPaths {
		if s := scalar(j.Get(path)); s != "" {
			return s
		}
	}
	return "ok"
}

// scalar renders strings, numbers and booleans; anything else is "".
func scalar(j gson.JSON) string {
	switch v := j.Val().(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
