package mcp

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// argumentGetter is satisfied by mcp.CallToolRequest.
type argumentGetter interface {
	GetArguments() map[string]interface{}
}

// extractFileArgs are the arguments of the extract_file tool.
type extractFileArgs struct {
	Path string `json:"path"`
	Lang string `json:"lang,omitempty"`
}

func (a *extractFileArgs) validate() error {
	return requireString("path", a.Path)
}

// extractDirectoryArgs are the arguments of the extract_directory tool.
type extractDirectoryArgs struct {
	Root    string   `json:"root"`
	Limit   int      `json:"limit,omitempty"`
	Include []string `json:"include,omitempty"`
}

func (a *extractDirectoryArgs) validate() error {
	if err := requireString("root", a.Root); err != nil {
		return err
	}
	switch {
	case a.Limit == 0:
		a.Limit = defaultDirectoryLimit
	case a.Limit < 1:
		a.Limit = 1
	case a.Limit > maxDirectoryLimit:
		a.Limit = maxDirectoryLimit
	}
	return nil
}

func requireString(key, val string) error {
	if strings.TrimSpace(val) == "" {
		return fmt.Errorf("%s parameter is required", key)
	}
	return nil
}

// bindArguments decodes request arguments into target. Clients that send
// every value as a string are tolerated: numeric and boolean strings are
// converted and JSON-encoded arrays are decoded.
func bindArguments[T any](request argumentGetter, target *T) error {
	rawArgs := request.GetArguments()
	if rawArgs == nil {
		rawArgs = map[string]interface{}{}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonStringHook,
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:  target,
		TagName: "json",
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(rawArgs); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// jsonStringHook decodes string values that hold JSON arrays or objects
// when the destination is a slice, map or struct.
func jsonStringHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Slice, reflect.Map, reflect.Struct:
	default:
		return data, nil
	}

	raw := strings.TrimSpace(data.(string))
	if !strings.HasPrefix(raw, "[") && !strings.HasPrefix(raw, "{") {
		return data, nil
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return data, nil
	}
	return decoded, nil
}
