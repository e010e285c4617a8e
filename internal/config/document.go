package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"enumguard/internal/deviceid"
)

// codec reads and writes one document format. Generic decoding yields
// map[string]any trees using the format's native scalar types.
type codec struct {
	marshal   func(v any) ([]byte, error)
	unmarshal func(data []byte, v any) error
}

var (
	jsonCodec = codec{
		marshal: func(v any) ([]byte, error) {
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "    ")
			if err := enc.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		unmarshal: func(data []byte, v any) error {
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.UseNumber()
			if err := dec.Decode(v); err != nil {
				return err
			}
			if dec.More() {
				return errors.New("unexpected data after document")
			}
			return nil
		},
	}
	tomlCodec = codec{marshal: toml.Marshal, unmarshal: toml.Unmarshal}
	yamlCodec = codec{marshal: yaml.Marshal, unmarshal: yaml.Unmarshal}
)

func codecFor(path string) codec {
	switch formatFor(path) {
	case formatTOML:
		return tomlCodec
	case formatYAML:
		return yamlCodec
	default:
		return jsonCodec
	}
}

// documentKeys lists the top-level keys Config models.
var documentKeys = func() map[string]struct{} {
	keys := make(map[string]struct{})
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
}()

// decode fills cfg from data. The document is first read generically so that
// unusable monitored_devices entries can be dropped with a warning instead of
// failing the whole document, and so that keys Config does not model survive
// a later Save.
func decode(path string, data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("document is empty")
	}
	c := codecFor(path)

	var doc map[string]any
	if err := c.unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		return errors.New("document is not an object")
	}

	modeled := make(map[string]any, len(doc))
	extra := make(map[string]any)
	for key, value := range doc {
		if _, ok := documentKeys[key]; ok {
			modeled[key] = value
		} else {
			extra[key] = value
		}
	}
	if raw, ok := modeled["monitored_devices"]; ok {
		devices, warnings := sanitizeMonitoredDevices(raw)
		modeled["monitored_devices"] = devices
		cfg.warnings = append(cfg.warnings, warnings...)
	}

	typed, err := c.marshal(modeled)
	if err != nil {
		return err
	}
	if err := c.unmarshal(typed, cfg); err != nil {
		return err
	}
	if len(extra) > 0 {
		cfg.extra = extra
	}
	return nil
}

// sanitizeMonitoredDevices keeps the entries that can become catalog entries.
// An identifier that is not a string, or a threshold that is not a whole
// number, is reported; the threshold is then left to the default.
func sanitizeMonitoredDevices(raw any) ([]any, []string) {
	list, ok := raw.([]any)
	if !ok {
		if raw == nil {
			return []any{}, nil
		}
		return []any{}, []string{fmt.Sprintf("monitored_devices: expected a list, got %T; ignored", raw)}
	}

	var warnings []string
	devices := make([]any, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("monitored_devices[%d]: expected an object, got %T; dropped", i, item))
			continue
		}
		vidpid, ok := entry["vid_pid"].(string)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("monitored_devices[%d]: vid_pid must be a string, got %T; dropped", i, entry["vid_pid"]))
			continue
		}
		clean := map[string]any{"vid_pid": deviceid.Normalize(vidpid).String()}
		if value, present := entry["notify_threshold"]; present {
			if threshold, ok := wholeNumber(value); ok {
				clean["notify_threshold"] = threshold
			} else {
				warnings = append(warnings, fmt.Sprintf("monitored_devices[%d]: notify_threshold %v is not a whole number; default used", i, value))
			}
		}
		devices = append(devices, clean)
	}
	return devices, warnings
}

func wholeNumber(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

// encode renders cfg in the document's format. Keys the document carried
// beyond the modeled ones are written back unchanged.
func encode(path string, cfg *Config) ([]byte, error) {
	c := codecFor(path)
	typed, err := c.marshal(cfg)
	if err != nil {
		return nil, err
	}
	if len(cfg.extra) == 0 {
		return typed, nil
	}

	var doc map[string]any
	if err := c.unmarshal(typed, &doc); err != nil {
		return nil, err
	}
	for key, value := range cfg.extra {
		if _, modeled := doc[key]; !modeled {
			doc[key] = value
		}
	}
	return c.marshal(doc)
}
