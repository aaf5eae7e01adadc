package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"tubemail/internal/platform/config/raw"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML file and installs it as the fallback for keys missing from the environment.
// Nested maps flatten to upper snake keys, so
//
//	core:
//	  harvest:
//	    workers: 4
//
// answers CORE_HARVEST_WORKERS. An empty path is a no-op
func Load(path string) (Conf, error) {
	if strings.TrimSpace(path) == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Conf{}, fmt.Errorf("read config file: %w", err)
	}
	flat, err := Flatten(data)
	if err != nil {
		return Conf{}, err
	}
	raw.SetOverlay(flat)
	return New(), nil
}

// Flatten parses YAML into upper snake keys with string values
func Flatten(data []byte) (map[string]string, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	out := map[string]string{}
	flattenInto(out, "", doc)
	return out, nil
}

func flattenInto(out map[string]string, prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenInto(out, joinKey(prefix, k), t[k])
		}
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, scalar(e))
		}
		out[prefix] = strings.Join(parts, ",")
	case nil:
		// explicit null leaves the key unset
	default:
		out[prefix] = scalar(t)
	}
}

func joinKey(prefix, k string) string {
	k = strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(strings.TrimSpace(k)))
	if prefix == "" {
		return k
	}
	return prefix + "_" + k
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
