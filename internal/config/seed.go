package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mcp-x-studio/canvas/internal/canvas"
	"github.com/mcp-x-studio/canvas/pkg/types"
)

var (
	envPattern  = regexp.MustCompile(`\{env:([^}]+)\}`)
	filePattern = regexp.MustCompile(`\{file:([^}]+)\}`)
)

// LoadSeed reads a starting document from path and validates it with the
// same rules the store applies to new elements. JSON, JSONC and YAML are
// accepted, chosen by extension. JSON and JSONC files may reference
// {env:VAR} and {file:path} placeholders inside string values.
func LoadSeed(path string) (*types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}

	var doc types.Document
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", ".jsonc":
		data = interpolate(jsonc.ToJSON(data), filepath.Dir(path))
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse seed %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := decodeYAML(data, &doc); err != nil {
			return nil, fmt.Errorf("parse seed %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("seed %s: unsupported extension %q", path, ext)
	}

	if err := canvas.Normalize(&doc); err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return &doc, nil
}

// decodeYAML decodes through the JSON model so that numbers and nested
// style objects get the same Go types as documents posted over HTTP.
func decodeYAML(data []byte, doc *types.Document) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	j, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(j, doc)
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := envPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		return os.Getenv(envPattern.FindStringSubmatch(match)[1])
	})

	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		if strings.HasPrefix(filePath, "~/") {
			filePath = filepath.Join(os.Getenv("HOME"), filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match
		}

		// Escape for a JSON string body.
		quoted, _ := json.Marshal(string(content))
		return string(quoted[1 : len(quoted)-1])
	})

	return []byte(str)
}
