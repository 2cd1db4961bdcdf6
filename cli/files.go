package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/georgepadayatti/docstacker/document"
	"github.com/georgepadayatti/docstacker/pdf/images"
)

// readOptional reads path, returning nil for an empty path.
func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// readFields loads a field list, either a bare JSON array or an object
// with a "fields" array.
func readFields(path string) ([]document.SignatureField, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fields: %w", err)
	}
	var fields []document.SignatureField
	if err := json.Unmarshal(data, &fields); err != nil {
		var wrapped struct {
			Fields []document.SignatureField `json:"fields"`
		}
		if werr := json.Unmarshal(data, &wrapped); werr != nil {
			return nil, fmt.Errorf("failed to parse fields: %w", err)
		}
		fields = wrapped.Fields
	}
	if err := document.CanonicalizeAll(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// readSignatures parses id=path pairs and loads each image.
func readSignatures(pairs []string) (map[string]*images.Image, error) {
	out := make(map[string]*images.Image, len(pairs))
	for _, pair := range pairs {
		id, path, ok := strings.Cut(pair, "=")
		if !ok || id == "" || path == "" {
			return nil, fmt.Errorf("signature %q: expected field-id=path", pair)
		}
		img, err := readImage(path)
		if err != nil {
			return nil, fmt.Errorf("signature %s: %w", id, err)
		}
		out[id] = img
	}
	if len(out) == 0 {
		return nil, errors.New("at least one --signature is required")
	}
	return out, nil
}

func readImage(path string) (*images.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := images.Parse(data)
	if err != nil {
		return nil, err
	}
	return images.Normalize(img)
}
