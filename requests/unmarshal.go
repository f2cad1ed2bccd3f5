package requests

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/filetree"
)

// Format of a definition document
type Format string

const (
	JSONFormat Format = "json"
	YAMLFormat Format = "yaml"
)

// FormatFromPath picks the document format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONFormat, nil
	case ".yaml", ".yml":
		return YAMLFormat, nil
	default:
		return "", fmt.Errorf("unknown node definition file extension: %s", path)
	}
}

// LoadFile reads a JSON or YAML node definition file; the format is
// determined by extension.
func LoadFile(path string) ([]filetree.NodeRequestor, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	reqs, err := Unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reqs, nil
}

// Unmarshal decodes a list of node definitions
func Unmarshal(data []byte, format Format) ([]filetree.NodeRequestor, error) {
	var dtos []NodeRequestDTO
	switch format {
	case JSONFormat:
		if err := json.Unmarshal(data, &dtos); err != nil {
			return nil, fmt.Errorf("failed to unmarshal node definitions: %w", err)
		}
	case YAMLFormat:
		if err := yaml.Unmarshal(data, &dtos); err != nil {
			return nil, fmt.Errorf("failed to unmarshal node definitions: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown node definition format: %q", format)
	}

	reqs := make([]filetree.NodeRequestor, 0, len(dtos))
	for i, dto := range dtos {
		req, err := convertNodeDTO(dto)
		if err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, dto.Path, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Split partitions requests into directories and files, keeping their order
func Split(reqs []filetree.NodeRequestor) ([]*filetree.DirCreateRequest, []*filetree.FileCreateRequest) {
	var dirs []*filetree.DirCreateRequest
	var files []*filetree.FileCreateRequest
	for _, r := range reqs {
		switch req := r.(type) {
		case *filetree.DirCreateRequest:
			dirs = append(dirs, req)
		case *filetree.FileCreateRequest:
			files = append(files, req)
		}
	}
	return dirs, files
}

// Conversion logic with defaults in the unmarshaling layer
func convertNodeDTO(dto NodeRequestDTO) (filetree.NodeRequestor, error) {
	node := filetree.NodeRequest{Path: dto.Path, Type: dto.Type}

	switch dto.Type {
	case filetree.DirNodeType:
		if dto.Content != nil {
			return nil, fmt.Errorf("directory cannot have content")
		}
		return &filetree.DirCreateRequest{NodeRequest: node}, nil

	case filetree.FileNodeType:
		content, err := decodeContent(valueOrDefault(dto.Content, ""), valueOrDefault(dto.Encoding, TextEncoding))
		if err != nil {
			return nil, err
		}
		return &filetree.FileCreateRequest{
			NodeRequest: node,
			Content:     content,
			Size:        valueOrDefault(dto.Size, uint64(len(content))),
		}, nil

	default:
		return nil, fmt.Errorf("unknown node type: %q", dto.Type)
	}
}

func decodeContent(raw string, enc ContentEncoding) ([]byte, error) {
	switch enc {
	case TextEncoding:
		return []byte(raw), nil
	case Base64Encoding:
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 content: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown content encoding: %q", enc)
	}
}

func valueOrDefault[T any](ptr *T, defaultVal T) T {
	if ptr != nil {
		return *ptr
	}
	return defaultVal
}
