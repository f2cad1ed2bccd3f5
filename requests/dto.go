package requests

import "github.com/brettbedarf/filetree"

// ContentEncoding names how a file's inline content is written in a
// definition file
type ContentEncoding string

const (
	TextEncoding   ContentEncoding = "text" // default
	Base64Encoding ContentEncoding = "base64"
)

// NodeRequestDTO is the JSON/YAML representation of one node definition.
//
// Ex. YAML:
//
//	- type: dir
//	  path: /docs/img
//	- type: file
//	  path: /docs/readme.txt
//	  content: hello
//	- type: file
//	  path: /docs/img/logo.png
//	  encoding: base64
//	  content: iVBORw0KGgo=
type NodeRequestDTO struct {
	Path     string                         `json:"path" yaml:"path"`
	Type     filetree.NodeCreateRequestType `json:"type" yaml:"type"`
	Content  *string                        `json:"content,omitempty" yaml:"content,omitempty"`   // file only
	Encoding *ContentEncoding               `json:"encoding,omitempty" yaml:"encoding,omitempty"` // file only (Default text)
	Size     *uint64                        `json:"size,omitempty" yaml:"size,omitempty"`         // declared size (Default decoded content length)
}
