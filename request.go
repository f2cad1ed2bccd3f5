package filetree

// NodeRequestor is implemented by all node create request types
type NodeRequestor interface {
	GetType() NodeCreateRequestType
	GetPath() string
}

// NodeRequest has common fields embedded in concrete request types
type NodeRequest struct {
	Path string
	Type NodeCreateRequestType
}

func (r *NodeRequest) GetType() NodeCreateRequestType { return r.Type }

func (r *NodeRequest) GetPath() string { return r.Path }

// NodeCreateRequestType valid types are FileNodeType "file", DirNodeType "dir"
type NodeCreateRequestType string

const (
	FileNodeType NodeCreateRequestType = "file"
	DirNodeType  NodeCreateRequestType = "dir"
)

// FileCreateRequest asks for a file node. Content is stored by reference;
// Size is the declared length reported by stat.
type FileCreateRequest struct {
	NodeRequest
	Content []byte
	Size    uint64
}

type DirCreateRequest struct {
	NodeRequest
}
