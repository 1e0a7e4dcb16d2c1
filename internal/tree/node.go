package tree

type Kind uint8

const (
	File Kind = iota
	Dir
)

func (k Kind) String() string {
	if k == Dir {
		return "folder"
	}
	return "file"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Node is one entry of a scanned project tree. Dir nodes keep their children
// in insertion order; names are unique within a parent.
type Node struct {
	Name string
	Kind Kind

	children []*Node
	index    map[string]int
}

func NewDir(name string) *Node {
	return &Node{Name: name, Kind: Dir, index: make(map[string]int)}
}

func NewFile(name string) *Node {
	return &Node{Name: name, Kind: File}
}

func (n *Node) IsDir() bool {
	return n.Kind == Dir
}

// Add attaches child to n and returns it. A child with the same name replaces
// the previous one in place. Add on a file node is a no-op returning nil.
func (n *Node) Add(child *Node) *Node {
	if !n.IsDir() || child == nil {
		return nil
	}
	if n.index == nil {
		n.index = make(map[string]int)
	}
	if i, ok := n.index[child.Name]; ok {
		n.children[i] = child
		return child
	}
	n.index[child.Name] = len(n.children)
	n.children = append(n.children, child)
	return child
}

func (n *Node) Child(name string) (*Node, bool) {
	i, ok := n.index[name]
	if !ok {
		return nil, false
	}
	return n.children[i], true
}

func (n *Node) Children() []*Node {
	return n.children
}

func (n *Node) Len() int {
	return len(n.children)
}

func (n *Node) Files() []*Node {
	return n.filter(File)
}

func (n *Node) Dirs() []*Node {
	return n.filter(Dir)
}

func (n *Node) filter(kind Kind) []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and its descendants depth-first. path holds the names from the
// first level below the root down to the visited node.
func (n *Node) Walk(fn func(path []string, node *Node)) {
	n.walk(nil, fn)
}

func (n *Node) walk(path []string, fn func([]string, *Node)) {
	fn(path, n)
	for _, c := range n.children {
		next := make([]string, len(path)+1)
		copy(next, path)
		next[len(path)] = c.Name
		c.walk(next, fn)
	}
}

// CountFiles returns the number of file nodes under n.
func (n *Node) CountFiles() int {
	count := 0
	n.Walk(func(_ []string, node *Node) {
		if node.Kind == File {
			count++
		}
	})
	return count
}
