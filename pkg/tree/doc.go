// Package tree implements the generic device hierarchy that adapters bind to.
//
// # Hierarchy
//
// A tree is a set of named nodes. Hub nodes (KindDev) group children; leaves
// are variables (KindVar), commands (KindCmd) or streams (KindStream):
//
//	/                       (root)
//	├── mmio
//	│   ├── AxiVersion
//	│   │   ├── UpTimeCnt   var, RO, 32 bit unsigned
//	│   │   └── BuildStamp  var, RO, ascii string
//	│   ├── Scratch         var, RW
//	│   └── Reset           cmd
//	└── Fifo                stream
//
// # Paths
//
// Nodes are addressed with "/"-separated paths. The root prints as "/" and
// every other node as "/a/b/c". FindByName resolves paths relative to the
// receiver; ".." names the parent and a leading "/" starts at the root.
//
// # Leaf descriptors
//
// CreateVar, CreateCmd and CreateStream turn a leaf into a role-specific
// descriptor. Asking a node for a role it does not have fails with
// ErrInterfaceNotImplemented.
//
// # YAML
//
// LoadYAMLFile builds a tree from a YAML description. See loader.go for the
// format.
package tree
