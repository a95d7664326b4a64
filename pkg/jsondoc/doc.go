// Package jsondoc is the structured-document layer used by the object
// database adapters.
//
// A Tree is a generic key-value tree decoded from a JSON object. Values are
// looked up by dotted key path with a typed default when absent:
//
//	tree, err := jsondoc.JSON.Read(body)
//	rev := tree.String("rev", "")
//	port := tree.Int("server.port", 5984)
//
// Numbers are decoded as json.Number so integers wider than 53 bits survive a
// read/write round trip unchanged.
package jsondoc
