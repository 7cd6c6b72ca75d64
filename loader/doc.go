// Package loader reads pattern documents and serves them as units.
//
// A pattern document is YAML (JSON is accepted, being a subset) describing one
// unit:
//
//	id: tree             # optional, defaults to the document name
//	requires: [leaf]     # IDs of the units used below
//	define:              # optional named definitions, may refer to each other
//	  Tree:
//	    union:
//	      - use: leaf
//	      - object: {"+": {array: [{ref: Tree}, {etc: []}]}}
//	pattern: {ref: Tree}
//
// # Node encodings
//
// A scalar (null, boolean, number, string) is a literal. Anything else is a
// mapping with exactly one of these keys:
//
//	literal    a scalar, for values that would otherwise be read as a node
//	type       String, Number, Boolean, Object or Array
//	array      a list of nodes; a trailing {etc: [min, max]} repeats the element before it
//	object     a mapping of keys to nodes; "key?" is optional, "[Any]" is the
//	           wildcard key and a "..." entry of the form {etc: [...]} allows
//	           extra keys
//	union      a list of alternatives
//	ref        the name of a definition
//	use        the ID of a required unit
//	recursive  a nested group: {define: {...}, pattern: ...}
//	etc        the repetition marker, with zero, one or two bounds
//
// The max bound of etc may be .inf or "*" for no limit.
//
// Every defect in a document is reported, each as a *ParseError carrying the
// line it was found on, combined with multierr.
package loader
