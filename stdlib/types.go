// Package stdlib provides the built-in widget components used by example and
// test graphs.
package stdlib

import "github.com/c360/fbpcore/port"

// String is the shared payload type for text-bearing ports across this
// package.
var String = port.Type{Name: "string", Sample: ""}

// Int is the shared payload type for integer-bearing config ports (e.g.
// WordsToLine.MEASURE).
var Int = port.Type{Name: "int", Sample: 0}
