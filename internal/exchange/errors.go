package exchange

import "errors"

// ErrMalformed reports a payload whose overall shape is unusable: a
// structured import that is not an array, or a tabular import without the
// required header columns. Bad records inside a well-formed payload are
// reported per candidate instead.
var ErrMalformed = errors.New("malformed payload")
