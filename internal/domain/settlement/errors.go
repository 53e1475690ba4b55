package settlement

import "errors"

var ErrMalformedGrid = errors.New("malformed grid")
