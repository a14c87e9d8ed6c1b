package question

import "errors"

// ErrMalformedResponse marks a collaborator result (decomposition,
// generation, advice) that does not have the required structure.
var ErrMalformedResponse = errors.New("malformed collaborator response")
