// ABOUTME: Echo backend used when no answer service is configured
// ABOUTME: Returns the question as the answer and copies the request id through

package backend

import "context"

// Stub echoes the question back.
type Stub struct{}

// Answer implements Backend.
func (Stub) Answer(ctx context.Context, req Request) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	return Answer{ID: req.ID, Answer: req.Question}, nil
}
