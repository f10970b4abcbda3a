package agentguard

import "context"

// ToolFunc is the function signature that Wrap guards. The caller
// provides a Request describing the content about to be processed.
type ToolFunc func(ctx context.Context, req Request) (any, error)

// Wrap returns a new ToolFunc that evaluates the safety checks before
// calling fn. A rejected request returns a *BlockedError without
// calling fn; warnings pass through.
func (c *Client) Wrap(fn ToolFunc, opts ...WrapOption) ToolFunc {
	wcfg := wrapConfig{subject: c.cfg.subject}
	for _, o := range opts {
		o(&wcfg)
	}

	return func(ctx context.Context, req Request) (any, error) {
		if req.SubjectID == "" {
			req.SubjectID = wcfg.subject
		}

		result := c.Check(req)
		if !result.Allowed() {
			return nil, &BlockedError{Request: req, Result: result}
		}
		return fn(ctx, req)
	}
}
