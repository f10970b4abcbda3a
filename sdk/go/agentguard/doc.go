// Package agentguard provides in-process safety enforcement for Go agent
// frameworks. It runs layered checks on agent traffic — subject standing,
// rate and cost quotas, content filtering, and prompt injection detection —
// and enforces rejections at a boundary the agent cannot bypass.
//
// Usage:
//
//	guard, err := agentguard.New(agentguard.WithConfigFile("guard.yaml"))
//	wrapped := guard.Wrap(myTool, agentguard.WrapWithSubject("agent-7"))
//	result, err := wrapped(ctx, agentguard.Request{
//	    Content: "summarize the quarterly report",
//	})
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/grump/agentguard/sdk/go/agentguard.
package agentguard
