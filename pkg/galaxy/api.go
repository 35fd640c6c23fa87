package galaxy

import (
	"context"
	"fmt"
	"sort"
	"strconv"
)

// ListWorkflows lists the workflows visible to the authenticated user.
func (c *Client) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	var workflows []Workflow
	if err := c.get(ctx, "/api/workflows", nil, &workflows); err != nil {
		return nil, WrapError("ListWorkflows", err)
	}
	return workflows, nil
}

// FindWorkflowIDByName resolves a workflow name to its ID. The name must
// match exactly one workflow; zero or multiple matches are errors.
func (c *Client) FindWorkflowIDByName(ctx context.Context, name string) (string, error) {
	workflows, err := c.ListWorkflows(ctx)
	if err != nil {
		return "", err
	}

	var matches []Workflow
	for _, wf := range workflows {
		if wf.Name == name {
			matches = append(matches, wf)
		}
	}

	switch len(matches) {
	case 0:
		return "", NewError("FindWorkflowIDByName", fmt.Sprintf("workflow named %q was not found", name))
	case 1:
		return matches[0].ID, nil
	default:
		return "", NewError("FindWorkflowIDByName",
			fmt.Sprintf("multiple workflows named %q found; use an explicit workflow ID", name))
	}
}

// GetWorkflow introspects one workflow, including its declared input slots.
func (c *Client) GetWorkflow(ctx context.Context, workflowID string) (*WorkflowDetail, error) {
	var detail WorkflowDetail
	if err := c.get(ctx, "/api/workflows/"+workflowID, nil, &detail); err != nil {
		return nil, WrapError("GetWorkflow", err)
	}
	return &detail, nil
}

// WorkflowInputID resolves an input slot of a workflow by label or name.
// With an empty label, the lowest-ordered declared input is returned.
func (c *Client) WorkflowInputID(ctx context.Context, workflowID, label string) (string, error) {
	detail, err := c.GetWorkflow(ctx, workflowID)
	if err != nil {
		return "", err
	}
	return ResolveInputID(detail.Inputs, label)
}

// ResolveInputID picks the input slot matching label (against the slot's
// label or name). An empty label selects the lowest-ordered slot, comparing
// keys numerically where possible.
func ResolveInputID(inputs map[string]WorkflowInput, label string) (string, error) {
	if len(inputs) == 0 {
		return "", NewError("ResolveInputID", "workflow has no declared inputs")
	}

	if label != "" {
		for id, meta := range inputs {
			if meta.Label == label || meta.Name == label {
				return id, nil
			}
		}
		return "", NewError("ResolveInputID", fmt.Sprintf("workflow input label %q not found", label))
	}

	ids := make([]string, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, iErr := strconv.Atoi(ids[i])
		nj, jErr := strconv.Atoi(ids[j])
		if iErr == nil && jErr == nil {
			return ni < nj
		}
		return ids[i] < ids[j]
	})
	return ids[0], nil
}

// CreateHistory creates a working history and returns its ID.
func (c *Client) CreateHistory(ctx context.Context, name string) (string, error) {
	var history History
	if err := c.post(ctx, "/api/histories", map[string]any{"name": name}, &history); err != nil {
		return "", WrapError("CreateHistory", err)
	}
	return history.ID, nil
}

// FetchURLToHistory asks the platform to fetch an external URL into a
// history and returns the uploaded dataset's ID.
func (c *Client) FetchURLToHistory(ctx context.Context, historyID, fetchURL, name string) (string, error) {
	payload := map[string]any{
		"history_id": historyID,
		"targets": []map[string]any{
			{
				"destination": map[string]string{"type": "hdas"},
				"elements": []map[string]string{
					{"src": "url", "url": fetchURL, "name": name},
				},
			},
		},
	}

	var resp fetchResponse
	if err := c.post(ctx, "/api/tools/fetch", payload, &resp); err != nil {
		return "", WrapError("FetchURLToHistory", err)
	}
	if len(resp.Outputs) == 0 {
		return "", NewError("FetchURLToHistory", fmt.Sprintf("no outputs returned when fetching %s", fetchURL))
	}
	return resp.Outputs[0].ID, nil
}

// CreatePairCollection bundles a forward and a reverse dataset into one
// paired collection and returns the collection's ID.
func (c *Client) CreatePairCollection(ctx context.Context, historyID, forwardID, reverseID, name string) (string, error) {
	payload := map[string]any{
		"history_id":      historyID,
		"collection_type": "paired",
		"name":            name,
		"element_identifiers": []map[string]string{
			{"name": "forward", "src": SrcDataset, "id": forwardID},
			{"name": "reverse", "src": SrcDataset, "id": reverseID},
		},
	}

	var resp collectionResponse
	if err := c.post(ctx, "/api/dataset_collections", payload, &resp); err != nil {
		return "", WrapError("CreatePairCollection", err)
	}
	return resp.ID, nil
}

// InvokeWorkflow invokes a workflow with named input bindings against a
// history and returns the invocation ID.
func (c *Client) InvokeWorkflow(ctx context.Context, workflowID, historyID string, inputs map[string]InputBinding) (string, error) {
	payload := map[string]any{
		"history_id": historyID,
		"inputs":     inputs,
	}

	var resp invocationResponse
	if err := c.post(ctx, "/api/workflows/"+workflowID+"/invocations", payload, &resp); err != nil {
		return "", WrapError("InvokeWorkflow", err)
	}
	return resp.ID, nil
}
