package galaxy

// Workflow is one entry of the workflow listing.
type Workflow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WorkflowInput is one declared input slot of a workflow.
type WorkflowInput struct {
	Label string `json:"label"`
	Name  string `json:"name,omitempty"`
	UUID  string `json:"uuid,omitempty"`
}

// WorkflowDetail is the introspected form of a workflow, with its input
// slots keyed by step index.
type WorkflowDetail struct {
	ID     string                   `json:"id"`
	Name   string                   `json:"name"`
	Inputs map[string]WorkflowInput `json:"inputs"`
}

// History is a working context on the platform.
type History struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// dataset is one uploaded dataset reference returned by a fetch.
type dataset struct {
	ID string `json:"id"`
}

// fetchResponse is the response of a tools/fetch call.
type fetchResponse struct {
	Outputs []dataset `json:"outputs"`
}

// collectionResponse is the response of a dataset_collections call.
type collectionResponse struct {
	ID string `json:"id"`
}

// invocationResponse is the response of a workflow invocation call.
type invocationResponse struct {
	ID string `json:"id"`
}

// Input source types for workflow invocation bindings.
const (
	// SrcDataset references a single uploaded dataset (hda).
	SrcDataset = "hda"

	// SrcCollection references a dataset collection (hdca).
	SrcCollection = "hdca"
)

// InputBinding binds one workflow input slot to an uploaded resource.
type InputBinding struct {
	Src string `json:"src"`
	ID  string `json:"id"`
}
