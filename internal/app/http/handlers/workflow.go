package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fieldquote/quotesync/internal/domain/workflow"
)

type workflowResponse struct {
	Status    workflow.Status   `json:"status"`
	Meta      workflow.Meta     `json:"meta"`
	Terminal  bool              `json:"terminal"`
	Primary   *workflow.Action  `json:"primary,omitempty"`
	Secondary []workflow.Action `json:"secondary"`
	Manual    []workflow.Status `json:"manual"`
}

// Workflow describes the actions offered for a status; unknown or alias
// spellings resolve like stored statuses do.
func (h *Handlers) Workflow(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "status")
	st := workflow.Normalize(raw)
	secondary := workflow.SecondaryActions(raw)
	if secondary == nil {
		secondary = []workflow.Action{}
	}
	writeJSON(w, http.StatusOK, workflowResponse{
		Status:    st,
		Meta:      workflow.MetaFor(raw),
		Terminal:  st.Terminal(),
		Primary:   workflow.PrimaryAction(raw),
		Secondary: secondary,
		Manual:    workflow.ManualOptions(raw),
	})
}
