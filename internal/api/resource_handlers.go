package api

import (
	"context"
	"net/http"

	"bookinghub/internal/db"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ResourceCatalog is the read-only view of the resource table the handlers
// need; resources are created by an external admin path.
type ResourceCatalog interface {
	List(ctx context.Context, search, resourceType string) ([]db.Resource, error)
	ByID(ctx context.Context, id uuid.UUID) (*db.Resource, error)
}

type ResourceHandler struct {
	Catalog ResourceCatalog
}

func NewResourceHandler(catalog ResourceCatalog) *ResourceHandler {
	return &ResourceHandler{Catalog: catalog}
}

type resourceResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
	Tags        []string  `json:"tags"`
}

func toResourceResponse(r db.Resource) resourceResponse {
	return resourceResponse{
		ID:          r.ID,
		Name:        r.Name,
		Type:        r.Type,
		Description: r.Description,
		Location:    r.Location,
		Capacity:    r.Capacity,
		Tags:        r.Tags,
	}
}

func (h *ResourceHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")
	resourceType := r.URL.Query().Get("type")

	resources, err := h.Catalog.List(r.Context(), search, resourceType)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]resourceResponse, 0, len(resources))
	for _, res := range resources {
		out = append(out, toResourceResponse(res))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ResourceHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid resource id"})
		return
	}

	resource, err := h.Catalog.ByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResourceResponse(*resource))
}
