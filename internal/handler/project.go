package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/asset"
	"github.com/triforge/triforge-api/internal/optional"
	"github.com/triforge/triforge-api/internal/service"
)

// multipartMemory is how much of a multipart form is held in memory before
// parts spill to temporary files.
const multipartMemory = 8 << 20

// ProjectHandler serves /api/projects. Reads are public; writes are gated.
//
// Create and update accept either a JSON body or multipart/form-data. In a
// multipart form the image may be a file part named "image" or a text field
// "image" holding a URL; "tags" may repeat.
type ProjectHandler struct {
	projects       *service.ProjectService
	maxUploadBytes int64
	responder
}

func NewProjectHandler(projects *service.ProjectService, maxUploadBytes int64, logger *slog.Logger) *ProjectHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = asset.DefaultMaxBytes
	}
	return &ProjectHandler{projects: projects, maxUploadBytes: maxUploadBytes, responder: newResponder(logger)}
}

// projectPayload is the transport-level view of a create/update body.
// Each field remembers whether it was sent.
type projectPayload struct {
	Segment  optional.Field[string] `json:"segment"`
	Category optional.Field[string] `json:"category"`
	Title    optional.Field[string] `json:"title"`
	Result   optional.Field[string] `json:"result"`
	Details  optional.Field[string] `json:"details"`
	Tags     json.RawMessage        `json:"tags"`
	Image    optional.Field[string] `json:"image"`
	ImageAlt optional.Field[string] `json:"imageAlt"`

	formTags []string    // multipart "tags" values
	file     *asset.File // multipart "image" file part
}

func (p *projectPayload) rawTags() any {
	switch {
	case p.formTags != nil:
		return p.formTags
	case len(p.Tags) > 0:
		return p.Tags
	default:
		return nil
	}
}

func (p *projectPayload) imageSource() asset.Source {
	url, _ := p.Image.Get()
	return asset.NewSource(p.file, url)
}

func (p *projectPayload) createInput() service.CreateProjectInput {
	return service.CreateProjectInput{
		Segment:  p.Segment.Value,
		Category: p.Category.Value,
		Title:    p.Title.Value,
		Result:   p.Result.Value,
		Details:  p.Details.Value,
		Tags:     p.rawTags(),
		Image:    p.imageSource(),
		ImageAlt: p.ImageAlt.Value,
	}
}

func (p *projectPayload) updateInput() service.UpdateProjectInput {
	return service.UpdateProjectInput{
		Segment:  p.Segment,
		Category: p.Category,
		Title:    p.Title,
		Result:   p.Result,
		Details:  p.Details,
		Tags:     p.rawTags(),
		Image:    p.imageSource(),
		ImageAlt: p.ImageAlt,
	}
}

// HandleList returns projects newest first.
//
// HTTP: GET /api/projects?segment=web
// "segment" may be omitted or "all" for every segment.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	projects, err := h.projects.List(r.Context(), r.URL.Query().Get("segment"), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toProjectResponses(projects))
}

// HTTP: GET /api/projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	project, err := h.projects.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toProjectResponse(project))
}

// HTTP: POST /api/projects
// Auth: Required
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := h.decode(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	project, err := h.projects.Create(r.Context(), payload.createInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, toProjectResponse(project))
}

// HTTP: PUT /api/projects/{id}
// Auth: Required
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	payload, err := h.decode(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	project, err := h.projects.Update(r.Context(), id, payload.updateInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toProjectResponse(project))
}

// HTTP: DELETE /api/projects/{id}
// Auth: Required
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.projects.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode picks the body format from the Content-Type header.
func (h *ProjectHandler) decode(w http.ResponseWriter, r *http.Request) (*projectPayload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return h.decodeMultipart(w, r)
	}

	var p projectPayload
	if err := decodeJSON(w, r, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (h *ProjectHandler) decodeMultipart(w http.ResponseWriter, r *http.Request) (*projectPayload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+maxJSONBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperror.ValidationFailed("image",
				fmt.Sprintf("uploaded image must be %d bytes or less", h.maxUploadBytes))
		}
		return nil, apperror.BadRequest("invalid multipart form: " + err.Error())
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("failed to remove multipart temp files", slog.String("error", err.Error()))
		}
	}()

	values := r.MultipartForm.Value
	field := func(name string) optional.Field[string] {
		if v, ok := values[name]; ok && len(v) > 0 {
			return optional.Some(v[0])
		}
		return optional.Field[string]{}
	}

	p := &projectPayload{
		Segment:  field("segment"),
		Category: field("category"),
		Title:    field("title"),
		Result:   field("result"),
		Details:  field("details"),
		Image:    field("image"),
		ImageAlt: field("imageAlt"),
		formTags: values["tags"],
	}
	if p.formTags == nil {
		p.formTags = values["tags[]"]
	}

	file, err := h.readImage(r)
	if err != nil {
		return nil, err
	}
	p.file = file
	return p, nil
}

// readImage returns the "image" file part, or nil when the form has none.
func (h *ProjectHandler) readImage(r *http.Request) (*asset.File, error) {
	f, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.BadRequest("invalid image part: " + err.Error())
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading uploaded image: %w", err)
	}
	return asset.NewFile(header.Filename, data, h.maxUploadBytes)
}
