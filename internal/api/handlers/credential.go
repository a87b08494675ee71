package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/flowcraft-dev/flowcraft/internal/api/dto"
	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
	"github.com/flowcraft-dev/flowcraft/internal/domain/repositories"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/crypto"
)

// CredentialHandler exposes credential CRUD (spec.md §6). Plaintext Data
// never leaves this layer once encrypted: GET/List responses always
// withhold Credential.Data (it carries json:"-" already).
type CredentialHandler struct {
	credentials *repositories.CredentialRepository
	encryptor   *crypto.Encryptor
}

func NewCredentialHandler(credentials *repositories.CredentialRepository, encryptor *crypto.Encryptor) *CredentialHandler {
	return &CredentialHandler{credentials: credentials, encryptor: encryptor}
}

func (h *CredentialHandler) List(w http.ResponseWriter, r *http.Request) {
	credentials, total, err := h.credentials.FindAll(r.Context(), repositories.NewListOptions(1, 100))
	if err != nil {
		dto.InternalServerError(w, "failed to list credentials")
		return
	}
	dto.JSONWithMeta(w, http.StatusOK, credentials, &dto.Meta{Page: 1, PerPage: 100, Total: total})
}

func (h *CredentialHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseCredentialID(r)
	if err != nil {
		dto.BadRequest(w, "invalid credential id")
		return
	}
	cred, err := h.credentials.FindByID(r.Context(), id)
	if err != nil {
		dto.NotFound(w, "credential")
		return
	}
	dto.JSON(w, http.StatusOK, cred)
}

func (h *CredentialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" || req.Type == "" {
		dto.BadRequest(w, "name and type are required")
		return
	}

	ciphertext, err := h.encryptor.Encrypt(req.Data)
	if err != nil {
		dto.InternalServerError(w, "failed to encrypt credential data")
		return
	}

	cred := &models.Credential{
		Name: req.Name,
		Type: req.Type,
		Data: ciphertext,
	}
	if err := h.credentials.Create(r.Context(), cred); err != nil {
		dto.InternalServerError(w, "failed to create credential")
		return
	}
	dto.JSON(w, http.StatusCreated, cred)
}

func (h *CredentialHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseCredentialID(r)
	if err != nil {
		dto.BadRequest(w, "invalid credential id")
		return
	}
	cred, err := h.credentials.FindByID(r.Context(), id)
	if err != nil {
		dto.NotFound(w, "credential")
		return
	}

	var req dto.UpdateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}

	if req.Name != nil {
		cred.Name = *req.Name
	}
	if req.Data != nil {
		ciphertext, err := h.encryptor.Encrypt(req.Data)
		if err != nil {
			dto.InternalServerError(w, "failed to encrypt credential data")
			return
		}
		cred.Data = ciphertext
	}

	if err := h.credentials.Update(r.Context(), cred); err != nil {
		dto.InternalServerError(w, "failed to update credential")
		return
	}
	dto.JSON(w, http.StatusOK, cred)
}

func (h *CredentialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseCredentialID(r)
	if err != nil {
		dto.BadRequest(w, "invalid credential id")
		return
	}
	if err := h.credentials.Delete(r.Context(), id); err != nil {
		dto.InternalServerError(w, "failed to delete credential")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseCredentialID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}
