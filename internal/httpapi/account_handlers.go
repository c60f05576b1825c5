package httpapi

import (
	"net/http"
	"strings"

	"accountd.org/internal/account"
)

type createAccountRequest struct {
	Email       string `json:"email"`
	NationalID  string `json:"national_id"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Password    string `json:"password"`
}

type updateAccountRequest struct {
	Email       *string `json:"email"`
	NationalID  *string `json:"national_id"`
	PhoneNumber *string `json:"phone_number"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Password    *string `json:"password"`
	Active      *bool   `json:"active"`
}

type listAccountsResponse struct {
	Items []*account.Account `json:"items"`
}

func (a *API) handleAccountsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createAccount(w, r)
	case http.MethodGet:
		a.listAccounts(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAccountResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/accounts/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getAccount(w, r, id)
	case http.MethodPut, http.MethodPatch:
		a.updateAccount(w, r, id)
	case http.MethodDelete:
		a.deleteAccount(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	acct, err := a.accounts.Register(r.Context(), account.RegisterParams{
		Email:       req.Email,
		NationalID:  req.NationalID,
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Password:    req.Password,
	})
	if err != nil {
		handleAccountError(w, r, err)
		return
	}

	a.audit(r.Context(), "account.create", "account", acct.ID, nil)

	w.Header().Set("Location", "/v1/accounts/"+acct.ID)
	writeJSON(w, http.StatusCreated, acct)
}

func (a *API) listAccounts(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.requirePrincipal(w, r)
	if !ok {
		return
	}
	if !principal.Admin {
		writeError(w, r, http.StatusForbidden, "permission denied")
		return
	}
	items, err := a.accounts.List(r.Context())
	if err != nil {
		handleAccountError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listAccountsResponse{Items: items})
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireOwnerOrAdmin(w, r, id); !ok {
		return
	}
	acct, err := a.accounts.Get(r.Context(), id)
	if err != nil {
		handleAccountError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (a *API) updateAccount(w http.ResponseWriter, r *http.Request, id string) {
	principal, ok := a.requireOwnerOrAdmin(w, r, id)
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	// Only operators may disable or re-enable accounts.
	if req.Active != nil && !principal.Admin {
		writeError(w, r, http.StatusForbidden, "permission denied")
		return
	}

	acct, err := a.accounts.Update(r.Context(), id, account.UpdateParams{
		Email:       req.Email,
		NationalID:  req.NationalID,
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Password:    req.Password,
		Active:      req.Active,
	})
	if err != nil {
		handleAccountError(w, r, err)
		return
	}

	a.audit(r.Context(), "account.update", "account", acct.ID, nil)
	writeJSON(w, http.StatusOK, acct)
}

func (a *API) deleteAccount(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireOwnerOrAdmin(w, r, id); !ok {
		return
	}
	if err := a.accounts.Delete(r.Context(), id); err != nil {
		handleAccountError(w, r, err)
		return
	}
	a.audit(r.Context(), "account.delete", "account", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
