package httpapi

import (
	"net/http"
	"strings"

	"accountd.org/internal/account"
)

type addLoginMethodRequest struct {
	LoginType  string `json:"login_type"`
	Identifier string `json:"identifier"`
}

type listLoginMethodsResponse struct {
	Items []*account.LoginMethod `json:"items"`
}

func (a *API) handleLoginMethodsCollection(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.requirePrincipal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		items, err := a.accounts.ListLoginMethods(r.Context(), principal.AccountID)
		if err != nil {
			handleAccountError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listLoginMethodsResponse{Items: items})
	case http.MethodPost:
		var req addLoginMethodRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		method, err := a.accounts.AddLoginMethod(r.Context(), principal.AccountID,
			account.LoginType(strings.TrimSpace(req.LoginType)), req.Identifier)
		if err != nil {
			handleAccountError(w, r, err)
			return
		}
		a.audit(r.Context(), "login_method.upsert", "login_method", method.ID, map[string]string{
			"login_type": string(method.Type),
		})
		w.Header().Set("Location", "/v1/login-methods/"+method.ID)
		writeJSON(w, http.StatusCreated, method)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleLoginMethodResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/login-methods/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	principal, ok := a.requirePrincipal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		method, err := a.accounts.GetLoginMethod(r.Context(), principal.AccountID, id)
		if err != nil {
			handleAccountError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, method)
	case http.MethodPut:
		var req addLoginMethodRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		method, err := a.accounts.UpdateLoginMethod(r.Context(), principal.AccountID, id,
			account.LoginType(strings.TrimSpace(req.LoginType)), req.Identifier)
		if err != nil {
			handleAccountError(w, r, err)
			return
		}
		a.audit(r.Context(), "login_method.upsert", "login_method", method.ID, map[string]string{
			"login_type": string(method.Type),
		})
		writeJSON(w, http.StatusOK, method)
	case http.MethodDelete:
		if err := a.accounts.RemoveLoginMethod(r.Context(), principal.AccountID, id); err != nil {
			handleAccountError(w, r, err)
			return
		}
		a.audit(r.Context(), "login_method.delete", "login_method", id, nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
