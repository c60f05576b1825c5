package httpapi

import (
	"net/http"
	"time"

	"accountd.org/internal/account"
)

type updateProfileRequest struct {
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
	BirthDate *string `json:"birth_date"`
}

const birthDateLayout = "2006-01-02"

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.requirePrincipal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		profile, err := a.accounts.Profile(r.Context(), principal.AccountID)
		if err != nil {
			handleAccountError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	case http.MethodPut:
		var req updateProfileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		upd := account.ProfileUpdate{
			Bio:       req.Bio,
			AvatarURL: req.AvatarURL,
		}
		if req.BirthDate != nil {
			bd, err := time.Parse(birthDateLayout, *req.BirthDate)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "birth_date must use YYYY-MM-DD")
				return
			}
			upd.BirthDate = &bd
		}
		profile, err := a.accounts.UpdateProfile(r.Context(), principal.AccountID, upd)
		if err != nil {
			handleAccountError(w, r, err)
			return
		}
		a.audit(r.Context(), "profile.update", "profile", profile.ID, nil)
		writeJSON(w, http.StatusOK, profile)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}
