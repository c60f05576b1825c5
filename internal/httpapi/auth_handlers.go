package httpapi

import (
	"net/http"
	"time"

	"accountd.org/internal/account"
)

type loginRequest struct {
	Email       string `json:"email"`
	NationalID  string `json:"national_id"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type tokenResponse struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	pair, acct, err := a.accounts.Login(r.Context(), account.Credentials{
		Email:       req.Email,
		NationalID:  req.NationalID,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		handleAccountError(w, r, err)
		return
	}

	a.audit(r.Context(), "auth.login", "account", acct.ID, map[string]string{
		"expires_at": pair.AccessExpiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Access:           pair.AccessToken,
		Refresh:          pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	})
}

func (a *API) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Refresh == "" {
		writeError(w, r, http.StatusBadRequest, "refresh is required")
		return
	}

	pair, err := a.accounts.Refresh(r.Context(), req.Refresh)
	if err != nil {
		handleAccountError(w, r, err)
		return
	}

	a.audit(r.Context(), "auth.refresh", "token", "", nil)

	writeJSON(w, http.StatusOK, tokenResponse{
		Access:           pair.AccessToken,
		Refresh:          pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	})
}
