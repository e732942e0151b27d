package api

import (
	"net/http"

	"storefront-service/internal/domain"
	"storefront-service/internal/storefront"
)

// --- Account Handlers ---

// SessionResponse describes the client as the browser sees it. The access token stays in the
// signed cookie and is never returned in a body.
type SessionResponse struct {
	User      *domain.User `json:"user"`
	View      domain.View  `json:"view"`
	CartCount int32        `json:"cart_count"`
}

func sessionResponse(c *storefront.Client) SessionResponse {
	return SessionResponse{User: c.User(), View: c.View(), CartCount: c.Cart().Count()}
}

// SignInInput holds login credentials.
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpInput holds the registration form.
type SignUpInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *HTTPHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var input SignInInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	c := clientFrom(r)
	if _, err := c.SignIn(r.Context(), input.Email, input.Password); err != nil {
		h.respondWithErr(w, r, err, "Failed to sign in")
		return
	}
	h.persist(w, r, c)
	h.respondWithJSON(w, http.StatusOK, sessionResponse(c))
}

func (h *HTTPHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input SignUpInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	c := clientFrom(r)
	if _, err := c.SignUp(r.Context(), input.Name, input.Email, input.Password); err != nil {
		h.respondWithErr(w, r, err, "Failed to sign up")
		return
	}
	h.persist(w, r, c)
	h.respondWithJSON(w, http.StatusCreated, sessionResponse(c))
}

func (h *HTTPHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	c := clientFrom(r)
	c.SignOut(r.Context())
	h.persist(w, r, c)
	h.respondWithJSON(w, http.StatusOK, sessionResponse(c))
}

func (h *HTTPHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	c := clientFrom(r)
	_, err := c.RefreshSession(r.Context())
	// A rejected refresh signs the client out, so the cookie changes either way.
	h.persist(w, r, c)
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to refresh session")
		return
	}
	h.respondWithJSON(w, http.StatusOK, sessionResponse(c))
}

func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, sessionResponse(clientFrom(r)))
}

func (h *HTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input storefront.ProfileUpdate
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	c := clientFrom(r)
	if _, err := c.UpdateProfile(r.Context(), input); err != nil {
		h.respondWithErr(w, r, err, "Failed to update profile")
		return
	}
	h.respondWithJSON(w, http.StatusOK, sessionResponse(c))
}

// ViewInput names the screen the client wants to show.
type ViewInput struct {
	View domain.View `json:"view" validate:"required"`
}

func (h *HTTPHandler) SetView(w http.ResponseWriter, r *http.Request) {
	var input ViewInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	c := clientFrom(r)
	if err := c.SetView(input.View); err != nil {
		h.respondWithErr(w, r, err, "Failed to change view")
		return
	}
	h.respondWithJSON(w, http.StatusOK, sessionResponse(c))
}
