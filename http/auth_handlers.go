package http

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pricepulse/store"
)

const userCollection = "users"

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates the account with the identity provider and stores
// the profile document. Any failure surfaces as 400 with the message.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "No JSON data provided",
		})
		return
	}

	uid, err := a.Auth.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	profile := store.Document{
		"name":      req.Name,
		"email":     req.Email,
		"role":      "normal",
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if err := a.Store.Put(r.Context(), userCollection, uid, profile); err != nil {
		a.Logger.Error("failed to store user profile", zap.String("uid", uid), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "User registered successfully",
	})
}

// handleLogin signs in and returns tokens plus the stored profile.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "No JSON data provided",
		})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "Missing fields",
		})
		return
	}

	token, err := a.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	profile, err := a.Store.Get(r.Context(), userCollection, token.UID)
	if err != nil {
		profile = store.Document{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"message":      "Login successful",
		"idToken":      token.IDToken,
		"refreshToken": token.RefreshToken,
		"uid":          token.UID,
		"user":         profile,
	})
}
