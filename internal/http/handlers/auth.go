package handlers

import (
	"encoding/json"
	"net/http"

	"felini_trivia/internal/http/middleware"
	"felini_trivia/internal/logger"
	"felini_trivia/internal/service"

	"github.com/gin-gonic/gin"
)

const oauthStateCookie = "oauth_state"

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleLogin redirects to the identity provider's consent screen with a
// fresh anti-CSRF state cookie.
func (h *Handler) GoogleLogin(c *gin.Context) {
	state, err := service.NewSessionID()
	if err != nil {
		respondError(c, h.AssetCode, err)
		return
	}
	c.SetCookie(oauthStateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, h.OAuth.AuthCodeURL(state))
}

// GoogleCallback exchanges the authorization code, resolves the durable user
// and starts a game session.
func (h *Handler) GoogleCallback(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid login state."})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Login was cancelled."})
		return
	}

	ctx := c.Request.Context()
	oauthToken, err := h.OAuth.Exchange(ctx, code)
	if err != nil {
		logger.Warn("oauth code exchange failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"message": "Login failed. Please try again."})
		return
	}

	resp, err := h.OAuth.Client(ctx, oauthToken).Get(userinfoURL)
	if err != nil {
		logger.Warn("userinfo fetch failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"message": "Login failed. Please try again."})
		return
	}
	defer resp.Body.Close()

	var profile service.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		logger.Warn("userinfo payload unreadable", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"message": "Login failed. Please try again."})
		return
	}

	user, err := h.Auth.ResolveGoogleUser(ctx, profile)
	if err != nil {
		respondError(c, h.AssetCode, err)
		return
	}

	sessionID, err := service.NewSessionID()
	if err != nil {
		respondError(c, h.AssetCode, err)
		return
	}
	jwtToken, err := service.GenerateJWT(user.ID, sessionID)
	if err != nil {
		respondError(c, h.AssetCode, err)
		return
	}

	if _, err := h.Game.StartGame(ctx, sessionID, user.ID); err != nil {
		logger.Warn("game not seeded on login", "user_id", user.ID, "error", err)
	}

	c.SetCookie(middleware.SessionCookie, jwtToken, 7*24*3600, "/", "", false, true)
	c.Redirect(http.StatusFound, "/start")
}

// Logout drops the game session and clears the session cookie. Works whether
// or not the token still validates.
func (h *Handler) Logout(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		if cookie, err := c.Cookie(middleware.SessionCookie); err == nil && cookie != "" {
			if _, sid, err := service.ParseJWT(cookie); err == nil {
				sessionID = sid
				ok = true
			}
		}
	}
	if ok {
		if err := h.Game.EndGame(c.Request.Context(), sessionID); err != nil {
			logger.Warn("session not cleared on logout", "error", err)
		}
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}
