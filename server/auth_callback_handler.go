package server

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	usersessions "github.com/jrsteele09/gh-collaborator-audit/sessions"
	"github.com/rs/zerolog"
)

// OAuthCallbackHandler completes the flow started by LoginHandler (GET /auth/callback).
// No session is created unless the state matches, the code exchanges for a bearer
// token with the required scopes, and the user can be fetched.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())
		query := r.URL.Query()
		state := query.Get("state")
		code := query.Get("code")

		cs := s.cookieSession(r)
		expectedState := cookieString(cs, cookieKeyOAuthState)
		delete(cs.Values, cookieKeyOAuthState)

		// Check for authorization errors
		if errorParam := query.Get("error"); errorParam != "" {
			logger.Info().Str("error", errorParam).Str("description", query.Get("error_description")).Msg("Authorization denied")
			if expectedState != "" {
				if err := s.authState.Delete(r.Context(), expectedState); err != nil {
					logger.Warn().Err(err).Msg("Failed to drop abandoned OAuth state")
				}
			}
			_ = cs.Save(r, w)
			s.renderErrorStatus(w, r, http.StatusBadRequest, "GitHub authorization failed: "+errorParam)
			return
		}

		if code == "" || state == "" {
			_ = cs.Save(r, w)
			s.renderErrorStatus(w, r, http.StatusBadRequest, "Missing code or state parameter")
			return
		}

		authState, err := s.authState.Consume(r.Context(), state)
		if err != nil || !tokensEqual(state, expectedState) {
			logger.Warn().Err(err).Msg("OAuth state mismatch")
			_ = cs.Save(r, w)
			s.renderError(w, r, apperrors.ErrInvalidState)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.config.GetRequestTimeout())
		defer cancel()

		token, err := s.oauth.Exchange(s.clientContext(ctx), code)
		if err != nil {
			logger.Error().Err(err).Msg("OAuth token exchange failed")
			_ = cs.Save(r, w)
			s.renderErrorStatus(w, r, http.StatusBadGateway, "Could not complete sign-in with GitHub")
			return
		}

		if !tokenTypeIsBearer(token.TokenType) {
			logger.Warn().Str("token_type", token.TokenType).Msg("Unexpected token type")
			_ = cs.Save(r, w)
			s.renderErrorStatus(w, r, http.StatusBadRequest, "GitHub returned an unsupported token type")
			return
		}

		granted, _ := token.Extra("scope").(string)
		if !hasScopes(granted, s.config.GetScopes()) {
			logger.Warn().Str("granted", granted).Msg("Insufficient OAuth scope")
			_ = cs.Save(r, w)
			s.renderError(w, r, apperrors.ErrInsufficientScope)
			return
		}

		user, err := s.newAPI(ctx, token.AccessToken).AuthenticatedUser(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to fetch GitHub user")
			_ = cs.Save(r, w)
			s.renderErrorStatus(w, r, http.StatusBadGateway, "Could not load your GitHub profile")
			return
		}

		// A previous session on this browser is replaced, never reused.
		if oldID := cookieString(cs, cookieKeySessionID); oldID != "" {
			_ = s.sessions.Delete(r.Context(), oldID)
		}

		now := s.clock.Now()
		sess := usersessions.Session{
			ID:          usersessions.NewID(),
			UserID:      user.ID,
			Login:       user.Login,
			Name:        user.Name,
			AvatarURL:   user.AvatarURL,
			AccessToken: token.AccessToken,
			Scopes:      splitScopes(granted),
			CSRFToken:   usersessions.RandomToken(32),
			CreatedAt:   now,
			ExpiresAt:   now.Add(s.config.GetMaxSessionAge()),
		}
		if err := s.sessions.Create(r.Context(), sess); err != nil {
			logger.Error().Err(err).Msg("Failed to create session")
			_ = cs.Save(r, w)
			s.renderError(w, r, err)
			return
		}

		cs.Values[cookieKeySessionID] = sess.ID
		if err := cs.Save(r, w); err != nil {
			logger.Error().Err(err).Msg("Failed to save session cookie")
			_ = s.sessions.Delete(r.Context(), sess.ID)
			s.renderError(w, r, err)
			return
		}

		logger.Info().Str("login", sess.Login).Msg("User signed in")
		returnURL := authState.ReturnURL
		if returnURL == "" {
			returnURL = RouteDashboard
		}
		redirectSuccess(w, r, returnURL)
	}
}

func tokenTypeIsBearer(tokenType string) bool {
	return strings.EqualFold(tokenType, "bearer")
}
